// Package parser decodes configuration files.
package parser

import (
	"bytes"
	stdErrors "errors"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/greetings-dev/greetings-bridge/domain/entities"
	"github.com/greetings-dev/greetings-bridge/domain/errors"
	"github.com/greetings-dev/greetings-bridge/domain/ports"
)

// YamlConfigParser implements ConfigParser for YAML documents. JSON documents
// are accepted as well since JSON is a subset of YAML.
type YamlConfigParser struct{}

// NewYamlConfigParser creates a new YamlConfigParser.
func NewYamlConfigParser() ports.ConfigParser {
	return &YamlConfigParser{}
}

// Parse decodes data over a copy of base. Unknown keys are rejected and an
// empty document yields base unchanged.
func (p *YamlConfigParser) Parse(data []byte, base entities.BridgeConfig) (*entities.BridgeConfig, error) {
	cfg := base

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if stdErrors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, &errors.ConfigError{Err: err}
	}
	return &cfg, nil
}
