package config

import (
	"fmt"
	"os"

	"github.com/greetings-dev/greetings-bridge/domain/entities"
	"github.com/greetings-dev/greetings-bridge/domain/ports"
)

// EnvVar names a configuration file read when the library is loaded.
const EnvVar = "GREETINGS_BRIDGE_CONFIG"

// Parse overlays data onto the defaults and validates the result.
func Parse(parser ports.ConfigParser, data []byte) (entities.BridgeConfig, error) {
	cfg, err := parser.Parse(data, Default())
	if err != nil {
		return entities.BridgeConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := Validate(*cfg); err != nil {
		return entities.BridgeConfig{}, err
	}
	return *cfg, nil
}

// LoadFile reads and parses the configuration file at path.
func LoadFile(parser ports.ConfigParser, path string) (entities.BridgeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entities.BridgeConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(parser, data)
}

// FromEnvironment loads the file named by EnvVar, or returns the defaults when
// the variable is unset. fromFile reports whether a file was used.
func FromEnvironment(parser ports.ConfigParser) (cfg entities.BridgeConfig, fromFile bool, err error) {
	path, ok := os.LookupEnv(EnvVar)
	if !ok || path == "" {
		return Default(), false, nil
	}
	cfg, err = LoadFile(parser, path)
	if err != nil {
		return Default(), true, err
	}
	return cfg, true, nil
}
