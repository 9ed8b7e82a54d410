// Package schema provides JSON schema generation for the bridge configuration.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/greetings-dev/greetings-bridge/domain/entities"
	"github.com/greetings-dev/greetings-bridge/domain/errors"
)

// GenerateSchema creates a JSON schema from a Go struct.
// It uses the `invopop/jsonschema` library to reflect on the struct
// and generate a standard JSON Schema (Draft 2020-12).
func GenerateSchema(v interface{}) ([]byte, error) {
	return generate(&jsonschema.Reflector{
		ExpandedStruct: true, // Expand struct definitions inline
	}, v)
}

// BridgeConfigSchema returns the schema of a configuration file. Every key is
// optional because files are overlaid onto the defaults, and unknown keys are
// rejected.
func BridgeConfigSchema() ([]byte, error) {
	return generate(&jsonschema.Reflector{
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}, &entities.BridgeConfig{})
}

func generate(reflector *jsonschema.Reflector, v interface{}) ([]byte, error) {
	schema := reflector.Reflect(v)

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, &errors.SchemaError{Type: fmt.Sprintf("%T", v), Err: err}
	}

	return jsonBytes, nil
}
