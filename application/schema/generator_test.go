package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greetings-dev/greetings-bridge/internal/testutil"
)

func TestGenerateSchema_SimpleStruct(t *testing.T) {
	type SimpleConfig struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	}

	schema, err := GenerateSchema(SimpleConfig{})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(schema, &decoded))

	props, ok := decoded["properties"].(map[string]interface{})
	require.True(t, ok, "expected properties object")
	assert.Contains(t, props, "host")
	assert.Contains(t, props, "port")
}

func TestBridgeConfigSchema(t *testing.T) {
	schema, err := BridgeConfigSchema()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(schema, &decoded))

	props, ok := decoded["properties"].(map[string]interface{})
	require.True(t, ok, "expected properties object")
	for _, key := range []string{"symbol", "tag", "prefix", "fallback_target", "failure_placeholder", "detach", "log_class", "log_method"} {
		assert.Contains(t, props, key)
	}

	assert.NotContains(t, decoded, "required", "config keys are all optional")
	assert.Equal(t, false, decoded["additionalProperties"])

	detach, ok := props["detach"].(map[string]interface{})
	require.True(t, ok)
	assert.ElementsMatch(t, []interface{}{"never", "after_call"}, detach["enum"])

	tag, ok := props["tag"].(map[string]interface{})
	require.True(t, ok)
	testutil.AssertMapContains(t, map[string]interface{}{
		"type":      "string",
		"maxLength": float64(23),
		"default":   "NativeGreetings",
	}, tag)
}
