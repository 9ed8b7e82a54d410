// Package testutil provides common test utilities and assertions for bridge tests
package testutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greetings-dev/greetings-bridge/internal/abi"
)

// AssertJSONEqual compares two JSON strings for equality, ignoring formatting
func AssertJSONEqual(t *testing.T, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedJSON, actualJSON interface{}
	require.NoError(t, json.Unmarshal([]byte(expected), &expectedJSON), "expected JSON is invalid")
	require.NoError(t, json.Unmarshal([]byte(actual), &actualJSON), "actual JSON is invalid")

	assert.Equal(t, expectedJSON, actualJSON, msgAndArgs...)
}

// AssertMapContains asserts that a map contains all expected key-value pairs
func AssertMapContains(t *testing.T, expectedMap, actualMap map[string]interface{}, msgAndArgs ...interface{}) {
	t.Helper()

	for key, expectedValue := range expectedMap {
		actualValue, ok := actualMap[key]
		assert.True(t, ok, "map should contain key %q", key)
		assert.Equal(t, expectedValue, actualValue, msgAndArgs...)
	}
}

// AssertLedgerEmpty asserts that every buffer and view recorded in l was released.
func AssertLedgerEmpty(t *testing.T, l *abi.Ledger, msgAndArgs ...interface{}) {
	t.Helper()

	count, totalBytes := l.Stats()
	assert.Zero(t, count, msgAndArgs...)
	assert.Zero(t, totalBytes, msgAndArgs...)
	assert.Zero(t, l.Outstanding(abi.View), msgAndArgs...)
	assert.Zero(t, l.Outstanding(abi.Buffer), msgAndArgs...)
}
