package ports

import "github.com/greetings-dev/greetings-bridge/domain/entities"

// ConfigParser parses raw configuration bytes into a BridgeConfig.
type ConfigParser interface {
	// Parse overlays the fields present in data onto base.
	Parse(data []byte, base entities.BridgeConfig) (*entities.BridgeConfig, error)
}
