// Package config builds, validates and loads the bridge configuration.
package config

import (
	"github.com/greetings-dev/greetings-bridge/domain/entities"
)

// Option is a functional option for configuring bridge settings.
type Option func(*entities.BridgeConfig)

// Default returns the default bridge configuration.
func Default() entities.BridgeConfig {
	return entities.DefaultBridgeConfig()
}

// New creates a BridgeConfig from the defaults and the given options.
// The result is not validated; call Validate before using it.
func New(opts ...Option) entities.BridgeConfig {
	cfg := Default()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithSymbol sets the VM enumeration entry point name.
func WithSymbol(name string) Option {
	return func(c *entities.BridgeConfig) {
		c.Symbol = name
	}
}

// WithTag sets the host log tag.
func WithTag(tag string) Option {
	return func(c *entities.BridgeConfig) {
		c.Tag = tag
	}
}

// WithPrefix sets the greeting prefix.
func WithPrefix(prefix string) Option {
	return func(c *entities.BridgeConfig) {
		c.Prefix = prefix
	}
}

// WithFallbackTarget sets the target used for undecodable input.
func WithFallbackTarget(target string) Option {
	return func(c *entities.BridgeConfig) {
		c.FallbackTarget = target
	}
}

// WithFailurePlaceholder sets the result returned on internal failure.
func WithFailurePlaceholder(text string) Option {
	return func(c *entities.BridgeConfig) {
		c.FailurePlaceholder = text
	}
}

// WithDetachPolicy sets the thread detachment policy.
func WithDetachPolicy(p entities.DetachPolicy) Option {
	return func(c *entities.BridgeConfig) {
		c.Detach = p
	}
}

// WithLogSink sets the host class and static method used for logging.
func WithLogSink(class, method string) Option {
	return func(c *entities.BridgeConfig) {
		c.LogClass = class
		c.LogMethod = method
	}
}
