// Package entities provides the core domain types shared by the bridge:
// host references, host status codes, log priorities, the bridge
// configuration and the structured error detail.
package entities
