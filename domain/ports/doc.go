// Package ports defines the interfaces the bridge needs from the host VM.
// These ports enable dependency inversion - the locator and call handler
// depend on abstractions, and the jni and hostsim adapters implement them.
package ports
