// Package bridge implements the call handler behind the exported entry point.
//
// Each call is self-contained: receive the host string, decode it, locate and
// attach to the host VM, emit one debug line through the host logging
// facility, build the greeting and hand a new host string back. Expected
// failures never cross the boundary as anything but a well-formed string:
// undecodable input becomes the fallback target and locator failures become
// the failure placeholder. Only invariant violations are returned as errors,
// for the entry point to raise through the host's exception mechanism.
package bridge
