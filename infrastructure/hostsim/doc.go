// Package hostsim provides an in-process simulated host VM.
//
// Host implements every port the bridge needs from a real VM: symbol
// resolution, VM enumeration, thread attachment, string marshalling and the
// logging facility. Failure modes are injected through options, so the
// locator and call handler can be exercised without a JVM. The bridgectl
// simulate command runs the handler against it.
package hostsim
