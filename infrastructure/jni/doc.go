// Package jni adapts the bridge ports to a real Java VM through cgo.
//
// Symbols are resolved with dlsym(RTLD_DEFAULT, ...) so the created-VMs
// entry point is found among libraries the host process already loaded; the
// bridge never links against or dlopens libjvm/libart itself. All JNI
// function-table calls go through small C trampolines in bridge.c, each typed
// with the exact signature jni.h declares.
package jni
