//go:build cgo

// Command greetings builds the native greeting library loaded by
// com.example.greetings.NativeGreetings:
//
//	go build -buildmode=c-shared -o libgreetings.so ./cmd/greetings
//
// The JNI headers must be on the include path, e.g.
// CGO_CFLAGS="-I$JAVA_HOME/include -I$JAVA_HOME/include/linux".
package main

// #include <jni.h>
import "C"

import (
	"log/slog"
	"os"
	"runtime"
	"unsafe"

	"github.com/greetings-dev/greetings-bridge/application/bridge"
	"github.com/greetings-dev/greetings-bridge/application/config"
	"github.com/greetings-dev/greetings-bridge/domain/entities"
	"github.com/greetings-dev/greetings-bridge/infrastructure/jni"
	"github.com/greetings-dev/greetings-bridge/infrastructure/parser"
)

var (
	rt      *jni.Runtime
	handler *bridge.Handler
)

func init() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, fromFile, err := config.FromEnvironment(parser.NewYamlConfigParser())
	switch {
	case err != nil:
		logger.Error("invalid bridge config, using defaults", "path", os.Getenv(config.EnvVar), "error", err)
	case fromFile:
		logger.Info("loaded bridge config", "path", os.Getenv(config.EnvVar))
	}

	rt = jni.NewRuntime(jni.WithLogSink(cfg.LogClass, cfg.LogMethod))
	handler = bridge.NewHandler(rt, bridge.WithConfig(cfg), bridge.WithLogger(logger))
}

// Java_com_example_greetings_NativeGreetings_greeting implements
// static native String greeting(String input).
//
//export Java_com_example_greetings_NativeGreetings_greeting
func Java_com_example_greetings_NativeGreetings_greeting(env *C.JNIEnv, _ C.jclass, input C.jstring) C.jstring {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	callEnv := rt.Env(unsafe.Pointer(env))
	out, err := handler.HandleCall(callEnv, entities.HostString(uintptr(unsafe.Pointer(input))))
	if err != nil {
		callEnv.Raise(err)
		return nil
	}
	return C.jstring(unsafe.Pointer(uintptr(out))) //nolint:govet // JNI references are not Go pointers
}

func main() {}
