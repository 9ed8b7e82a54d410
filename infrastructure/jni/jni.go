//go:build cgo

package jni

/*
#cgo linux,!android LDFLAGS: -ldl
#include "bridge.h"
*/
import "C"

import (
	"unsafe"

	"github.com/greetings-dev/greetings-bridge/domain/entities"
	"github.com/greetings-dev/greetings-bridge/domain/errors"
	"github.com/greetings-dev/greetings-bridge/internal/abi"
	"github.com/greetings-dev/greetings-bridge/internal/mutf8"
)

// logMethodSignature is the JNI descriptor the log sink's static method must have.
const logMethodSignature = "(ILjava/lang/String;Ljava/lang/String;)I"

// cString is a NUL-terminated buffer in C memory owned by the bridge.
type cString struct {
	ptr    *C.char
	ledger *abi.Ledger
}

// newCString copies the modified UTF-8 form of s into C memory.
// The caller must call free exactly once.
func newCString(ledger *abi.Ledger, s string) (*cString, error) {
	n := mutf8.EncodedLen(s) + 1
	p := C.malloc(C.size_t(n))
	if p == nil {
		return nil, &errors.MemoryError{Requested: n}
	}
	if err := ledger.Track(uintptr(p), n, abi.Buffer); err != nil {
		C.free(p)
		return nil, err
	}

	buf := unsafe.Slice((*byte)(p), n)
	enc := mutf8.AppendEncoded(buf[:0], s)
	buf[len(enc)] = 0

	return &cString{ptr: (*C.char)(p), ledger: ledger}, nil
}

func (s *cString) free() {
	if s.ptr == nil {
		return
	}
	s.ledger.Untrack(uintptr(unsafe.Pointer(s.ptr)))
	C.free(unsafe.Pointer(s.ptr))
	s.ptr = nil
}

// asciiCString is for names known to be plain ASCII (symbols, class names).
func asciiCString(s string) (*C.char, func()) {
	cs := C.CString(s)
	return cs, func() { C.free(unsafe.Pointer(cs)) }
}

func jstringOf(s entities.HostString) C.jstring {
	return C.jstring(unsafe.Pointer(uintptr(s))) //nolint:govet // JNI references are not Go pointers
}

func hostStringOf(s C.jstring) entities.HostString {
	return entities.HostString(uintptr(unsafe.Pointer(s)))
}

func statusError(op string, rc C.jint) error {
	if rc == C.JNI_OK {
		return nil
	}
	return &errors.HostCallError{Operation: op, Status: int32(rc)}
}

// clearException reports and clears a pending Java exception.
func clearException(env *C.JNIEnv, op string) error {
	if C.bridge_exception_check(env) == C.JNI_FALSE {
		return nil
	}
	C.bridge_exception_clear(env)
	return &errors.HostCallError{Operation: op, Exception: true}
}
