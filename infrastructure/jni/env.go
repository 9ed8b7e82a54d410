//go:build cgo

package jni

// #include "bridge.h"
import "C"

import (
	stdErrors "errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/greetings-dev/greetings-bridge/domain/entities"
	"github.com/greetings-dev/greetings-bridge/domain/errors"
	"github.com/greetings-dev/greetings-bridge/domain/ports"
	"github.com/greetings-dev/greetings-bridge/internal/abi"
)

// raisedClass is thrown for bridge faults when no exception is already pending.
const raisedClass = "java/lang/IllegalStateException"

// Env wraps the JNIEnv of the current thread.
type Env struct {
	env *C.JNIEnv
	rt  *Runtime
}

// ReadString implements ports.Env using GetStringUTFChars.
func (e *Env) ReadString(s entities.HostString) (ports.StringView, error) {
	if s.IsNull() {
		return nil, &errors.HostCallError{Operation: "get_string_utf_chars", Err: fmt.Errorf("null string reference")}
	}

	js := jstringOf(s)
	var n C.jsize
	p := C.bridge_get_string_utf(e.env, js, &n)
	if p == nil {
		if err := clearException(e.env, "get_string_utf_chars"); err != nil {
			return nil, err
		}
		return nil, &errors.HostCallError{Operation: "get_string_utf_chars", Err: fmt.Errorf("host returned null")}
	}

	// Views are recorded only; the ledger never rejects them.
	_ = e.rt.ledger.Track(uintptr(unsafe.Pointer(p)), int(n), abi.View)
	return &stringView{env: e.env, str: js, ptr: p, n: int(n), ledger: e.rt.ledger}, nil
}

// NewString implements ports.Env using NewStringUTF.
func (e *Env) NewString(text string) (entities.HostString, error) {
	cs, err := newCString(e.rt.ledger, text)
	if err != nil {
		return entities.NullHostString, err
	}
	defer cs.free()

	js := C.bridge_new_string_utf(e.env, cs.ptr)
	if js == nil {
		// The pending OutOfMemoryError is left for the host to observe.
		return entities.NullHostString, &errors.HostCallError{
			Operation: "new_string_utf",
			Exception: C.bridge_exception_check(e.env) == C.JNI_TRUE,
		}
	}
	return hostStringOf(js), nil
}

// Logger implements ports.Env. It resolves the configured static log method
// and creates the tag string once per call.
func (e *Env) Logger(tag string) (ports.HostLogger, error) {
	className, releaseClass := asciiCString(e.rt.logClass)
	defer releaseClass()

	cls := C.bridge_find_class(e.env, className)
	if cls == nil {
		if err := clearException(e.env, "find_class"); err != nil {
			return nil, err
		}
		return nil, &errors.HostCallError{Operation: "find_class", Err: fmt.Errorf("class %s not found", e.rt.logClass)}
	}

	methodName, releaseMethod := asciiCString(e.rt.logMethod)
	defer releaseMethod()
	sig, releaseSig := asciiCString(logMethodSignature)
	defer releaseSig()

	method := C.bridge_get_static_method(e.env, cls, methodName, sig)
	if method == nil {
		C.bridge_delete_local_ref(e.env, C.jobject(cls))
		if err := clearException(e.env, "get_static_method_id"); err != nil {
			return nil, err
		}
		return nil, &errors.HostCallError{Operation: "get_static_method_id", Err: fmt.Errorf("method %s%s not found", e.rt.logMethod, logMethodSignature)}
	}

	tagRef, err := e.NewString(tag)
	if err != nil {
		C.bridge_delete_local_ref(e.env, C.jobject(cls))
		_ = clearException(e.env, "new_string_utf")
		return nil, err
	}

	return &hostLogger{env: e, cls: cls, method: method, tag: jstringOf(tagRef)}, nil
}

// Raise converts a bridge fault into a pending Java exception. An exception
// that is already pending takes precedence and is left untouched.
func (e *Env) Raise(err error) {
	if err == nil || C.bridge_exception_check(e.env) == C.JNI_TRUE {
		return
	}

	cls, releaseClass := asciiCString(raisedClass)
	defer releaseClass()

	msg := err.Error()
	var pe *errors.PanicError
	if stdErrors.As(err, &pe) {
		msg = "native greeting " + msg
	}

	cs, cerr := newCString(e.rt.ledger, msg)
	if cerr != nil {
		C.bridge_throw_new(e.env, cls, nil)
		return
	}
	defer cs.free()
	C.bridge_throw_new(e.env, cls, cs.ptr)
}

type stringView struct {
	env    *C.JNIEnv
	str    C.jstring
	ptr    *C.char
	ledger *abi.Ledger
	n      int
	once   sync.Once
	done   bool
}

func (v *stringView) Bytes() []byte {
	if v.done {
		panic("jni: string view used after release")
	}
	if v.n == 0 {
		return []byte{}
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(v.ptr)), v.n)
}

func (v *stringView) Release() {
	v.once.Do(func() {
		v.done = true
		v.ledger.Untrack(uintptr(unsafe.Pointer(v.ptr)))
		C.bridge_release_string_utf(v.env, v.str, v.ptr)
		v.ptr = nil
	})
}

type hostLogger struct {
	env    *Env
	cls    C.jclass
	method C.jmethodID
	tag    C.jstring
}

// Log implements ports.HostLogger. A Java exception raised by the log sink
// is cleared and reported as an error.
func (l *hostLogger) Log(p entities.Priority, msg string) error {
	msgRef, err := l.env.NewString(msg)
	if err != nil {
		_ = clearException(l.env.env, "new_string_utf")
		return err
	}
	js := jstringOf(msgRef)
	defer C.bridge_delete_local_ref(l.env.env, C.jobject(js))

	C.bridge_call_static_log(l.env.env, l.cls, l.method, C.jint(p), l.tag, js)
	return clearException(l.env.env, "log")
}

// Close implements ports.HostLogger.
func (l *hostLogger) Close() error {
	C.bridge_delete_local_ref(l.env.env, C.jobject(l.tag))
	C.bridge_delete_local_ref(l.env.env, C.jobject(l.cls))
	l.tag, l.cls = nil, nil
	return nil
}
