//go:build cgo

package jni

// #include "bridge.h"
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/greetings-dev/greetings-bridge/domain/entities"
	"github.com/greetings-dev/greetings-bridge/domain/ports"
	"github.com/greetings-dev/greetings-bridge/internal/abi"
)

// Runtime resolves the host VM from inside the host process.
type Runtime struct {
	ledger    *abi.Ledger
	logClass  string
	logMethod string
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogSink sets the class and static method that receive log lines.
func WithLogSink(class, method string) Option {
	return func(r *Runtime) {
		if class != "" {
			r.logClass = class
		}
		if method != "" {
			r.logMethod = method
		}
	}
}

// WithLedger records native buffers and string views in l.
func WithLedger(l *abi.Ledger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.ledger = l
		}
	}
}

// NewRuntime creates a Runtime.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		ledger:    abi.Default,
		logClass:  entities.DefaultBridgeConfig().LogClass,
		logMethod: entities.DefaultBridgeConfig().LogMethod,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveVMEnumerator implements ports.SymbolResolver by looking name up among
// the symbols already loaded into the process.
func (r *Runtime) ResolveVMEnumerator(name string) (ports.VMEnumerator, error) {
	cname, release := asciiCString(name)
	defer release()

	var cerr *C.char
	fn := C.bridge_dlsym_default(cname, &cerr)
	if cerr != nil {
		return nil, fmt.Errorf("dlsym: %s", C.GoString(cerr))
	}
	if fn == nil {
		return nil, fmt.Errorf("dlsym: %s resolved to null", name)
	}
	return &vmEnumerator{fn: fn, rt: r}, nil
}

// Env wraps a JNIEnv pointer received from the host with a native call.
// env must be the JNIEnv* of the calling thread.
func (r *Runtime) Env(env unsafe.Pointer) *Env {
	return &Env{env: (*C.JNIEnv)(env), rt: r}
}

type vmEnumerator struct {
	fn unsafe.Pointer
	rt *Runtime
}

// GetCreatedVMs implements ports.VMEnumerator.
func (e *vmEnumerator) GetCreatedVMs(max int) ([]ports.VM, int, int32) {
	if max < 1 {
		max = 1
	}

	buf := make([]*C.JavaVM, max)
	var n C.jsize
	if rc := C.bridge_get_created_vms(e.fn, &buf[0], C.jsize(max), &n); rc != C.JNI_OK {
		return nil, 0, int32(rc)
	}

	written := min(int(n), max)
	vms := make([]ports.VM, 0, written)
	for _, raw := range buf[:written] {
		if raw != nil {
			vms = append(vms, &VM{raw: raw, rt: e.rt})
		}
	}
	return vms, int(n), entities.StatusOK
}

// VM is a borrowed JavaVM pointer. The host owns the VM.
type VM struct {
	raw *C.JavaVM
	rt  *Runtime
}

// AttachCurrentThread implements ports.VM. The calling goroutine must be
// locked to its OS thread for as long as the returned Env is used.
func (v *VM) AttachCurrentThread() (ports.Env, bool, error) {
	var env *C.JNIEnv
	switch rc := C.bridge_get_env(v.raw, &env); rc {
	case C.JNI_OK:
		return &Env{env: env, rt: v.rt}, false, nil
	case C.JNI_EDETACHED:
	default:
		return nil, false, statusError("get_env", rc)
	}

	if rc := C.bridge_attach(v.raw, &env); rc != C.JNI_OK {
		return nil, false, statusError("attach_current_thread", rc)
	}
	return &Env{env: env, rt: v.rt}, true, nil
}

// DetachCurrentThread implements ports.VM.
func (v *VM) DetachCurrentThread() error {
	return statusError("detach_current_thread", C.bridge_detach(v.raw))
}
