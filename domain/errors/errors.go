// Package errors provides domain-specific error types for the bridge.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/greetings-dev/greetings-bridge/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return entities.NewErrorDetail(entities.ErrorTypeInternal, err.Error())
}

// IsRecoverable reports whether err belongs to the expected failure modes the
// bridge absorbs into substitute output values.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	var le *LocateError
	if stdErrors.As(err, &le) {
		return true
	}
	var ee *EncodingError
	return stdErrors.As(err, &ee)
}

// LocateKind enumerates the ways locating the host VM can fail.
type LocateKind int

const (
	// SymbolNotFound means the enumeration entry point is not loaded in the process.
	SymbolNotFound LocateKind = iota + 1
	// CallFailed means the entry point ran but reported a non-success status.
	CallFailed
	// NoVMFound means the entry point succeeded but reported zero VMs.
	NoVMFound
	// AttachFailed means a VM was found but the thread could not attach to it.
	AttachFailed
)

func (k LocateKind) String() string {
	switch k {
	case SymbolNotFound:
		return "symbol_not_found"
	case CallFailed:
		return "call_failed"
	case NoVMFound:
		return "no_vm_found"
	case AttachFailed:
		return "attach_failed"
	default:
		return fmt.Sprintf("locate_kind_%d", int(k))
	}
}

// ErrSymbolNotFound, ErrCallFailed, ErrNoVMFound and ErrAttachFailed are
// sentinels matched by LocateError.Is.
var (
	ErrSymbolNotFound = &LocateError{Kind: SymbolNotFound}
	ErrCallFailed     = &LocateError{Kind: CallFailed}
	ErrNoVMFound      = &LocateError{Kind: NoVMFound}
	ErrAttachFailed   = &LocateError{Kind: AttachFailed}
)

// LocateError represents a failure to locate or attach to the host VM.
type LocateError struct {
	Err    error
	Symbol string
	Kind   LocateKind
	Status int32
}

func (e *LocateError) Error() string {
	switch e.Kind {
	case SymbolNotFound:
		if e.Err != nil {
			return fmt.Sprintf("symbol %s not found in process: %v", e.Symbol, e.Err)
		}
		return fmt.Sprintf("symbol %s not found in process", e.Symbol)
	case CallFailed:
		return fmt.Sprintf("%s returned status %d", e.Symbol, e.Status)
	case NoVMFound:
		return fmt.Sprintf("%s reported no created VMs", e.Symbol)
	case AttachFailed:
		if e.Err != nil {
			return fmt.Sprintf("attach current thread failed with status %d: %v", e.Status, e.Err)
		}
		return fmt.Sprintf("attach current thread failed with status %d", e.Status)
	default:
		return fmt.Sprintf("locate vm failed (%s)", e.Kind)
	}
}

func (e *LocateError) Unwrap() error {
	return e.Err
}

// Is matches another LocateError of the same kind.
func (e *LocateError) Is(target error) bool {
	t, ok := target.(*LocateError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// ToErrorDetail implements DetailedError.
func (e *LocateError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail(entities.ErrorTypeLocate, e.Error()).
		WithCode(e.Kind.String()).
		WithDetails(map[string]any{"symbol": e.Symbol, "status": e.Status}).
		AsRecoverable()
}

// EncodingError represents bytes that are not valid native text.
type EncodingError struct {
	Reason string
	Offset int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("invalid modified utf-8 at byte %d: %s", e.Offset, e.Reason)
}

// ToErrorDetail implements DetailedError.
func (e *EncodingError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail(entities.ErrorTypeEncoding, e.Error()).
		WithCode("invalid_text").
		WithDetails(map[string]any{"offset": e.Offset}).
		AsRecoverable()
}

// ConversionFault represents native text that cannot be represented as a host
// string at all. It is an invariant violation, not an expected runtime condition.
type ConversionFault struct {
	Err       error
	Operation string
}

func (e *ConversionFault) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conversion fault in %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("conversion fault in %s", e.Operation)
}

func (e *ConversionFault) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConversionFault) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail(entities.ErrorTypeConversion, e.Error()).WithCode(e.Operation)
}

// HostCallError represents a host call that failed or raised a host exception.
type HostCallError struct {
	Err       error
	Operation string
	Status    int32
	Exception bool
}

func (e *HostCallError) Error() string {
	switch {
	case e.Exception:
		return fmt.Sprintf("host call %s raised an exception", e.Operation)
	case e.Err != nil:
		return fmt.Sprintf("host call %s failed: %v", e.Operation, e.Err)
	default:
		return fmt.Sprintf("host call %s failed with status %d", e.Operation, e.Status)
	}
}

func (e *HostCallError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *HostCallError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail(entities.ErrorTypeHost, e.Error()).
		WithCode(e.Operation).
		WithDetails(map[string]any{"status": e.Status, "exception": e.Exception})
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail(entities.ErrorTypeConfig, e.Error()).WithCode(e.Field)
}

// PanicError wraps a value recovered from a panic inside a bridge call.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return fmt.Sprintf("panic: %v", err)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ToErrorDetail implements DetailedError.
func (e *PanicError) ToErrorDetail() *entities.ErrorDetail {
	d := entities.NewErrorDetail(entities.ErrorTypePanic, e.Error())
	d.Stack = e.Stack
	return d
}

// MemoryError represents a native allocation that would exceed the ledger limit.
type MemoryError struct {
	Requested int // Requested allocation size
	Current   int // Current total allocated
	Limit     int // Maximum allowed
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("memory allocation failed: requested %d bytes, current %d bytes, limit %d bytes",
		e.Requested, e.Current, e.Limit)
}

// ToErrorDetail implements DetailedError.
func (e *MemoryError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail(entities.ErrorTypeInternal, e.Error()).
		WithCode("memory_limit").
		WithDetails(map[string]any{"requested": e.Requested, "current": e.Current, "limit": e.Limit})
}

// SchemaError represents a schema generation error.
type SchemaError struct {
	Err  error
	Type string
}

func (e *SchemaError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("schema error for type %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("schema error: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *SchemaError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail(entities.ErrorTypeConfig, e.Error()).WithCode("schema")
}
