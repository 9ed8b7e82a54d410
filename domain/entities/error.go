package entities

import "fmt"

// Error types carried in ErrorDetail.Type.
const (
	ErrorTypeLocate     = "locate"
	ErrorTypeEncoding   = "encoding"
	ErrorTypeConversion = "conversion"
	ErrorTypeHost       = "host"
	ErrorTypeConfig     = "config"
	ErrorTypePanic      = "panic"
	ErrorTypeInternal   = "internal"
)

// ErrorDetail is the structured form of a bridge error, as reported by
// diagnostics and bridgectl.
type ErrorDetail struct {
	// Wrapped is the detail of the underlying cause, if any.
	Wrapped *ErrorDetail `json:"wrapped,omitempty"`

	// Details holds error-specific context such as offsets and host status codes.
	Details map[string]any `json:"details,omitempty"`

	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`

	// Stack is set for recovered panics.
	Stack []byte `json:"stack,omitempty"`

	// Recoverable reports whether the bridge degrades to a substitute value
	// instead of failing the call.
	Recoverable bool `json:"recoverable,omitempty"`
}

// Error implements the error interface.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Type != "" && e.Type != ErrorTypeInternal {
		msg = e.Type + ": " + msg
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Code)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped.Error())
	}
	return msg
}

// NewErrorDetail creates an ErrorDetail of the given type.
func NewErrorDetail(errorType, message string) *ErrorDetail {
	return &ErrorDetail{Type: errorType, Message: message}
}

// WithDetails attaches details to e and returns it.
func (e *ErrorDetail) WithDetails(details map[string]any) *ErrorDetail {
	e.Details = details
	return e
}

// WithCode sets the machine-readable code of e and returns it.
func (e *ErrorDetail) WithCode(code string) *ErrorDetail {
	e.Code = code
	return e
}

// AsRecoverable marks e as an expected failure absorbed by the bridge.
func (e *ErrorDetail) AsRecoverable() *ErrorDetail {
	e.Recoverable = true
	return e
}
