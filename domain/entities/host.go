package entities

// HostString is an opaque reference to a string object owned by the host VM.
// In production it carries a JNI local reference; native code never frees it
// and never reads it after handing it back to the host.
type HostString uintptr

// NullHostString is the zero reference.
const NullHostString HostString = 0

// IsNull reports whether s refers to no object.
func (s HostString) IsNull() bool {
	return s == NullHostString
}

// Status codes returned by the host VM invocation interface (jni.h).
const (
	StatusOK        int32 = 0
	StatusErr       int32 = -1
	StatusDetached  int32 = -2
	StatusVersion   int32 = -3
	StatusNoMemory  int32 = -4
	StatusExists    int32 = -5
	StatusInvalArgs int32 = -6
)

// CreatedVMsSymbol is the process-wide entry point enumerating created VMs.
const CreatedVMsSymbol = "JNI_GetCreatedJavaVMs"

// Priority is a host log severity (android.util.Log constants).
type Priority int32

const (
	PriorityVerbose Priority = 2
	PriorityDebug   Priority = 3
	PriorityInfo    Priority = 4
	PriorityWarn    Priority = 5
	PriorityError   Priority = 6
	PriorityAssert  Priority = 7
)

func (p Priority) String() string {
	switch p {
	case PriorityVerbose:
		return "V"
	case PriorityDebug:
		return "D"
	case PriorityInfo:
		return "I"
	case PriorityWarn:
		return "W"
	case PriorityError:
		return "E"
	case PriorityAssert:
		return "A"
	default:
		return "?"
	}
}
