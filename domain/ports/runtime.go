package ports

import "github.com/greetings-dev/greetings-bridge/domain/entities"

// SymbolResolver resolves entry points among the symbols already loaded into
// the current process. Implementations must not load additional libraries.
type SymbolResolver interface {
	// ResolveVMEnumerator looks up the created-VMs entry point by name.
	ResolveVMEnumerator(name string) (VMEnumerator, error)
}

// VMEnumerator is the resolved "enumerate created VM instances" entry point.
type VMEnumerator interface {
	// GetCreatedVMs requests at most max VM handles. It returns the handles
	// written, the total number of VMs that exist and the host status code.
	GetCreatedVMs(max int) (vms []VM, total int, status int32)
}

// VM is a borrowed handle to a running host VM. The host owns its lifetime.
type VM interface {
	// AttachCurrentThread binds the calling thread to the VM and returns its
	// environment. attached reports whether this call performed the attach
	// (false when the thread was already attached).
	AttachCurrentThread() (env Env, attached bool, err error)

	// DetachCurrentThread releases an attachment made by AttachCurrentThread.
	DetachCurrentThread() error
}

// Env is a per-thread execution environment. It must not be shared across
// threads or kept beyond the current call.
type Env interface {
	// ReadString opens a borrowed view of a host string's native text.
	// The caller must Release the view.
	ReadString(s entities.HostString) (StringView, error)

	// NewString creates a host string from text. Ownership of the returned
	// reference passes to the host.
	NewString(text string) (entities.HostString, error)

	// Logger acquires the host logging capability scoped to tag.
	Logger(tag string) (HostLogger, error)
}

// StringView is a borrowed view of a host string in modified UTF-8.
type StringView interface {
	// Bytes returns the viewed bytes. It panics after Release.
	Bytes() []byte

	// Release gives the view back to the host. Calling it twice is a no-op.
	Release()
}

// HostLogger forwards plain-text messages to the host logging facility.
type HostLogger interface {
	// Log emits msg at priority p.
	Log(p entities.Priority, msg string) error

	// Close releases any host references held by the logger.
	Close() error
}
