// Package locator discovers the running host VM through the process-wide
// created-VMs entry point and attaches the calling thread to it.
//
// The entry point is resolved by name among symbols already loaded into the
// process, on every call; nothing is cached between calls.
package locator

import (
	stdErrors "errors"
	"log/slog"
	"sync"

	"github.com/greetings-dev/greetings-bridge/domain/entities"
	"github.com/greetings-dev/greetings-bridge/domain/errors"
	"github.com/greetings-dev/greetings-bridge/domain/ports"
)

// Locator finds the single host VM and attaches the current thread to it.
type Locator struct {
	resolver ports.SymbolResolver
	logger   *slog.Logger
	symbol   string
	detach   entities.DetachPolicy
}

// Option configures a Locator.
type Option func(*Locator)

// WithSymbol overrides the entry point name.
func WithSymbol(name string) Option {
	return func(l *Locator) {
		if name != "" {
			l.symbol = name
		}
	}
}

// WithDetachPolicy sets the policy applied by Attachment.Release.
func WithDetachPolicy(p entities.DetachPolicy) Option {
	return func(l *Locator) {
		l.detach = p
	}
}

// WithLogger sets the native-side diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locator) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Locator resolving symbols through resolver.
func New(resolver ports.SymbolResolver, opts ...Option) *Locator {
	l := &Locator{
		resolver: resolver,
		logger:   slog.Default(),
		symbol:   entities.CreatedVMsSymbol,
		detach:   entities.DetachNever,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate resolves the entry point, asks it for at most one VM and attaches the
// current thread to the first VM returned.
//
// Failures are reported as *errors.LocateError with the matching kind. On
// success the thread stays attached for as long as the returned Attachment
// is in use.
func (l *Locator) Locate() (*Attachment, error) {
	enumerate, err := l.resolver.ResolveVMEnumerator(l.symbol)
	if err != nil {
		return nil, &errors.LocateError{Kind: errors.SymbolNotFound, Symbol: l.symbol, Err: err}
	}
	if enumerate == nil {
		return nil, &errors.LocateError{Kind: errors.SymbolNotFound, Symbol: l.symbol}
	}

	vms, total, status := enumerate.GetCreatedVMs(1)
	if status != entities.StatusOK {
		return nil, &errors.LocateError{Kind: errors.CallFailed, Symbol: l.symbol, Status: status}
	}
	if total == 0 || len(vms) == 0 || vms[0] == nil {
		return nil, &errors.LocateError{Kind: errors.NoVMFound, Symbol: l.symbol}
	}
	if total > 1 {
		l.logger.Debug("multiple host VMs reported, using the first", "count", total)
	}

	vm := vms[0]
	env, attached, err := vm.AttachCurrentThread()
	if err != nil {
		return nil, &errors.LocateError{Kind: errors.AttachFailed, Symbol: l.symbol, Status: statusOf(err), Err: err}
	}

	return &Attachment{
		VM:       vm,
		Env:      env,
		attached: attached,
		policy:   l.detach,
		logger:   l.logger,
	}, nil
}

func statusOf(err error) int32 {
	var hce *errors.HostCallError
	if stdErrors.As(err, &hce) {
		return hce.Status
	}
	return entities.StatusErr
}

// Attachment is the current thread's binding to the host VM.
// Env must not be used after Release or from another thread.
type Attachment struct {
	VM     ports.VM
	Env    ports.Env
	logger *slog.Logger
	policy entities.DetachPolicy

	once     sync.Once
	attached bool
}

// AttachedHere reports whether Locate performed the attach, as opposed to
// finding the thread already attached.
func (a *Attachment) AttachedHere() bool {
	return a.attached
}

// Release ends the attachment's use. With DetachAfterCall the thread is
// detached if Locate attached it; otherwise the thread stays attached for its
// lifetime. Release is idempotent.
func (a *Attachment) Release() error {
	var err error
	a.once.Do(func() {
		if a.policy != entities.DetachAfterCall || !a.attached {
			return
		}
		if err = a.VM.DetachCurrentThread(); err != nil {
			a.logger.Warn("detach current thread failed", "error", err)
		}
	})
	return err
}
