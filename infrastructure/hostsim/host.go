package hostsim

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/greetings-dev/greetings-bridge/domain/entities"
	"github.com/greetings-dev/greetings-bridge/domain/errors"
	"github.com/greetings-dev/greetings-bridge/domain/ports"
	"github.com/greetings-dev/greetings-bridge/internal/abi"
	"github.com/greetings-dev/greetings-bridge/internal/mutf8"
)

// LogEntry is one line captured by the simulated logging facility.
type LogEntry struct {
	Tag      string
	Message  string
	Priority entities.Priority
}

func (e LogEntry) String() string {
	return fmt.Sprintf("%s/%s: %s", e.Priority, e.Tag, e.Message)
}

// Stats counts host-side events.
type Stats struct {
	Enumerations int
	Attaches     int
	Detaches     int
	LiveStrings  int
}

// Host is a simulated host VM process.
type Host struct {
	opts   options
	ledger *abi.Ledger
	vms    []*VM

	mu      sync.Mutex
	strings map[entities.HostString][]byte
	nextRef uintptr
	logcat  []LogEntry
	stats   Stats
}

// New creates a simulated host.
func New(opts ...Option) *Host {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	h := &Host{
		opts:    o,
		ledger:  o.ledger,
		strings: make(map[entities.HostString][]byte),
		nextRef: 0x100,
	}
	if h.ledger == nil {
		h.ledger = abi.NewLedger()
	}
	for i := 0; i < o.vmCount; i++ {
		h.vms = append(h.vms, &VM{host: h, id: i})
	}
	return h
}

// ResolveVMEnumerator implements ports.SymbolResolver.
func (h *Host) ResolveVMEnumerator(name string) (ports.VMEnumerator, error) {
	if h.opts.symbolMissing || name != entities.CreatedVMsSymbol {
		return nil, fmt.Errorf("undefined symbol: %s", name)
	}
	return enumerator{host: h}, nil
}

// Env returns the environment the host passes along with an invocation.
func (h *Host) Env() ports.Env {
	return &Env{host: h}
}

// NewString creates a host string holding s, as host code would.
func (h *Host) NewString(s string) entities.HostString {
	return h.store(mutf8.Encode(s))
}

// NewRawString creates a host string whose native text is exactly b, which
// need not be valid modified UTF-8.
func (h *Host) NewRawString(b []byte) entities.HostString {
	return h.store(append([]byte(nil), b...))
}

// Text decodes the host string s.
func (h *Host) Text(s entities.HostString) (string, error) {
	h.mu.Lock()
	b, ok := h.strings[s]
	h.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown host string %#x", uintptr(s))
	}
	return mutf8.Decode(b)
}

// DeleteString drops s from the string table, as the host's collector would.
func (h *Host) DeleteString(s entities.HostString) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.strings, s)
}

// Logcat returns the captured log lines in emission order.
func (h *Host) Logcat() []LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]LogEntry(nil), h.logcat...)
}

// Stats returns a snapshot of the host counters.
func (h *Host) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.stats
	s.LiveStrings = len(h.strings)
	return s
}

// Ledger returns the ledger recording borrowed string views.
func (h *Host) Ledger() *abi.Ledger {
	return h.ledger
}

func (h *Host) store(b []byte) entities.HostString {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextRef += 8
	ref := entities.HostString(h.nextRef)
	h.strings[ref] = b
	return ref
}

func (h *Host) lookup(s entities.HostString) ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.strings[s]
	return b, ok
}

func (h *Host) count(f func(*Stats)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f(&h.stats)
}

func (h *Host) emit(e LogEntry) error {
	if h.opts.logErr != nil {
		return &errors.HostCallError{Operation: "log", Exception: true, Err: h.opts.logErr}
	}

	h.mu.Lock()
	h.logcat = append(h.logcat, e)
	h.mu.Unlock()

	if ce := h.opts.sink.Check(zapLevel(e.Priority), e.Message); ce != nil {
		ce.Write(zap.String("tag", e.Tag), zap.Stringer("priority", e.Priority))
	}
	return nil
}

type enumerator struct {
	host *Host
}

// GetCreatedVMs implements ports.VMEnumerator.
func (e enumerator) GetCreatedVMs(max int) ([]ports.VM, int, int32) {
	e.host.count(func(s *Stats) { s.Enumerations++ })

	if e.host.opts.enumStatus != entities.StatusOK {
		return nil, 0, e.host.opts.enumStatus
	}

	n := min(max, len(e.host.vms))
	vms := make([]ports.VM, 0, n)
	for _, vm := range e.host.vms[:n] {
		vms = append(vms, vm)
	}
	return vms, len(e.host.vms), entities.StatusOK
}

// VM is a simulated VM instance.
type VM struct {
	host *Host
	id   int
}

// AttachCurrentThread implements ports.VM.
func (v *VM) AttachCurrentThread() (ports.Env, bool, error) {
	if status := v.host.opts.attachStatus; status != entities.StatusOK {
		return nil, false, &errors.HostCallError{Operation: "attach_current_thread", Status: status}
	}
	attached := !v.host.opts.threadAttached
	if attached {
		v.host.count(func(s *Stats) { s.Attaches++ })
	}
	return &Env{host: v.host}, attached, nil
}

// DetachCurrentThread implements ports.VM.
func (v *VM) DetachCurrentThread() error {
	v.host.count(func(s *Stats) { s.Detaches++ })
	return nil
}
