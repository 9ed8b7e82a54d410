package hostsim

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/greetings-dev/greetings-bridge/domain/entities"
	"github.com/greetings-dev/greetings-bridge/domain/errors"
	"github.com/greetings-dev/greetings-bridge/domain/ports"
	"github.com/greetings-dev/greetings-bridge/internal/abi"
	"github.com/greetings-dev/greetings-bridge/internal/mutf8"
)

var viewIDs atomic.Uintptr

// Env is a simulated per-thread environment.
type Env struct {
	host *Host
}

// ReadString implements ports.Env. The view holds a private NUL-terminated
// copy of the text, recorded in the host ledger until released.
func (e *Env) ReadString(s entities.HostString) (ports.StringView, error) {
	if s.IsNull() {
		return nil, &errors.HostCallError{Operation: "get_string_utf_chars", Err: fmt.Errorf("null string reference")}
	}
	b, ok := e.host.lookup(s)
	if !ok {
		return nil, &errors.HostCallError{Operation: "get_string_utf_chars", Err: fmt.Errorf("stale string reference %#x", uintptr(s))}
	}

	buf := make([]byte, len(b)+1)
	copy(buf, b)

	id := viewIDs.Add(1)
	_ = e.host.ledger.Track(id, len(buf), abi.View)
	return &view{data: buf[:len(b)], id: id, ledger: e.host.ledger}, nil
}

// NewString implements ports.Env.
func (e *Env) NewString(text string) (entities.HostString, error) {
	if e.host.opts.newStringErr != nil {
		return entities.NullHostString, &errors.HostCallError{Operation: "new_string_utf", Err: e.host.opts.newStringErr}
	}
	return e.host.store(mutf8.Encode(text)), nil
}

// Logger implements ports.Env.
func (e *Env) Logger(tag string) (ports.HostLogger, error) {
	if e.host.opts.loggerErr != nil {
		return nil, &errors.HostCallError{Operation: "find_log_sink", Err: e.host.opts.loggerErr}
	}
	return &logger{host: e.host, tag: tag}, nil
}

type view struct {
	ledger *abi.Ledger
	data   []byte
	id     uintptr
	once   sync.Once
	done   atomic.Bool
}

func (v *view) Bytes() []byte {
	if v.done.Load() {
		panic("hostsim: string view used after release")
	}
	return v.data
}

func (v *view) Release() {
	v.once.Do(func() {
		v.done.Store(true)
		v.ledger.Untrack(v.id)
		v.data = nil
	})
}

type logger struct {
	host *Host
	tag  string
}

func (l *logger) Log(p entities.Priority, msg string) error {
	return l.host.emit(LogEntry{Priority: p, Tag: l.tag, Message: msg})
}

func (l *logger) Close() error {
	return nil
}
