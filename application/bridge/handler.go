package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/greetings-dev/greetings-bridge/application/locator"
	"github.com/greetings-dev/greetings-bridge/domain/entities"
	"github.com/greetings-dev/greetings-bridge/domain/errors"
	"github.com/greetings-dev/greetings-bridge/domain/ports"
	"github.com/greetings-dev/greetings-bridge/internal/mutf8"
	hostlog "github.com/greetings-dev/greetings-bridge/log"
)

// Handler serves greeting calls. It holds no per-call state and is safe for
// concurrent use by calls arriving on different threads.
type Handler struct {
	locator *locator.Locator
	logger  *slog.Logger
	cfg     entities.BridgeConfig
}

// Option configures a Handler.
type Option func(*Handler)

// WithConfig sets the bridge configuration. The config is assumed valid.
func WithConfig(cfg entities.BridgeConfig) Option {
	return func(h *Handler) {
		h.cfg = cfg
	}
}

// WithLocator replaces the locator built from the resolver and config.
func WithLocator(l *locator.Locator) Option {
	return func(h *Handler) {
		h.locator = l
	}
}

// WithLogger sets the native-side diagnostic logger. It never receives the
// per-call host log line.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a Handler locating the host VM through resolver.
func NewHandler(resolver ports.SymbolResolver, opts ...Option) *Handler {
	h := &Handler{
		cfg:    entities.DefaultBridgeConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.locator == nil {
		h.locator = locator.New(resolver,
			locator.WithSymbol(h.cfg.Symbol),
			locator.WithDetachPolicy(h.cfg.Detach),
			locator.WithLogger(h.logger),
		)
	}
	return h
}

// Config returns the configuration the handler runs with.
func (h *Handler) Config() entities.BridgeConfig {
	return h.cfg
}

// HandleCall greets the text held by input and returns the greeting as a new
// host string created on callEnv, the environment the host passed with the
// call. Ownership of the result passes to the host.
//
// The returned error is non-nil only for invariant violations (a
// *errors.ConversionFault or a recovered *errors.PanicError); the result is
// then null.
func (h *Handler) HandleCall(callEnv ports.Env, input entities.HostString) (result entities.HostString, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = entities.NullHostString
			err = &errors.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	target := h.readTarget(callEnv, input)

	att, err := h.locator.Locate()
	if err != nil {
		h.logger.Warn("host VM unavailable, returning failure placeholder", "error", err)
		return h.newString(callEnv, h.cfg.FailurePlaceholder)
	}
	defer func() {
		_ = att.Release()
	}()

	greeting := Greeting(h.cfg.Prefix, target)
	h.logToHost(att.Env, greeting)

	return h.newString(callEnv, greeting)
}

// Greeting builds the result text for target.
func Greeting(prefix, target string) string {
	return prefix + target
}

// readTarget decodes input, substituting the fallback target for a null
// reference or text that is not valid modified UTF-8.
func (h *Handler) readTarget(env ports.Env, input entities.HostString) string {
	view, err := env.ReadString(input)
	if err != nil {
		h.logger.Debug("input string unreadable, using fallback target", "error", err)
		return h.cfg.FallbackTarget
	}
	defer view.Release()

	text, err := mutf8.Decode(view.Bytes())
	if err != nil {
		h.logger.Debug("input is not valid text, using fallback target", "error", err)
		return h.cfg.FallbackTarget
	}
	return text
}

// logToHost emits the call's single diagnostic line. Failures are absorbed.
func (h *Handler) logToHost(env ports.Env, msg string) {
	hl, err := env.Logger(h.cfg.Tag)
	if err != nil {
		h.logger.Warn("host logging unavailable", "error", err)
		return
	}
	defer func() {
		if err := hl.Close(); err != nil {
			h.logger.Debug("closing host logger failed", "error", err)
		}
	}()

	// Handle is called directly: slog.Logger methods discard handler errors.
	handler := hostlog.NewHandler(hl, hostlog.WithLevel(slog.LevelDebug))
	record := slog.NewRecord(time.Now(), slog.LevelDebug, msg, 0)
	if err := handler.Handle(context.Background(), record); err != nil {
		h.logger.Warn("host log call failed", "error", err)
	}
}

func (h *Handler) newString(env ports.Env, text string) (entities.HostString, error) {
	s, err := env.NewString(text)
	if err != nil {
		return entities.NullHostString, &errors.ConversionFault{Operation: "new_string", Err: err}
	}
	if s.IsNull() {
		return entities.NullHostString, &errors.ConversionFault{Operation: "new_string", Err: fmt.Errorf("host returned a null string")}
	}
	return s, nil
}
