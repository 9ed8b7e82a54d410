package hostsim

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/greetings-dev/greetings-bridge/domain/entities"
	"github.com/greetings-dev/greetings-bridge/internal/abi"
)

type options struct {
	sink           *zap.Logger
	ledger         *abi.Ledger
	logErr         error
	loggerErr      error
	newStringErr   error
	vmCount        int
	enumStatus     int32
	attachStatus   int32
	symbolMissing  bool
	threadAttached bool
}

func defaultOptions() options {
	return options{
		sink:    zap.NewNop(),
		vmCount: 1,
	}
}

// Option configures a simulated Host.
type Option func(*options)

// WithoutSymbol removes the created-VMs entry point from the process.
func WithoutSymbol() Option {
	return func(o *options) {
		o.symbolMissing = true
	}
}

// WithEnumerateStatus makes the created-VMs entry point return status.
func WithEnumerateStatus(status int32) Option {
	return func(o *options) {
		o.enumStatus = status
	}
}

// WithVMCount sets how many VMs exist in the process.
func WithVMCount(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.vmCount = n
		}
	}
}

// WithAttachFailure makes AttachCurrentThread fail with status.
func WithAttachFailure(status int32) Option {
	return func(o *options) {
		o.attachStatus = status
	}
}

// WithThreadAttached simulates calls arriving on threads the host already
// attached, so AttachCurrentThread performs no new attach.
func WithThreadAttached(attached bool) Option {
	return func(o *options) {
		o.threadAttached = attached
	}
}

// WithLogFailure makes every log call raise a host exception wrapping err.
func WithLogFailure(err error) Option {
	return func(o *options) {
		o.logErr = err
	}
}

// WithLoggerFailure makes acquiring the logging capability fail.
func WithLoggerFailure(err error) Option {
	return func(o *options) {
		o.loggerErr = err
	}
}

// WithNewStringFailure makes creating host strings fail.
func WithNewStringFailure(err error) Option {
	return func(o *options) {
		o.newStringErr = err
	}
}

// WithLogSink mirrors every captured log line to logger.
func WithLogSink(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.sink = logger
		}
	}
}

// WithLedger records string views in l instead of a private ledger.
func WithLedger(l *abi.Ledger) Option {
	return func(o *options) {
		o.ledger = l
	}
}

func zapLevel(p entities.Priority) zapcore.Level {
	switch {
	case p <= entities.PriorityDebug:
		return zapcore.DebugLevel
	case p == entities.PriorityInfo:
		return zapcore.InfoLevel
	case p == entities.PriorityWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
