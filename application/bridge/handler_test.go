package bridge

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/greetings-dev/greetings-bridge/application/config"
	"github.com/greetings-dev/greetings-bridge/domain/entities"
	domainerrors "github.com/greetings-dev/greetings-bridge/domain/errors"
	"github.com/greetings-dev/greetings-bridge/domain/ports"
	"github.com/greetings-dev/greetings-bridge/infrastructure/hostsim"
	"github.com/greetings-dev/greetings-bridge/internal/abi"
	"github.com/greetings-dev/greetings-bridge/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// call runs one invocation the way the host would and decodes the result.
func call(t *testing.T, h *Handler, host *hostsim.Host, input entities.HostString) string {
	t.Helper()

	out, err := h.HandleCall(host.Env(), input)
	require.NoError(t, err)
	require.False(t, out.IsNull(), "a string input always yields a string result")

	text, err := host.Text(out)
	require.NoError(t, err)
	return text
}

func TestHandleCall_Greets(t *testing.T) {
	host := hostsim.New()
	h := NewHandler(host)

	got := call(t, h, host, host.NewString("world"))
	assert.Equal(t, "Hello world", got)

	logcat := host.Logcat()
	require.Len(t, logcat, 1, "exactly one diagnostic line per call")
	assert.Equal(t, entities.PriorityDebug, logcat[0].Priority)
	assert.Equal(t, "NativeGreetings", logcat[0].Tag)
	assert.Equal(t, "Hello world", logcat[0].Message)
}

func TestHandleCall_ValidText(t *testing.T) {
	for _, input := range []string{"", "A", "Grüße", "日本語", "😀", "nul\x00inside", "  spaced  "} {
		t.Run(input, func(t *testing.T) {
			host := hostsim.New()
			h := NewHandler(host)

			assert.Equal(t, "Hello "+input, call(t, h, host, host.NewString(input)))
			require.Len(t, host.Logcat(), 1)
			assert.Equal(t, "Hello "+input, host.Logcat()[0].Message)
		})
	}
}

func TestHandleCall_InvalidTextUsesFallback(t *testing.T) {
	inputs := map[string][]byte{
		"unpaired surrogate": {'h', 'i', 0xED, 0xA0, 0xBD},
		"four byte form":     {0xF0, 0x9F, 0x98, 0x80},
		"lone continuation":  {0x80, 'x'},
		"raw nul":            {'a', 0x00, 'b'},
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			host := hostsim.New()
			h := NewHandler(host)

			first := call(t, h, host, host.NewRawString(raw))
			second := call(t, h, host, host.NewRawString(raw))

			assert.Equal(t, "Hello there", first)
			assert.Equal(t, first, second, "fallback output is deterministic")

			logcat := host.Logcat()
			require.Len(t, logcat, 2)
			assert.Equal(t, "Hello there", logcat[0].Message)
		})
	}
}

func TestHandleCall_NullInputUsesFallback(t *testing.T) {
	host := hostsim.New()
	h := NewHandler(host)

	assert.Equal(t, "Hello there", call(t, h, host, entities.NullHostString))
}

func TestHandleCall_LocatorFailuresReturnPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		host *hostsim.Host
	}{
		{name: "symbol not found", host: hostsim.New(hostsim.WithoutSymbol())},
		{name: "call failed", host: hostsim.New(hostsim.WithEnumerateStatus(entities.StatusErr))},
		{name: "no vm found", host: hostsim.New(hostsim.WithVMCount(0))},
		{name: "attach failed", host: hostsim.New(hostsim.WithAttachFailure(entities.StatusNoMemory))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.host)

			got := call(t, h, tt.host, tt.host.NewString("world"))
			assert.Equal(t, "Error in native greeting", got)
			assert.NotEmpty(t, got)
			assert.Empty(t, tt.host.Logcat(), "no host logging without an attached VM")
		})
	}
}

func TestHandleCall_Idempotent(t *testing.T) {
	host := hostsim.New()
	h := NewHandler(host)

	first := call(t, h, host, host.NewString("world"))
	second := call(t, h, host, host.NewString("world"))

	assert.Equal(t, first, second)
	assert.Len(t, host.Logcat(), 2)
}

func TestHandleCall_Concurrent(t *testing.T) {
	host := hostsim.New()
	h := NewHandler(host)

	inputs := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	results := make([]string, len(inputs)*8)

	var g errgroup.Group
	for i := range results {
		i := i
		input := inputs[i%len(inputs)]
		g.Go(func() error {
			out, err := h.HandleCall(host.Env(), host.NewString(input))
			if err != nil {
				return err
			}
			text, err := host.Text(out)
			if err != nil {
				return err
			}
			results[i] = text
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i, got := range results {
		assert.Equal(t, "Hello "+inputs[i%len(inputs)], got)
	}
	assert.Len(t, host.Logcat(), len(results))
}

func TestHandleCall_ReleasesViews(t *testing.T) {
	ledger := abi.NewLedger()
	host := hostsim.New(hostsim.WithLedger(ledger))
	h := NewHandler(host)

	call(t, h, host, host.NewString("world"))
	call(t, h, host, host.NewRawString([]byte{0xFF}))

	testutil.AssertLedgerEmpty(t, ledger, "every borrowed view is released")
}

func TestHandleCall_LargeInput(t *testing.T) {
	input := strings.Repeat("a", 8<<20)
	host := hostsim.New(hostsim.WithLedger(abi.NewLedger(abi.WithMaxTotalAllocations(1024))))
	h := NewHandler(host)

	got := call(t, h, host, host.NewString(input))
	assert.Equal(t, len("Hello ")+len(input), len(got))
	assert.True(t, strings.HasPrefix(got, "Hello aaa"))
}

func TestHandleCall_UnaffectedByViewsHeldElsewhere(t *testing.T) {
	ledger := abi.NewLedger(abi.WithMaxTotalAllocations(64))
	host := hostsim.New(hostsim.WithLedger(ledger))
	h := NewHandler(host)
	input := strings.Repeat("b", 40)

	assert.Equal(t, "Hello "+input, call(t, h, host, host.NewString(input)))

	// A call on another thread still holds its view of the same text.
	held, err := host.Env().ReadString(host.NewString(input))
	require.NoError(t, err)

	assert.Equal(t, "Hello "+input, call(t, h, host, host.NewString(input)))

	held.Release()
	testutil.AssertLedgerEmpty(t, ledger)
}

func TestHandleCall_LogFailuresAreAbsorbed(t *testing.T) {
	tests := []struct {
		name string
		host *hostsim.Host
	}{
		{name: "log call raises", host: hostsim.New(hostsim.WithLogFailure(errors.New("IllegalArgumentException")))},
		{name: "log sink missing", host: hostsim.New(hostsim.WithLoggerFailure(errors.New("NoClassDefFoundError")))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.host)

			assert.Equal(t, "Hello world", call(t, h, tt.host, tt.host.NewString("world")))
			assert.Empty(t, tt.host.Logcat())
		})
	}
}

func TestHandleCall_ConversionFault(t *testing.T) {
	host := hostsim.New(hostsim.WithNewStringFailure(errors.New("OutOfMemoryError")))
	h := NewHandler(host)

	out, err := h.HandleCall(host.Env(), host.NewString("world"))
	require.Error(t, err)
	assert.True(t, out.IsNull())

	var fault *domainerrors.ConversionFault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, "new_string", fault.Operation)
	assert.False(t, domainerrors.IsRecoverable(err))
}

func TestHandleCall_RecoversPanics(t *testing.T) {
	host := hostsim.New()
	h := NewHandler(host)

	out, err := h.HandleCall(panickingEnv{Env: host.Env()}, host.NewString("world"))
	require.Error(t, err)
	assert.True(t, out.IsNull())

	var pe *domainerrors.PanicError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Error(), "view exploded")
	assert.NotEmpty(t, pe.Stack)
}

func TestHandleCall_Config(t *testing.T) {
	host := hostsim.New()
	cfg := config.New(
		config.WithPrefix("Hi "),
		config.WithFallbackTarget("friend"),
		config.WithTag("Greeter"),
	)
	require.NoError(t, config.Validate(cfg))
	h := NewHandler(host, WithConfig(cfg))

	assert.Equal(t, "Hi you", call(t, h, host, host.NewString("you")))
	assert.Equal(t, "Hi friend", call(t, h, host, host.NewRawString([]byte{0xC0})))
	assert.Equal(t, "Greeter", host.Logcat()[0].Tag)
	assert.Equal(t, cfg, h.Config())
}

func TestHandleCall_DetachAfterCall(t *testing.T) {
	host := hostsim.New()
	h := NewHandler(host, WithConfig(config.New(config.WithDetachPolicy(entities.DetachAfterCall))))

	call(t, h, host, host.NewString("a"))
	call(t, h, host, host.NewString("b"))

	stats := host.Stats()
	assert.Equal(t, 2, stats.Attaches)
	assert.Equal(t, 2, stats.Detaches)
}

func TestHandleCall_KeepsThreadsAttachedByDefault(t *testing.T) {
	host := hostsim.New()
	h := NewHandler(host)

	call(t, h, host, host.NewString("a"))

	assert.Zero(t, host.Stats().Detaches)
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "Hello world", Greeting("Hello ", "world"))
	assert.Equal(t, "Hello ", Greeting("Hello ", ""))
}

type panickingEnv struct {
	ports.Env
}

func (panickingEnv) ReadString(entities.HostString) (ports.StringView, error) {
	panic(fmt.Errorf("view exploded"))
}
