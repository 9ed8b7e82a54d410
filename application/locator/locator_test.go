package locator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greetings-dev/greetings-bridge/domain/entities"
	domainerrors "github.com/greetings-dev/greetings-bridge/domain/errors"
	"github.com/greetings-dev/greetings-bridge/domain/ports"
	"github.com/greetings-dev/greetings-bridge/infrastructure/hostsim"
)

func TestLocate_Success(t *testing.T) {
	host := hostsim.New()

	att, err := New(host).Locate()
	require.NoError(t, err)
	require.NotNil(t, att)

	assert.NotNil(t, att.VM)
	assert.NotNil(t, att.Env)
	assert.True(t, att.AttachedHere())

	stats := host.Stats()
	assert.Equal(t, 1, stats.Enumerations)
	assert.Equal(t, 1, stats.Attaches)
}

func TestLocate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		host   *hostsim.Host
		opts   []Option
		want   error
		status int32
	}{
		{
			name: "symbol missing",
			host: hostsim.New(hostsim.WithoutSymbol()),
			want: domainerrors.ErrSymbolNotFound,
		},
		{
			name: "wrong symbol name",
			host: hostsim.New(),
			opts: []Option{WithSymbol("JNI_GetCreatedJavaVMs_missing")},
			want: domainerrors.ErrSymbolNotFound,
		},
		{
			name:   "enumeration status",
			host:   hostsim.New(hostsim.WithEnumerateStatus(entities.StatusErr)),
			want:   domainerrors.ErrCallFailed,
			status: entities.StatusErr,
		},
		{
			name: "no vm",
			host: hostsim.New(hostsim.WithVMCount(0)),
			want: domainerrors.ErrNoVMFound,
		},
		{
			name:   "attach failure",
			host:   hostsim.New(hostsim.WithAttachFailure(entities.StatusNoMemory)),
			want:   domainerrors.ErrAttachFailed,
			status: entities.StatusNoMemory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att, err := New(tt.host, tt.opts...).Locate()
			require.Error(t, err)
			assert.Nil(t, att)
			assert.ErrorIs(t, err, tt.want)

			var le *domainerrors.LocateError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tt.status, le.Status)
			assert.NotEmpty(t, le.Symbol)
		})
	}
}

func TestLocate_UsesFirstOfSeveralVMs(t *testing.T) {
	host := hostsim.New(hostsim.WithVMCount(3))
	enum := &recordingEnumerator{inner: mustResolve(t, host)}

	att, err := New(resolverFunc(func(string) (ports.VMEnumerator, error) { return enum, nil })).Locate()
	require.NoError(t, err)

	assert.Equal(t, []int{1}, enum.requested, "at most one handle is requested")
	assert.Same(t, enum.first, att.VM)
}

func TestLocate_NilEnumerator(t *testing.T) {
	_, err := New(resolverFunc(func(string) (ports.VMEnumerator, error) { return nil, nil })).Locate()
	assert.ErrorIs(t, err, domainerrors.ErrSymbolNotFound)
}

func TestRelease_DetachPolicy(t *testing.T) {
	tests := []struct {
		name           string
		policy         entities.DetachPolicy
		threadAttached bool
		wantDetaches   int
	}{
		{name: "never", policy: entities.DetachNever, wantDetaches: 0},
		{name: "after call on fresh thread", policy: entities.DetachAfterCall, wantDetaches: 1},
		{name: "after call on host thread", policy: entities.DetachAfterCall, threadAttached: true, wantDetaches: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := hostsim.New(hostsim.WithThreadAttached(tt.threadAttached))

			att, err := New(host, WithDetachPolicy(tt.policy)).Locate()
			require.NoError(t, err)

			require.NoError(t, att.Release())
			require.NoError(t, att.Release(), "release is idempotent")

			assert.Equal(t, tt.wantDetaches, host.Stats().Detaches)
		})
	}
}

func TestLocate_NoCachingBetweenCalls(t *testing.T) {
	host := hostsim.New()
	l := New(host)

	for i := 0; i < 3; i++ {
		att, err := l.Locate()
		require.NoError(t, err)
		require.NoError(t, att.Release())
	}

	assert.Equal(t, 3, host.Stats().Enumerations)
}

type resolverFunc func(string) (ports.VMEnumerator, error)

func (f resolverFunc) ResolveVMEnumerator(name string) (ports.VMEnumerator, error) {
	return f(name)
}

type recordingEnumerator struct {
	inner     ports.VMEnumerator
	first     ports.VM
	requested []int
}

func (r *recordingEnumerator) GetCreatedVMs(max int) ([]ports.VM, int, int32) {
	r.requested = append(r.requested, max)
	vms, total, status := r.inner.GetCreatedVMs(max)
	if len(vms) > 0 {
		r.first = vms[0]
	}
	return vms, total, status
}

func mustResolve(t *testing.T, host *hostsim.Host) ports.VMEnumerator {
	t.Helper()
	enum, err := host.ResolveVMEnumerator(entities.CreatedVMsSymbol)
	require.NoError(t, err)
	return enum
}
