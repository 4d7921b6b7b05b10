package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fake(name string, ready bool) *Func {
	return &Func{ID: name, Ready: ready}
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(fake("gemini", true)))
	require.NoError(t, r.Register(fake("claude", false)))

	p, err := r.Lookup("gemini")
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())

	_, err = r.Lookup("missing")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	assert.Error(t, r.Register(fake("gemini", true)), "duplicate name")
	assert.Error(t, r.Register(nil))

	assert.Equal(t, []string{"claude", "gemini"}, r.Names())
	assert.Equal(t, map[string]bool{"gemini": true, "claude": false}, r.Availability())
}

func TestRegistryChainPreservesOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, r.Register(fake(name, true)))
	}

	chain, err := r.Chain([]string{"c", "a"})
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "c", chain[0].Name())
	assert.Equal(t, "a", chain[1].Name())

	_, err = r.Chain([]string{"a", "zzz"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestFuncWithoutCredential(t *testing.T) {
	_, err := fake("x", false).Call(context.Background(), "p", CallOptions{})
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestTransportErrorUnwraps(t *testing.T) {
	err := &TransportError{Provider: "gemini", Status: 503, Err: context.DeadlineExceeded}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "status 503")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	upstream := &Func{
		ID:    "flaky",
		Ready: true,
		Responder: func(ctx context.Context, prompt string, opts CallOptions) (string, error) {
			calls++
			return "", errors.New("connection refused")
		},
	}
	guarded := WithBreaker(upstream, BreakerSettings{MaxFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := guarded.Call(context.Background(), "p", CallOptions{})
		require.Error(t, err)
	}
	require.Equal(t, 2, calls)

	_, err := guarded.Call(context.Background(), "p", CallOptions{})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "flaky", te.Provider)
	assert.Equal(t, 2, calls, "open circuit must not reach upstream")
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	upstream := &Func{
		ID:    "ok",
		Ready: true,
		Responder: func(ctx context.Context, prompt string, opts CallOptions) (string, error) {
			return "echo:" + prompt, nil
		},
	}
	guarded := WithBreaker(upstream, BreakerSettings{MaxFailures: 1, OpenTimeout: time.Minute})

	out, err := guarded.Call(context.Background(), "hi", CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", out)
	assert.True(t, guarded.Available())
	assert.Equal(t, "ok", guarded.Name())
}

func TestBreakerDisabled(t *testing.T) {
	p := fake("plain", true)
	assert.Same(t, Provider(p), WithBreaker(p, BreakerSettings{}))
}
