package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettings configures the circuit placed in front of a provider.
type BreakerSettings struct {
	// MaxFailures consecutive transport failures open the circuit.
	MaxFailures uint32
	// OpenTimeout is how long the circuit stays open before a probe call.
	OpenTimeout time.Duration
}

type breakerProvider struct {
	Provider
	cb *gobreaker.CircuitBreaker
}

// WithBreaker guards p with a circuit breaker. While the circuit is open,
// Call fails fast with a TransportError instead of reaching the upstream.
// A zero MaxFailures returns p unchanged.
func WithBreaker(p Provider, s BreakerSettings) Provider {
	if p == nil || s.MaxFailures == 0 {
		return p
	}

	maxFailures := s.MaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMissingCredential) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("provider circuit state changed", "provider", name, "from", from.String(), "to", to.String())
		},
	})

	return &breakerProvider{Provider: p, cb: cb}
}

func (b *breakerProvider) Call(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.Provider.Call(ctx, prompt, opts)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &TransportError{Provider: b.Name(), Err: err}
		}
		return "", err
	}
	text, _ := out.(string)
	return text, nil
}
