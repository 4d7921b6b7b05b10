// Package pipeline runs an operation against an ordered chain of providers,
// accepting the first response that decodes and validates, and falling back
// to a deterministic placeholder when none does.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kotoba-gateway/internal/decode"
	"kotoba-gateway/internal/models"
	"kotoba-gateway/internal/provider"
)

var (
	// ErrNoInput is returned by Run when the input fails the operation's
	// precondition. It is the only error Run returns.
	ErrNoInput = errors.New("no input provided")
	// ErrDecode marks a provider response that is not JSON.
	ErrDecode = errors.New("response is not valid JSON")
	// ErrValidation marks a decoded response with the wrong shape.
	ErrValidation = errors.New("response failed validation")
	// ErrUnsupported marks a provider whose kind the operation cannot prompt.
	ErrUnsupported = errors.New("provider cannot serve this operation")
)

// DefaultCallTimeout bounds a provider call when Settings leaves it zero.
const DefaultCallTimeout = 20 * time.Second

// Stage names where a provider attempt ended.
type Stage string

const (
	StageUnavailable Stage = "unavailable"
	StageUnsupported Stage = "unsupported"
	StageTransport   Stage = "transport"
	StageDecode      Stage = "decode"
	StageValidate    Stage = "validate"
	StageOK          Stage = "ok"
)

// Attempt records the outcome of trying one provider.
type Attempt struct {
	Provider string
	Stage    Stage
	Err      error
}

// Result carries the shaped value and the provider that produced it, or
// models.ProviderFallback for a placeholder.
type Result[Out any] struct {
	Value    Out
	Provider string
	Attempts []Attempt
}

// Operation describes one logical operation: how to check its input, prompt
// each kind of provider, validate what comes back and build a placeholder.
type Operation[In, Out any] struct {
	Name string
	// Check rejects unusable input; a nil Check accepts everything.
	Check func(in In) error
	// Prompt builds the prompt for a provider kind; ok is false when the kind
	// cannot serve the operation.
	Prompt      func(kind provider.Kind, in In) (prompt string, ok bool)
	Options     provider.CallOptions
	Validate    func(payload any, in In) (Out, error)
	Placeholder func(in In) Out
}

// Settings tune a Pipeline.
type Settings struct {
	CallTimeout time.Duration
	Logger      *slog.Logger
}

// Pipeline runs one Operation over a fixed provider order. It holds no
// mutable state and is safe for concurrent use.
type Pipeline[In, Out any] struct {
	op        Operation[In, Out]
	providers []provider.Provider
	timeout   time.Duration
	logger    *slog.Logger
}

// New constructs a pipeline. providers are tried in the given order.
func New[In, Out any](op Operation[In, Out], providers []provider.Provider, s Settings) (*Pipeline[In, Out], error) {
	if op.Prompt == nil || op.Validate == nil || op.Placeholder == nil {
		return nil, fmt.Errorf("operation %q: prompt, validate and placeholder are required", op.Name)
	}
	for i, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("operation %q: provider %d is nil", op.Name, i)
		}
	}

	timeout := s.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	chain := make([]provider.Provider, len(providers))
	copy(chain, providers)

	return &Pipeline[In, Out]{
		op:        op,
		providers: chain,
		timeout:   timeout,
		logger:    logger.With("operation", op.Name),
	}, nil
}

// Providers returns the names of the configured providers, in order.
func (p *Pipeline[In, Out]) Providers() []string {
	names := make([]string, 0, len(p.providers))
	for _, prov := range p.providers {
		names = append(names, prov.Name())
	}
	return names
}

// Run executes the operation. Providers are tried strictly one after
// another; the first validated response wins and later providers are not
// called. When every provider is skipped or fails, the placeholder is
// returned tagged models.ProviderFallback. The only error is ErrNoInput.
func (p *Pipeline[In, Out]) Run(ctx context.Context, in In) (Result[Out], error) {
	if p.op.Check != nil {
		if err := p.op.Check(in); err != nil {
			return Result[Out]{}, err
		}
	}

	attempts := make([]Attempt, 0, len(p.providers))
	record := func(name string, stage Stage, err error) {
		attempts = append(attempts, Attempt{Provider: name, Stage: stage, Err: err})
		switch stage {
		case StageUnavailable, StageUnsupported:
			p.logger.Debug("provider skipped", "provider", name, "stage", stage)
		default:
			p.logger.Warn("provider attempt failed", "provider", name, "stage", stage, "err", err)
		}
	}

	for _, prov := range p.providers {
		name := prov.Name()

		if !prov.Available() {
			record(name, StageUnavailable, provider.ErrMissingCredential)
			continue
		}
		prompt, ok := p.op.Prompt(prov.Kind(), in)
		if !ok {
			record(name, StageUnsupported, ErrUnsupported)
			continue
		}
		if err := ctx.Err(); err != nil {
			p.logger.Warn("request context done, skipping remaining providers", "err", err)
			break
		}

		raw, err := p.call(ctx, prov, prompt)
		if err != nil {
			if errors.Is(err, provider.ErrMissingCredential) {
				record(name, StageUnavailable, err)
			} else {
				record(name, StageTransport, err)
			}
			continue
		}

		payload, ok := decode.Decode(raw)
		if !ok {
			record(name, StageDecode, ErrDecode)
			continue
		}

		out, err := p.op.Validate(payload, in)
		if err != nil {
			record(name, StageValidate, err)
			continue
		}

		attempts = append(attempts, Attempt{Provider: name, Stage: StageOK})
		p.logger.Debug("provider succeeded", "provider", name)
		return Result[Out]{Value: out, Provider: name, Attempts: attempts}, nil
	}

	p.logger.Warn("all providers failed, serving placeholder", "attempts", len(attempts))
	return Result[Out]{
		Value:    p.op.Placeholder(in),
		Provider: models.ProviderFallback,
		Attempts: attempts,
	}, nil
}

type callResult struct {
	text string
	err  error
}

// call invokes prov with a bounded deadline. The deadline holds even for a
// provider that ignores its context.
func (p *Pipeline[In, Out]) call(ctx context.Context, prov provider.Provider, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		text, err := prov.Call(callCtx, prompt, p.op.Options)
		done <- callResult{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && callCtx.Err() != nil {
			var te *provider.TransportError
			if !errors.As(res.err, &te) {
				return "", &provider.TransportError{Provider: prov.Name(), Err: fmt.Errorf("%w: %v", callCtx.Err(), res.err)}
			}
		}
		return res.text, res.err
	case <-callCtx.Done():
		return "", &provider.TransportError{Provider: prov.Name(), Err: callCtx.Err()}
	}
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
