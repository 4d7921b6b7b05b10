package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownProvider indicates the requested provider is not registered.
var ErrUnknownProvider = errors.New("unknown provider")

// ErrMissingCredential indicates the provider has no API key configured.
var ErrMissingCredential = errors.New("missing credential")

// Kind describes what sort of prompt a provider understands.
type Kind int

const (
	// KindLLM providers take free-form instructions and return generated text.
	KindLLM Kind = iota
	// KindTranslator providers take source text and return a translation.
	KindTranslator
)

func (k Kind) String() string {
	switch k {
	case KindLLM:
		return "llm"
	case KindTranslator:
		return "translator"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// CallOptions tune a single provider call. Providers ignore options they do
// not support.
type CallOptions struct {
	Temperature *float64
	MaxTokens   int
	JSON        bool
	SourceLang  string
	TargetLang  string
}

// Provider is a single upstream model or translation API.
type Provider interface {
	Name() string
	Kind() Kind
	// Available reports whether the credentials needed to call the provider
	// are configured.
	Available() bool
	// Call sends prompt upstream and returns the raw response text. An empty
	// string means the upstream answered without usable output.
	Call(ctx context.Context, prompt string, opts CallOptions) (string, error)
}

// TransportError wraps a failed upstream round trip: network errors,
// timeouts, non-2xx statuses and open circuits.
type TransportError struct {
	Provider string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Registry maintains a mapping of provider names to providers.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Provider
}

// NewRegistry constructs an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Provider),
	}
}

// Register adds the provider under its name.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return errors.New("provider must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[p.Name()]; exists {
		return fmt.Errorf("provider %q already registered", p.Name())
	}
	r.byName[p.Name()] = p
	return nil
}

// Lookup returns the provider registered under name.
func (r *Registry) Lookup(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// Chain resolves names into providers, preserving order.
func (r *Registry) Chain(names []string) ([]Provider, error) {
	out := make([]Provider, 0, len(names))
	for _, name := range names {
		p, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Names lists registered providers in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Availability reports, per provider, whether its credentials are configured.
func (r *Registry) Availability() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(r.byName))
	for name, p := range r.byName {
		out[name] = p.Available()
	}
	return out
}
