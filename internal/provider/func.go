package provider

import "context"

// Func adapts a plain function into a Provider. It backs tests and local
// stand-ins.
type Func struct {
	ID        string
	Type      Kind
	Ready     bool
	Responder func(ctx context.Context, prompt string, opts CallOptions) (string, error)
}

func (f *Func) Name() string {
	return f.ID
}

func (f *Func) Kind() Kind {
	return f.Type
}

func (f *Func) Available() bool {
	return f.Ready
}

func (f *Func) Call(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	if !f.Ready {
		return "", ErrMissingCredential
	}
	if f.Responder == nil {
		return "", nil
	}
	return f.Responder(ctx, prompt, opts)
}
