package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kotoba-gateway/internal/config"
	"kotoba-gateway/internal/models"
	"kotoba-gateway/internal/pipeline"
	"kotoba-gateway/internal/provider"
)

// Router dispatches the three learner operations to their provider chains.
type Router struct {
	registry  *provider.Registry
	classify  *pipeline.Pipeline[pipeline.ClassifyInput, models.Classification]
	translate *pipeline.Pipeline[pipeline.TranslateInput, models.Translation]
	vocab     *pipeline.Pipeline[pipeline.VocabInput, models.VocabLookup]
}

// New constructs a router whose chains follow cfg.Routes, resolved against
// the registry.
func New(cfg config.Config, registry *provider.Registry, logger *slog.Logger) (*Router, error) {
	if registry == nil {
		return nil, errors.New("registry must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	settings := pipeline.Settings{
		CallTimeout: cfg.Pipeline.CallTimeout,
		Logger:      logger,
	}

	r := &Router{registry: registry}

	chain, err := registry.Chain(cfg.Routes.Classify)
	if err != nil {
		return nil, fmt.Errorf("classify route: %w", err)
	}
	if r.classify, err = pipeline.New(pipeline.ClassifyOperation(), chain, settings); err != nil {
		return nil, err
	}

	chain, err = registry.Chain(cfg.Routes.Translate)
	if err != nil {
		return nil, fmt.Errorf("translate route: %w", err)
	}
	translateOp := pipeline.TranslateOperation(cfg.Pipeline.SourceLang, cfg.Pipeline.TargetLang)
	if r.translate, err = pipeline.New(translateOp, chain, settings); err != nil {
		return nil, err
	}

	chain, err = registry.Chain(cfg.Routes.VocabLookup)
	if err != nil {
		return nil, fmt.Errorf("vocabLookup route: %w", err)
	}
	if r.vocab, err = pipeline.New(pipeline.VocabOperation(), chain, settings); err != nil {
		return nil, err
	}

	return r, nil
}

// Classify splits text into sentences and classifies each of them.
func (r *Router) Classify(ctx context.Context, text string) (models.Classification, error) {
	res, err := r.classify.Run(ctx, pipeline.NewClassifyInput(text))
	if err != nil {
		return models.Classification{}, err
	}
	out := res.Value
	out.Provider = res.Provider
	return out, nil
}

// Translate translates text into the target language.
func (r *Router) Translate(ctx context.Context, text string) (models.Translation, error) {
	res, err := r.translate.Run(ctx, pipeline.NewTranslateInput(text))
	if err != nil {
		return models.Translation{}, err
	}
	out := res.Value
	out.Provider = res.Provider
	return out, nil
}

// LookupVocab explains the vocabulary of a word or sentence.
func (r *Router) LookupVocab(ctx context.Context, input string) (models.VocabLookup, error) {
	res, err := r.vocab.Run(ctx, pipeline.NewVocabInput(input))
	if err != nil {
		return models.VocabLookup{}, err
	}
	out := res.Value
	out.Provider = res.Provider
	return out, nil
}

// Availability reports, per registered provider, whether it can be called.
func (r *Router) Availability() map[string]bool {
	return r.registry.Availability()
}

// Providers lists the registered provider names in sorted order.
func (r *Router) Providers() []string {
	return r.registry.Names()
}

// Routes returns the provider order of each operation.
func (r *Router) Routes() map[string][]string {
	return map[string][]string{
		"classify":    r.classify.Providers(),
		"translate":   r.translate.Providers(),
		"vocabLookup": r.vocab.Providers(),
	}
}
