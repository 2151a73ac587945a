package run

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gonkalabs/gonka-mask-go/internal/config"
	"github.com/gonkalabs/gonka-mask-go/internal/sanitize"
	"github.com/gonkalabs/gonka-mask-go/internal/sanitize/llmclassifier"
	"github.com/gonkalabs/gonka-mask-go/internal/sanitize/ner"
)

// backend is a semantic Classifier that can be checked before use.
type backend interface {
	sanitize.Classifier
	Probe(ctx context.Context) error
}

// ResolveDetector performs the one start-up capability check and returns the
// detector used for the whole run. It never fails: an unreachable backend
// yields an unavailable detector carrying the reason.
func ResolveDetector(ctx context.Context, cfg *config.Cfg, rules sanitize.Rules) sanitize.EntityDetector {
	var b backend
	switch cfg.Semantic {
	case config.SemanticNER:
		b = ner.New(cfg.NERURL)
	case config.SemanticLLM:
		b = llmclassifier.New(cfg.LLMURL, cfg.LLMModel)
	default:
		return sanitize.NewUnavailable(fmt.Errorf("%w: disabled by configuration", sanitize.ErrCapabilityUnavailable))
	}
	return probe(ctx, cfg, b, rules)
}

func probe(ctx context.Context, cfg *config.Cfg, b backend, rules sanitize.Rules) sanitize.EntityDetector {
	ctx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
	defer cancel()

	if err := b.Probe(ctx); err != nil {
		slog.Warn("run: semantic backend not available", "backend", cfg.Semantic, "err", err)
		return sanitize.NewUnavailable(fmt.Errorf("%w: %w", sanitize.ErrCapabilityUnavailable, err))
	}
	slog.Info("run: semantic backend ready", "backend", cfg.Semantic)
	return sanitize.NewAvailable(b, rules.EntityLabels)
}
