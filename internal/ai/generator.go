package ai

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/models"
)

// ModelResolver resolves and invalidates the cached generation model.
type ModelResolver interface {
	Resolve(ctx context.Context) (string, error)
	Invalidate(model string)
}

// Generator drafts legal text from a citizen's description.
type Generator struct {
	provider Provider
	resolver ModelResolver
	logger   *slog.Logger
}

func NewGenerator(provider Provider, resolver ModelResolver, logger *slog.Logger) *Generator {
	return &Generator{
		provider: provider,
		resolver: resolver,
		logger:   logger,
	}
}

// Generate returns the drafted text for category and description.
//
// When the provider reports the resolved model as unavailable, the model is re-resolved and the call retried once.
// Failures are reported as ErrGenerationFailed except ErrNoUsableModel, which is passed through.
func (g *Generator) Generate(ctx context.Context, category models.Category, description string) (string, error) {
	prompt, err := BuildPrompt(category, description)
	if err != nil {
		return "", errors.Wrap(err, "build prompt")
	}

	const attempts = 2
	for attempt := 1; ; attempt++ {
		var model string
		if model, err = g.resolver.Resolve(ctx); err != nil {
			if errors.Is(err, ErrNoUsableModel) {
				return "", errors.Wrap(err, "resolve model")
			}
			return "", errors.Wrap(errors.Join(ErrGenerationFailed, err), "resolve model")
		}

		start := time.Now()
		var text string
		text, err = g.provider.GenerateContent(ctx, model, prompt)
		if err == nil {
			text = strings.TrimSpace(text)
			if text == "" {
				return "", errors.Wrap(ErrGenerationFailed, "empty response", slog.String("model", model))
			}
			g.logger.LogAttrs(ctx, slog.LevelInfo, "generated draft",
				slog.String("model", model),
				slog.String("category", string(category)),
				slog.Duration("duration", time.Since(start)),
				slog.Int("length", len(text)))
			return text, nil
		}

		if errors.Is(err, ErrModelUnavailable) {
			g.resolver.Invalidate(model)
			if attempt < attempts {
				g.logger.LogAttrs(ctx, slog.LevelWarn, "model unavailable, resolving again",
					slog.String("model", model), errors.SlogError(err))
				continue
			}
		}
		return "", errors.Wrap(errors.Join(ErrGenerationFailed, err), "generate content",
			slog.String("model", model), slog.Int("attempt", attempt))
	}
}
