package ai

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/justibot/justibot/internal/errors"
	"golang.org/x/sync/singleflight"
)

// SelectModel returns the first model in list order that can generate content.
func SelectModel(models []ModelInfo) (string, error) {
	for _, m := range models {
		if slices.Contains(m.Capabilities, CapabilityGenerateContent) {
			return m.Name, nil
		}
	}
	return "", errors.Wrap(ErrNoUsableModel, "select model", slog.Int("listed", len(models)))
}

const defaultLookupTimeout = 15 * time.Second

// Resolver finds a usable model and caches it for the lifetime of the process.
type Resolver struct {
	provider      Provider
	logger        *slog.Logger
	lookupTimeout time.Duration
	group         singleflight.Group

	mu    sync.RWMutex
	model string
}

func NewResolver(provider Provider, logger *slog.Logger) *Resolver {
	return &Resolver{ //nolint:exhaustruct // zero values are ready to use
		provider:      provider,
		logger:        logger,
		lookupTimeout: defaultLookupTimeout,
	}
}

// Resolve returns the cached model or asks the provider for one. Concurrent misses share a single lookup.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if model := r.cached(); model != "" {
		return model, nil
	}

	// The shared lookup must not be cancelled because the first caller gave up.
	ch := r.group.DoChan("resolve", func() (any, error) {
		if model := r.cached(); model != "" {
			return model, nil
		}
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.lookupTimeout)
		defer cancel()
		return r.lookup(lookupCtx)
	})

	select {
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "wait for model lookup")
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		model, _ := res.Val.(string)
		return model, nil
	}
}

func (r *Resolver) lookup(ctx context.Context) (string, error) {
	models, err := r.provider.ListModels(ctx)
	if err != nil {
		return "", errors.Wrap(err, "list models")
	}
	model, err := SelectModel(models)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.model = model
	r.mu.Unlock()

	r.logger.LogAttrs(ctx, slog.LevelInfo, "resolved model",
		slog.String("model", model), slog.Int("listed", len(models)))
	return model, nil
}

// Invalidate forgets model if it is the cached one so that the next Resolve asks the provider again.
func (r *Resolver) Invalidate(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.model == model {
		r.model = ""
	}
}

func (r *Resolver) cached() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.model
}
