package ai_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/justibot/justibot/internal/ai"
	"github.com/justibot/justibot/internal/errors"
)

// fakeProvider is an in-memory Provider with scripted responses.
type fakeProvider struct {
	mu          sync.Mutex
	models      []ai.ModelInfo
	listErr     error
	listDelay   time.Duration
	unavailable map[string]bool
	reply       string
	genErr      error
	generated   []string

	listCalls atomic.Int64
}

func newFakeProvider(models ...ai.ModelInfo) *fakeProvider {
	return &fakeProvider{ //nolint:exhaustruct // zero values are fine
		models:      models,
		unavailable: make(map[string]bool),
		reply:       "  Señor Juez: ...  ",
	}
}

func capable(name string) ai.ModelInfo {
	return ai.ModelInfo{Name: name, Capabilities: []string{"countTokens", ai.CapabilityGenerateContent}}
}

func embedding(name string) ai.ModelInfo {
	return ai.ModelInfo{Name: name, Capabilities: []string{"embedContent"}}
}

func (f *fakeProvider) ListModels(ctx context.Context) ([]ai.ModelInfo, error) {
	f.listCalls.Add(1)
	f.mu.Lock()
	delay, models, err := f.listDelay, f.models, f.listErr
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return models, err
}

func (f *fakeProvider) GenerateContent(_ context.Context, model string, _ ai.Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generated = append(f.generated, model)
	if f.unavailable[model] {
		return "", errors.Join(ai.ErrModelUnavailable, errors.New("404 model not found"))
	}
	if f.genErr != nil {
		return "", f.genErr
	}
	return f.reply, nil
}

func (f *fakeProvider) setModels(models ...ai.ModelInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.models = models
}

func (f *fakeProvider) generatedWith() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.generated...)
}
