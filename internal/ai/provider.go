package ai

import (
	"context"

	"github.com/justibot/justibot/internal/errors"
)

// CapabilityGenerateContent is the capability a model must advertise to draft documents.
const CapabilityGenerateContent = "generateContent"

var (
	// ErrNoUsableModel means the provider lists no model that can generate content for the configured credentials.
	ErrNoUsableModel = errors.NewSentinel("no usable model")
	// ErrGenerationFailed wraps upstream failures such as quota, network or an invalid model after the retry.
	ErrGenerationFailed = errors.NewSentinel("generation failed")
	// ErrModelUnavailable is reported by providers when the requested model no longer exists or is not served.
	ErrModelUnavailable = errors.NewSentinel("model unavailable")
)

// ModelInfo is a model as listed by the provider.
type ModelInfo struct {
	Name         string
	Capabilities []string
}

// Prompt is a single-turn request made of a system instruction and the user content.
type Prompt struct {
	System string
	User   string
}

// Provider is the boundary to a hosted language model service.
type Provider interface {
	// ListModels returns the models reachable with the configured credentials in provider order.
	ListModels(ctx context.Context) ([]ModelInfo, error)
	// GenerateContent runs the prompt against model and returns the text of the first candidate.
	GenerateContent(ctx context.Context, model string, prompt Prompt) (string, error)
}
