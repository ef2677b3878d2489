package ai

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/justibot/justibot/internal/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

// GeminiProvider talks to the Google Generative Language API.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a provider authenticated with apiKey. Close releases the underlying connection.
func NewGeminiProvider(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}
	return &GeminiProvider{client: client}, nil
}

// ListModels lists the models available to the API key with their supported generation methods.
func (p *GeminiProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var models []ModelInfo
	it := p.client.ListModels(ctx)
	for {
		m, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "list gemini models")
		}
		models = append(models, ModelInfo{Name: m.Name, Capabilities: m.SupportedGenerationMethods})
	}
	return models, nil
}

// GenerateContent generates text with model using the prompt's system instruction.
func (p *GeminiProvider) GenerateContent(ctx context.Context, model string, prompt Prompt) (string, error) {
	gm := p.client.GenerativeModel(model)
	gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}, Role: ""}
	gm.SetMaxOutputTokens(MaxTokens)

	resp, err := gm.GenerateContent(ctx, genai.Text(prompt.User))
	if err != nil {
		if isGeminiModelNotFound(err) {
			return "", errors.Wrap(errors.Join(ErrModelUnavailable, err), "generate content",
				slog.String("model", model))
		}
		return "", errors.Wrap(err, "generate content", slog.String("model", model))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("response without candidates", slog.String("model", model))
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String(), nil
}

// Close releases the client.
func (p *GeminiProvider) Close() error {
	if err := p.client.Close(); err != nil {
		return errors.Wrap(err, "close gemini client")
	}
	return nil
}

func isGeminiModelNotFound(err error) bool {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPCode() == http.StatusNotFound || apiErr.GRPCStatus().Code() == codes.NotFound
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == http.StatusNotFound
	}
	return false
}
