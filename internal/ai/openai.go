package ai

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/justibot/justibot/internal/errors"
	"github.com/sashabaranov/go-openai"
)

// MaxTokens bounds the length of a drafted document.
const MaxTokens = 4096

// OpenAIProvider talks to any OpenAI-compatible chat completion API, including Gemini's compatibility endpoint.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a provider for apiKey. An empty baseURL uses the OpenAI API.
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(config)}
}

// nonChatMarkers identify model families that cannot serve chat completions.
var nonChatMarkers = []string{ //nolint:gochecknoglobals // read-only lookup table
	"embedding", "whisper", "tts", "dall-e", "moderation", "davinci", "babbage", "transcribe", "image", "realtime",
}

// ListModels lists the models served to the API key. OpenAI does not advertise capabilities, so they are
// inferred from the model id.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	list, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list openai models")
	}
	models := make([]ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		info := ModelInfo{Name: m.ID, Capabilities: nil}
		if isChatModel(m.ID) {
			info.Capabilities = []string{CapabilityGenerateContent}
		}
		models = append(models, info)
	}
	return models, nil
}

func isChatModel(id string) bool {
	lower := strings.ToLower(id)
	for _, marker := range nonChatMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// GenerateContent runs a chat completion with the system instruction and the user content.
func (p *OpenAIProvider) GenerateContent(ctx context.Context, model string, prompt Prompt) (string, error) {
	completion, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:     model,
			MaxTokens: MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
				{Role: openai.ChatMessageRoleUser, Content: prompt.User},
			},
		},
	)
	if err != nil {
		if isOpenAIModelNotFound(err) {
			return "", errors.Wrap(errors.Join(ErrModelUnavailable, err), "create chat completion",
				slog.String("model", model))
		}
		return "", errors.Wrap(err, "create chat completion", slog.String("model", model))
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat completion without choices", slog.String("model", model))
	}
	return completion.Choices[0].Message.Content, nil
}

func isOpenAIModelNotFound(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "model_not_found" {
			return true
		}
		return apiErr.HTTPStatusCode == http.StatusNotFound
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusNotFound
	}
	return false
}
