package ai_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/justibot/justibot/internal/ai"
	"github.com/justibot/justibot/internal/ai/aitest"
	"github.com/justibot/justibot/internal/models"
	"github.com/justibot/justibot/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_ListModels(t *testing.T) {
	t.Parallel()
	server := aitest.NewServer("text-embedding-3-small", "whisper-1", "gpt-4o-mini", "dall-e-3")
	t.Cleanup(server.Close)
	provider := ai.NewOpenAIProvider("test-key", server.BaseURL())

	listed, err := provider.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 4)

	model, err := ai.SelectModel(listed)
	require.NoError(t, err)
	require.Equal(t, "gpt-4o-mini", model)
}

func TestOpenAIProvider_GenerateContent(t *testing.T) {
	t.Parallel()
	server := aitest.NewServer("gpt-4o-mini")
	t.Cleanup(server.Close)
	provider := ai.NewOpenAIProvider("test-key", server.BaseURL())
	ctx := context.Background()

	text, err := provider.GenerateContent(ctx, "gpt-4o-mini", ai.Prompt{System: "system", User: "user"})
	require.NoError(t, err)
	require.Equal(t, aitest.DefaultReply, text)

	server.SetUnavailable("gpt-4o-mini")
	_, err = provider.GenerateContent(ctx, "gpt-4o-mini", ai.Prompt{System: "system", User: "user"})
	require.ErrorIs(t, err, ai.ErrModelUnavailable)

	server.FailWith(http.StatusTooManyRequests)
	_, err = provider.GenerateContent(ctx, "gpt-4o-mini-2", ai.Prompt{System: "system", User: "user"})
	require.Error(t, err)
	require.NotErrorIs(t, err, ai.ErrModelUnavailable)
}

func TestGenerator_WithOpenAIProvider(t *testing.T) {
	t.Parallel()
	server := aitest.NewServer("retired-model", "gpt-4o-mini")
	t.Cleanup(server.Close)
	server.SetUnavailable("retired-model")

	logger := testhelpers.NewLogger(io.Discard)
	provider := ai.NewOpenAIProvider("test-key", server.BaseURL())
	generator := ai.NewGenerator(provider, ai.NewResolver(provider, logger), logger)

	// The first listing still offers the retired model; the second no longer does.
	server.SetModels("retired-model")
	_, err := generator.Generate(context.Background(), models.CategoryHealthAccess, "EPS denied Losartan for 3 months")
	require.ErrorIs(t, err, ai.ErrGenerationFailed)

	server.SetModels("gpt-4o-mini")
	text, err := generator.Generate(context.Background(), models.CategoryHealthAccess, "EPS denied Losartan for 3 months")
	require.NoError(t, err)
	require.Equal(t, aitest.DefaultReply, text)
	require.Equal(t, "gpt-4o-mini", server.LastModel())
}
