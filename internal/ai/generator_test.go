package ai_test

import (
	"context"
	"io"
	"testing"

	"github.com/justibot/justibot/internal/ai"
	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/models"
	"github.com/justibot/justibot/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func newGenerator(provider *fakeProvider) *ai.Generator {
	logger := testhelpers.NewLogger(io.Discard)
	return ai.NewGenerator(provider, ai.NewResolver(provider, logger), logger)
}

func TestGenerator_Generate(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider(capable("models/gemini-pro"))
	generator := newGenerator(provider)

	text, err := generator.Generate(context.Background(), models.CategoryHealthAccess, "EPS denied Losartan for 3 months")
	require.NoError(t, err)
	require.Equal(t, "Señor Juez: ...", text)
	require.Equal(t, []string{"models/gemini-pro"}, provider.generatedWith())
}

func TestGenerator_ReselectsUnavailableModelOnce(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider(capable("models/gemini-old"), capable("models/gemini-new"))
	provider.unavailable["models/gemini-old"] = true
	generator := newGenerator(provider)

	// The provider still lists the retired model first, so the retry only succeeds once the listing changes.
	provider.setModels(capable("models/gemini-old"))
	_, err := generator.Generate(context.Background(), models.CategoryTrafficFine, "Fotomulta injusta en la Calle 80")
	require.ErrorIs(t, err, ai.ErrGenerationFailed)
	require.Equal(t, []string{"models/gemini-old", "models/gemini-old"}, provider.generatedWith())

	provider.setModels(capable("models/gemini-new"))
	text, err := generator.Generate(context.Background(), models.CategoryTrafficFine, "Fotomulta injusta en la Calle 80")
	require.NoError(t, err)
	require.NotEmpty(t, text)
	require.Equal(t, int64(3), provider.listCalls.Load())
}

func TestGenerator_Failures(t *testing.T) {
	t.Parallel()

	t.Run("no usable model", func(t *testing.T) {
		t.Parallel()
		generator := newGenerator(newFakeProvider(embedding("models/embedding-001")))
		_, err := generator.Generate(context.Background(), models.CategoryHealthAccess, "EPS denied Losartan")
		require.ErrorIs(t, err, ai.ErrNoUsableModel)
		require.NotErrorIs(t, err, ai.ErrGenerationFailed)
	})

	t.Run("upstream error", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider(capable("models/gemini-pro"))
		upstream := errors.New("429 quota exceeded")
		provider.genErr = upstream
		generator := newGenerator(provider)
		_, err := generator.Generate(context.Background(), models.CategoryHealthAccess, "EPS denied Losartan")
		require.ErrorIs(t, err, ai.ErrGenerationFailed)
		require.ErrorIs(t, err, upstream)
		require.Len(t, provider.generatedWith(), 1, "only unavailable models are retried")
	})

	t.Run("empty response", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider(capable("models/gemini-pro"))
		provider.reply = "  \n "
		generator := newGenerator(provider)
		_, err := generator.Generate(context.Background(), models.CategoryHealthAccess, "EPS denied Losartan")
		require.ErrorIs(t, err, ai.ErrGenerationFailed)
	})

	t.Run("list failure", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		provider.listErr = errors.New("network unreachable")
		generator := newGenerator(provider)
		_, err := generator.Generate(context.Background(), models.CategoryHealthAccess, "EPS denied Losartan")
		require.ErrorIs(t, err, ai.ErrGenerationFailed)
	})
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	description := "EPS denied Losartan for 3 months"
	prompt, err := ai.BuildPrompt(models.CategoryHealthAccess, description)
	require.NoError(t, err)
	require.Contains(t, prompt.User, "Acción de Tutela")
	require.Contains(t, prompt.User, description)
	require.Contains(t, prompt.System, "artículo 49")

	prompt, err = ai.BuildPrompt(models.CategoryTrafficFine, description)
	require.NoError(t, err)
	require.Contains(t, prompt.User, "Derecho de Petición")

	_, err = ai.BuildPrompt(models.Category("parking"), description)
	require.ErrorIs(t, err, models.ErrValidation)
}
