package cases_test

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/justibot/justibot/internal/ai"
	"github.com/justibot/justibot/internal/ai/aitest"
	"github.com/justibot/justibot/internal/cases"
	"github.com/justibot/justibot/internal/document"
	"github.com/justibot/justibot/internal/models"
	"github.com/justibot/justibot/internal/repositories"
	"github.com/justibot/justibot/internal/sqlite"
	"github.com/justibot/justibot/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

const losartan = "EPS denied Losartan for 3 months"

var juan = models.CitizenIdentity{Name: "Juan Pérez", NationalID: "1234567890", City: "Bogotá", Email: ""}

// countingRenderer counts renders so that tests can assert idempotent finalization.
type countingRenderer struct {
	next    cases.Renderer
	renders atomic.Int64
}

func (r *countingRenderer) Render(ctx context.Context, c *models.Case) (string, error) {
	r.renders.Add(1)
	return r.next.Render(ctx, c) //nolint:wrapcheck // test double
}

type fixture struct {
	service  *cases.Service
	provider *aitest.Server
	renderer *countingRenderer
	store    document.Store
}

func newFixture(t *testing.T, generationTimeout time.Duration) fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	logger := testhelpers.NewLogger(io.Discard)

	db, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	require.NoError(t, err)

	server := aitest.NewServer("text-embedding-3-small", "gpt-4o-mini")
	t.Cleanup(func() {
		server.Close()
		cancel()
		require.NoError(t, db.Close())
	})

	provider := ai.NewOpenAIProvider("test-key", server.BaseURL())
	generator := ai.NewGenerator(provider, ai.NewResolver(provider, logger), logger)
	store := document.NewFilesystemStore(memfs.New())
	renderer := &countingRenderer{next: document.NewFinalizer(store, logger)} //nolint:exhaustruct // counter
	service := cases.NewService(
		repositories.NewCaseRepository(db, logger),
		generator,
		renderer,
		cases.Config{GenerationTimeout: generationTimeout, FinalizeTimeout: 5 * time.Second},
		logger,
	)
	return fixture{service: service, provider: server, renderer: renderer, store: store}
}

func TestService_Scenarios(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, 5*time.Second)

	// Scenario 1: a valid health-access grievance is drafted.
	c, err := f.service.CreateCase(ctx, models.CategoryHealthAccess, losartan)
	require.NoError(t, err)
	require.Equal(t, int64(1), c.ID)
	require.Equal(t, models.StatusDrafted, c.Status)
	require.Equal(t, aitest.DefaultReply, c.GeneratedText)
	require.Equal(t, losartan, c.Description)

	// Scenario 2: finalizing produces the document reference.
	finalized, err := f.service.FinalizeCase(ctx, c.ID, juan)
	require.NoError(t, err)
	require.Equal(t, models.StatusFinalized, finalized.Status)
	require.Equal(t, "case_1.pdf", finalized.DocumentReference)
	require.Equal(t, &juan, finalized.Identity)
	rc, err := f.store.Open(ctx, "case_1.pdf")
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	// Scenario 3: unknown case.
	_, err = f.service.FinalizeCase(ctx, 999, juan)
	require.ErrorIs(t, err, models.ErrNotFound)

	got, err := f.service.GetCase(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, finalized, got)
}

func TestService_ValidationBeforeModelCall(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 5*time.Second)

	// Scenario 4: too short.
	_, err := f.service.CreateCase(context.Background(), models.CategoryHealthAccess, "short")
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = f.service.CreateCase(context.Background(), models.Category("parking"), losartan)
	require.ErrorIs(t, err, models.ErrValidation)

	require.Zero(t, f.provider.ListCalls())
	require.Zero(t, f.provider.ChatCalls())
}

func TestService_GenerationFailureLeavesCreatedRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, 5*time.Second)
	f.provider.FailWith(http.StatusTooManyRequests)

	_, err := f.service.CreateCase(ctx, models.CategoryTrafficFine, "Fotomulta injusta en la Calle 80")
	require.ErrorIs(t, err, ai.ErrGenerationFailed)

	c, err := f.service.GetCase(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, models.StatusCreated, c.Status)
	require.Empty(t, c.GeneratedText)

	// Finalization before a draft exists is rejected whatever the payload.
	_, err = f.service.FinalizeCase(ctx, 1, juan)
	require.ErrorIs(t, err, models.ErrInvalidState)
	_, err = f.service.FinalizeCase(ctx, 1, models.CitizenIdentity{}) //nolint:exhaustruct // deliberately empty
	require.ErrorIs(t, err, models.ErrInvalidState)

	f.provider.FailWith(0)
	c, err = f.service.RegenerateDraft(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, models.StatusDrafted, c.Status)
}

func TestService_NoUsableModel(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 5*time.Second)
	f.provider.SetModels("text-embedding-3-small", "whisper-1")

	_, err := f.service.CreateCase(context.Background(), models.CategoryHealthAccess, losartan)
	require.ErrorIs(t, err, ai.ErrNoUsableModel)
	require.Zero(t, f.provider.ChatCalls())
}

func TestService_GenerationTimeout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, 50*time.Millisecond)
	f.provider.SetDelay(2 * time.Second)

	start := time.Now()
	_, err := f.service.CreateCase(ctx, models.CategoryHealthAccess, losartan)
	require.ErrorIs(t, err, ai.ErrGenerationFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestService_FinalizeIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, 5*time.Second)

	c, err := f.service.CreateCase(ctx, models.CategoryHealthAccess, losartan)
	require.NoError(t, err)

	first, err := f.service.FinalizeCase(ctx, c.ID, juan)
	require.NoError(t, err)

	// Surrounding whitespace does not make a different identity.
	padded := juan
	padded.Name = "  Juan Pérez "
	second, err := f.service.FinalizeCase(ctx, c.ID, padded)
	require.NoError(t, err)
	require.Equal(t, first.DocumentReference, second.DocumentReference)
	require.Equal(t, int64(1), f.renderer.renders.Load())

	other := juan
	other.NationalID = "999"
	_, err = f.service.FinalizeCase(ctx, c.ID, other)
	require.ErrorIs(t, err, models.ErrInvalidState)

	_, err = f.service.RegenerateDraft(ctx, c.ID)
	require.ErrorIs(t, err, models.ErrInvalidState)
}

func TestService_FinalizeValidatesIdentity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, 5*time.Second)

	c, err := f.service.CreateCase(ctx, models.CategoryHealthAccess, losartan)
	require.NoError(t, err)

	_, err = f.service.FinalizeCase(ctx, c.ID, models.CitizenIdentity{Name: "Juan Pérez", NationalID: "", City: "", Email: ""})
	require.ErrorIs(t, err, models.ErrValidation)
	require.Zero(t, f.renderer.renders.Load())

	got, err := f.service.GetCase(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusDrafted, got.Status)
}

func TestService_ConcurrentFinalize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, 5*time.Second)

	c, err := f.service.CreateCase(ctx, models.CategoryHealthAccess, losartan)
	require.NoError(t, err)

	const attempts = 8
	var (
		wg   sync.WaitGroup
		refs = make([]string, attempts)
		errs = make([]error, attempts)
	)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var finalized *models.Case
			finalized, errs[i] = f.service.FinalizeCase(ctx, c.ID, juan)
			if errs[i] == nil {
				refs[i] = finalized.DocumentReference
			}
		}()
	}
	wg.Wait()

	for i := range attempts {
		require.NoError(t, errs[i])
		require.Equal(t, "case_1.pdf", refs[i])
	}
	require.Equal(t, int64(1), f.renderer.renders.Load())
}
