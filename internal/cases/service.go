package cases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/logging"
	"github.com/justibot/justibot/internal/models"
)

// Repository persists cases and enforces the status transitions.
type Repository interface {
	Create(ctx context.Context, category models.Category, description string) (*models.Case, error)
	Get(ctx context.Context, id int64) (*models.Case, error)
	SetDraft(ctx context.Context, id int64, text string) (*models.Case, error)
	Finalize(ctx context.Context, id int64, identity models.CitizenIdentity, documentReference string) (*models.Case, error)
}

// DraftGenerator turns a description into legal text.
type DraftGenerator interface {
	Generate(ctx context.Context, category models.Category, description string) (string, error)
}

// Renderer produces the final document of a case and returns its reference.
type Renderer interface {
	Render(ctx context.Context, c *models.Case) (string, error)
}

// Config bounds the upstream calls made by the service.
type Config struct {
	GenerationTimeout time.Duration
	FinalizeTimeout   time.Duration
}

const lockStripes = 64

// Service runs the case lifecycle: create and draft, then finalize into a document.
type Service struct {
	repo      Repository
	generator DraftGenerator
	renderer  Renderer
	config    Config
	logger    *slog.Logger

	locks [lockStripes]sync.Mutex
}

func NewService(repo Repository, generator DraftGenerator, renderer Renderer, config Config, logger *slog.Logger) *Service {
	return &Service{ //nolint:exhaustruct // locks are ready to use
		repo:      repo,
		generator: generator,
		renderer:  renderer,
		config:    config,
		logger:    logger,
	}
}

// CreateCase validates the input, records the case and drafts its text.
//
// Invalid input is rejected before any model call. When drafting fails the error is returned and the record stays
// in the created status so that the draft can be regenerated.
func (s *Service) CreateCase(ctx context.Context, category models.Category, description string) (*models.Case, error) {
	if _, err := models.ParseCategory(string(category)); err != nil {
		return nil, errors.Wrap(err, "validate category")
	}
	description, err := models.NormalizeDescription(description)
	if err != nil {
		return nil, errors.Wrap(err, "validate description")
	}

	c, err := s.repo.Create(ctx, category, description)
	if err != nil {
		return nil, errors.Wrap(err, "create case")
	}
	ctx = logging.WithAttrs(ctx, slog.Int64("case_id", c.ID))
	s.logger.LogAttrs(ctx, slog.LevelInfo, "case created", slog.String("category", string(category)))

	return s.draft(ctx, c)
}

// RegenerateDraft drafts the text of a case again, replacing the previous draft. Finalized cases are immutable.
func (s *Service) RegenerateDraft(ctx context.Context, id int64) (*models.Case, error) {
	ctx = logging.WithAttrs(ctx, slog.Int64("case_id", id))
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get case")
	}
	if c.Status == models.StatusFinalized {
		return nil, errors.Wrap(models.ErrInvalidState, "regenerate finalized case", slog.Int64("case_id", id))
	}
	return s.draft(ctx, c)
}

func (s *Service) draft(ctx context.Context, c *models.Case) (*models.Case, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.config.GenerationTimeout)
	defer cancel()

	text, err := s.generator.Generate(genCtx, c.Category, c.Description)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "draft generation failed", errors.SlogError(err))
		return nil, errors.Wrap(err, "generate draft", slog.Int64("case_id", c.ID))
	}

	drafted, err := s.repo.SetDraft(ctx, c.ID, text)
	if err != nil {
		return nil, errors.Wrap(err, "store draft")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "case drafted")
	return drafted, nil
}

// GetCase returns the case with id.
func (s *Service) GetCase(ctx context.Context, id int64) (*models.Case, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get case")
	}
	return c, nil
}

// FinalizeCase renders the document of a drafted case with the citizen's identity and marks it finalized.
//
// Finalizing an already finalized case with the same identity returns the stored case without rendering again.
// A different identity is rejected with models.ErrInvalidState. Finalizations of the same case are serialized.
func (s *Service) FinalizeCase(ctx context.Context, id int64, identity models.CitizenIdentity) (*models.Case, error) {
	ctx = logging.WithAttrs(ctx, slog.Int64("case_id", id))

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get case")
	}

	switch c.Status {
	case models.StatusCreated:
		return nil, errors.Wrap(models.ErrInvalidState, "finalize case without draft", slog.Int64("case_id", id))
	case models.StatusFinalized:
		normalized, validationErr := identity.Normalize()
		if validationErr != nil {
			return nil, errors.Wrap(validationErr, "validate identity")
		}
		if c.Identity != nil && *c.Identity == normalized {
			s.logger.LogAttrs(ctx, slog.LevelInfo, "case already finalized",
				slog.String("reference", c.DocumentReference))
			return c, nil
		}
		return nil, errors.Wrap(models.ErrInvalidState, "finalize case again with a different identity",
			slog.Int64("case_id", id))
	case models.StatusDrafted:
	}

	normalized, err := identity.Normalize()
	if err != nil {
		return nil, errors.Wrap(err, "validate identity")
	}

	finalizeCtx, cancel := context.WithTimeout(ctx, s.config.FinalizeTimeout)
	defer cancel()

	withIdentity := *c
	withIdentity.Identity = &normalized
	ref, err := s.renderer.Render(finalizeCtx, &withIdentity)
	if err != nil {
		return nil, errors.Wrap(err, "render document")
	}

	finalized, err := s.repo.Finalize(ctx, id, normalized, ref)
	if err != nil {
		return nil, errors.Wrap(err, "store finalization")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "case finalized", slog.String("reference", ref))
	return finalized, nil
}

func (s *Service) lockFor(id int64) *sync.Mutex {
	return &s.locks[uint64(id)%lockStripes]
}
