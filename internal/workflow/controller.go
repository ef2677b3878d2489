package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/failure"
	"github.com/justibot/justibot/internal/logging"
	"github.com/justibot/justibot/internal/models"
)

// ErrInvalidTransition is returned when an action is not allowed in the current step.
var ErrInvalidTransition = failure.ErrInvalidTransition

// DefaultTimeout bounds every call the controller makes to the case service.
const DefaultTimeout = 90 * time.Second

// CaseService is the server side of the workflow.
type CaseService interface {
	CreateCase(ctx context.Context, category models.Category, description string) (*models.Case, error)
	FinalizeCase(ctx context.Context, id int64, identity models.CitizenIdentity) (*models.Case, error)
}

// Controller holds the state of one citizen's filing. Calls are serialized.
type Controller struct {
	cases   CaseService
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	state State
}

// NewController returns a controller at the intro step. A non-positive timeout selects [DefaultTimeout].
func NewController(cases CaseService, timeout time.Duration, logger *slog.Logger) *Controller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Controller{
		cases:   cases,
		timeout: timeout,
		logger:  logger,
		mu:      sync.Mutex{},
		state:   Intro{},
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.state.(Intro); !ok {
		return c.invalid("begin")
	}
	c.state = TypeSelection{}
	return nil
}

// SelectCategory moves to the facts step for category.
func (c *Controller) SelectCategory(category models.Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.state.(TypeSelection); !ok {
		return c.invalid("select category")
	}
	parsed, err := models.ParseCategory(string(category))
	if err != nil {
		return errors.Wrap(err, "select category")
	}
	c.state = Facts{Category: parsed, Description: "", LastError: nil}
	return nil
}

// SubmitFacts records the description. A description that is too short keeps the workflow on the facts step.
func (c *Controller) SubmitFacts(description string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	facts, ok := c.state.(Facts)
	if !ok {
		return c.invalid("submit facts")
	}
	normalized, err := models.NormalizeDescription(description)
	if err != nil {
		facts.Description = description
		facts.LastError = failure.Classify(err)
		c.state = facts
		return errors.Wrap(err, "submit facts")
	}
	c.state = GeneratingDraft{Category: facts.Category, Description: normalized}
	return nil
}

// GenerateDraft creates the case and moves to the preview. On failure the workflow returns to the facts step with
// the description retained and LastError set.
func (c *Controller) GenerateDraft(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending, ok := c.state.(GeneratingDraft)
	if !ok {
		return c.invalid("generate draft")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	created, err := c.cases.CreateCase(ctx, pending.Category, pending.Description)
	if err != nil {
		f := failure.Classify(err)
		c.logger.LogAttrs(ctx, slog.LevelWarn, "draft generation failed",
			slog.String("code", string(f.Code)), errors.SlogError(err))
		c.state = Facts{Category: pending.Category, Description: pending.Description, LastError: f}
		return errors.Wrap(err, "generate draft")
	}
	c.state = Preview{Case: created}
	return nil
}

// ReviseFacts goes back from the preview to the facts step keeping the description.
func (c *Controller) ReviseFacts() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	preview, ok := c.state.(Preview)
	if !ok {
		return c.invalid("revise facts")
	}
	c.state = Facts{Category: preview.Case.Category, Description: preview.Case.Description, LastError: nil}
	return nil
}

func (c *Controller) AcceptDraft() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	preview, ok := c.state.(Preview)
	if !ok {
		return c.invalid("accept draft")
	}
	c.state = Identity{Case: preview.Case, LastError: nil}
	return nil
}

// SubmitIdentity finalizes the case. On failure the workflow stays on the identity step with LastError set.
func (c *Controller) SubmitIdentity(ctx context.Context, identity models.CitizenIdentity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	step, ok := c.state.(Identity)
	if !ok {
		return c.invalid("submit identity")
	}
	ctx = logging.WithAttrs(ctx, slog.Int64("case_id", step.Case.ID))

	normalized, err := identity.Normalize()
	if err != nil {
		c.state = Identity{Case: step.Case, LastError: failure.Classify(err)}
		return errors.Wrap(err, "submit identity")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	finalized, err := c.cases.FinalizeCase(ctx, step.Case.ID, normalized)
	if err != nil {
		f := failure.Classify(err)
		c.logger.LogAttrs(ctx, slog.LevelWarn, "finalization failed",
			slog.String("code", string(f.Code)), errors.SlogError(err))
		c.state = Identity{Case: step.Case, LastError: f}
		return errors.Wrap(err, "submit identity")
	}
	c.state = Completed{Case: finalized}
	return nil
}

// Restart discards everything and returns to the intro step.
func (c *Controller) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Intro{}
}

func (c *Controller) invalid(action string) error {
	return errors.Wrap(ErrInvalidTransition, action, slog.String("step", string(c.state.Step())))
}
