package workflow

import (
	"encoding/gob"
	"log/slog"
	"time"

	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/failure"
	"github.com/justibot/justibot/internal/models"
)

var ErrInvalidSnapshot = errors.NewSentinel("invalid workflow snapshot")

// Snapshot is the flat, gob-encodable form of a [State] used to keep the workflow in a session.
type Snapshot struct {
	Step        Step
	Category    models.Category
	Description string
	Case        *models.Case
	LastError   *failure.Failure
}

func init() { //nolint:gochecknoinits // session stores encode values as interfaces
	gob.Register(Snapshot{}) //nolint:exhaustruct // type registration only
}

// Snapshot captures the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{Step: c.state.Step(), Category: "", Description: "", Case: nil, LastError: nil}
	switch s := c.state.(type) {
	case Facts:
		snap.Category, snap.Description, snap.LastError = s.Category, s.Description, s.LastError
	case GeneratingDraft:
		snap.Category, snap.Description = s.Category, s.Description
	case Preview:
		snap.Case = s.Case
	case Identity:
		snap.Case, snap.LastError = s.Case, s.LastError
	case Completed:
		snap.Case = s.Case
	}
	return snap
}

// Resume rebuilds a controller from snap. A zero snapshot resumes at the intro step.
func Resume(cases CaseService, timeout time.Duration, logger *slog.Logger, snap Snapshot) (*Controller, error) {
	state, err := snap.state()
	if err != nil {
		return nil, err
	}
	c := NewController(cases, timeout, logger)
	c.state = state
	return c, nil
}

func (s Snapshot) state() (State, error) {
	needsCase := func() error {
		if s.Case == nil {
			return errors.Wrap(ErrInvalidSnapshot, "missing case", slog.String("step", string(s.Step)))
		}
		return nil
	}

	switch s.Step {
	case "", StepIntro:
		return Intro{}, nil
	case StepTypeSelection:
		return TypeSelection{}, nil
	case StepFacts:
		return Facts{Category: s.Category, Description: s.Description, LastError: s.LastError}, nil
	case StepGeneratingDraft:
		return GeneratingDraft{Category: s.Category, Description: s.Description}, nil
	case StepPreview:
		if err := needsCase(); err != nil {
			return nil, err
		}
		return Preview{Case: s.Case}, nil
	case StepIdentity:
		if err := needsCase(); err != nil {
			return nil, err
		}
		return Identity{Case: s.Case, LastError: s.LastError}, nil
	case StepCompleted:
		if err := needsCase(); err != nil {
			return nil, err
		}
		return Completed{Case: s.Case}, nil
	}
	return nil, errors.Wrap(ErrInvalidSnapshot, "unknown step", slog.String("step", string(s.Step)))
}
