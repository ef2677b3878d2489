// Package workflow drives a citizen through filing a case, one step at a time.
package workflow

import (
	"github.com/justibot/justibot/internal/failure"
	"github.com/justibot/justibot/internal/models"
)

// Step names a workflow state.
type Step string

const (
	StepIntro           Step = "intro"
	StepTypeSelection   Step = "type_selection"
	StepFacts           Step = "facts"
	StepGeneratingDraft Step = "generating_draft"
	StepPreview         Step = "preview"
	StepIdentity        Step = "identity"
	StepCompleted       Step = "completed"
)

// State is one of [Intro], [TypeSelection], [Facts], [GeneratingDraft], [Preview], [Identity] or [Completed].
// Each variant carries only the data valid at its step.
type State interface {
	Step() Step
	state()
}

type Intro struct{}

type TypeSelection struct{}

// Facts collects the description. LastError is set when an earlier generation attempt failed.
type Facts struct {
	Category    models.Category
	Description string
	LastError   *failure.Failure
}

type GeneratingDraft struct {
	Category    models.Category
	Description string
}

// Preview shows the generated draft for review.
type Preview struct {
	Case *models.Case
}

// Identity collects the citizen's identity. LastError is set when finalization failed.
type Identity struct {
	Case      *models.Case
	LastError *failure.Failure
}

// Completed holds the finalized case with its document reference.
type Completed struct {
	Case *models.Case
}

func (Intro) Step() Step           { return StepIntro }
func (TypeSelection) Step() Step   { return StepTypeSelection }
func (Facts) Step() Step           { return StepFacts }
func (GeneratingDraft) Step() Step { return StepGeneratingDraft }
func (Preview) Step() Step         { return StepPreview }
func (Identity) Step() Step        { return StepIdentity }
func (Completed) Step() Step       { return StepCompleted }

func (Intro) state()           {}
func (TypeSelection) state()   {}
func (Facts) state()           {}
func (GeneratingDraft) state() {}
func (Preview) state()         {}
func (Identity) state()        {}
func (Completed) state()       {}
