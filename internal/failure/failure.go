// Package failure classifies domain errors into stable codes shared by the HTTP API, its client and the workflow.
package failure

import (
	"context"

	"github.com/justibot/justibot/internal/ai"
	"github.com/justibot/justibot/internal/document"
	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/models"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	CodeValidation        Code = "validation_failed"
	CodeNotFound          Code = "not_found"
	CodeInvalidState      Code = "invalid_state"
	CodeNoUsableModel     Code = "no_usable_model"
	CodeGenerationFailed  Code = "generation_failed"
	CodeRenderFailed      Code = "render_failed"
	CodeInvalidTransition Code = "invalid_transition"
	CodeTimeout           Code = "timeout"
	CodeBadRequest        Code = "bad_request"
	CodeInternal          Code = "internal"
)

// Failure is the user-facing description of an error.
type Failure struct {
	Code    Code                  `json:"code"`
	Message string                `json:"message"`
	Fields  []models.FieldProblem `json:"fields,omitempty"`
}

func (f *Failure) Error() string {
	return f.Message
}

// Unwrap lets a Failure decoded from the wire match the sentinel of its code.
func (f *Failure) Unwrap() error {
	return Sentinel(f.Code)
}

var messages = map[Code]string{ //nolint:gochecknoglobals // read-only lookup table
	CodeValidation:        "Some fields are missing or invalid.",
	CodeNotFound:          "The case does not exist.",
	CodeInvalidState:      "The case is not in a state that allows this operation.",
	CodeNoUsableModel:     "No language model is currently available. Please try again later.",
	CodeGenerationFailed:  "The draft could not be generated. Please try again.",
	CodeRenderFailed:      "The document could not be produced. Please try again.",
	CodeInvalidTransition: "This step is not available right now.",
	CodeTimeout:           "The operation took too long. Please try again.",
	CodeBadRequest:        "The request could not be understood.",
	CodeInternal:          "Something went wrong on our side.",
}

var sentinels = map[Code]error{ //nolint:gochecknoglobals // read-only lookup table
	CodeValidation:       models.ErrValidation,
	CodeNotFound:         models.ErrNotFound,
	CodeInvalidState:     models.ErrInvalidState,
	CodeNoUsableModel:    ai.ErrNoUsableModel,
	CodeGenerationFailed: ai.ErrGenerationFailed,
	CodeRenderFailed:     document.ErrRender,
	CodeTimeout:          context.DeadlineExceeded,
}

// ErrInvalidTransition is matched by failures with CodeInvalidTransition. Packages report their own transition
// errors by wrapping it.
var ErrInvalidTransition = errors.NewSentinel("invalid transition")

// Sentinel returns the error that a failure with code matches, or nil for codes without one.
func Sentinel(code Code) error {
	if code == CodeInvalidTransition {
		return ErrInvalidTransition
	}
	return sentinels[code]
}

// Classify describes err. Timeouts take precedence because they are what the user can act on.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}

	var wire *Failure
	if errors.As(err, &wire) {
		return wire
	}

	code := CodeInternal
	switch {
	case errors.Is(err, models.ErrValidation):
		code = CodeValidation
	case errors.Is(err, context.DeadlineExceeded):
		code = CodeTimeout
	case errors.Is(err, ErrInvalidTransition):
		code = CodeInvalidTransition
	case errors.Is(err, models.ErrNotFound), errors.Is(err, document.ErrArtifactNotFound):
		code = CodeNotFound
	case errors.Is(err, models.ErrInvalidState):
		code = CodeInvalidState
	case errors.Is(err, ai.ErrNoUsableModel):
		code = CodeNoUsableModel
	case errors.Is(err, ai.ErrGenerationFailed):
		code = CodeGenerationFailed
	case errors.Is(err, document.ErrRender):
		code = CodeRenderFailed
	}

	f := &Failure{Code: code, Message: messages[code], Fields: nil}
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		f.Fields = validationErr.Problems
	}
	return f
}

// Message returns the default user-facing message for code.
func Message(code Code) string {
	return messages[code]
}
