package models

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/justibot/justibot/internal/errors"
)

const (
	// MinDescriptionLength is the minimum number of characters of a trimmed description.
	MinDescriptionLength = 10
	// MaxDescriptionLength bounds the description so that the prompt stays within model limits.
	MaxDescriptionLength = 5000
)

var (
	ErrValidation   = errors.NewSentinel("validation failed")
	ErrNotFound     = errors.NewSentinel("case not found")
	ErrInvalidState = errors.NewSentinel("case is in an invalid state for this operation")
)

// FieldProblem describes why a single input field was rejected.
type FieldProblem struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
}

// ValidationError lists every rejected field. It matches [ErrValidation] with errors.Is.
type ValidationError struct {
	Problems []FieldProblem
}

func NewValidationError(problems ...FieldProblem) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s %s", p.Field, p.Problem))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NormalizeDescription trims the description and checks its length.
func NormalizeDescription(description string) (string, error) {
	trimmed := strings.TrimSpace(description)
	switch n := utf8.RuneCountInString(trimmed); {
	case n < MinDescriptionLength:
		return "", NewValidationError(FieldProblem{
			Field:   "description",
			Problem: fmt.Sprintf("must be at least %d characters", MinDescriptionLength),
		})
	case n > MaxDescriptionLength:
		return "", NewValidationError(FieldProblem{
			Field:   "description",
			Problem: fmt.Sprintf("must be at most %d characters", MaxDescriptionLength),
		})
	}
	return trimmed, nil
}

// Normalize trims every field and reports all missing or malformed ones at once.
func (id CitizenIdentity) Normalize() (CitizenIdentity, error) {
	out := CitizenIdentity{
		Name:       strings.TrimSpace(id.Name),
		NationalID: strings.TrimSpace(id.NationalID),
		City:       strings.TrimSpace(id.City),
		Email:      strings.TrimSpace(id.Email),
	}

	var problems []FieldProblem
	if out.Name == "" {
		problems = append(problems, FieldProblem{Field: "citizen_name", Problem: "is required"})
	}
	if out.NationalID == "" {
		problems = append(problems, FieldProblem{Field: "national_id", Problem: "is required"})
	}
	if out.City == "" {
		problems = append(problems, FieldProblem{Field: "city", Problem: "is required"})
	}
	if out.Email != "" {
		if addr, err := mail.ParseAddress(out.Email); err != nil || addr.Address != out.Email {
			problems = append(problems, FieldProblem{Field: "email", Problem: "is not a valid address"})
		}
	}
	if len(problems) > 0 {
		return CitizenIdentity{}, NewValidationError(problems...)
	}
	return out, nil
}
