package models

import (
	"time"
)

// Category is the closed set of grievance types a case can be filed under.
type Category string

const (
	// CategoryHealthAccess covers denied or delayed access to healthcare. It is answered with an Acción de Tutela.
	CategoryHealthAccess Category = "health-access"
	// CategoryTrafficFine covers contested traffic fines. It is answered with a Derecho de Petición.
	CategoryTrafficFine Category = "traffic-fine"
)

// Categories lists every valid category in presentation order.
func Categories() []Category {
	return []Category{CategoryHealthAccess, CategoryTrafficFine}
}

// ParseCategory returns the category matching s or a validation error.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", NewValidationError(FieldProblem{Field: "category", Problem: "must be one of health-access, traffic-fine"})
}

// DocumentTitle is the name of the legal instrument drafted for the category.
func (c Category) DocumentTitle() string {
	switch c {
	case CategoryHealthAccess:
		return "Acción de Tutela"
	case CategoryTrafficFine:
		return "Derecho de Petición"
	default:
		return "Documento legal"
	}
}

// Status is the persisted lifecycle position of a case.
type Status string

const (
	StatusCreated   Status = "created"
	StatusDrafted   Status = "drafted"
	StatusFinalized Status = "finalized"
)

// Case is a citizen grievance moving from free-text description to a finalized legal document.
type Case struct {
	ID            int64
	Category      Category
	Description   string
	GeneratedText string
	// Identity is nil until the case is finalized.
	Identity *CitizenIdentity
	// DocumentReference is the artifact name of the rendered document, empty until finalized.
	DocumentReference string
	Status            Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CitizenIdentity is the personal data printed in the signature block of the document.
type CitizenIdentity struct {
	Name       string
	NationalID string
	City       string
	// Email is optional.
	Email string
}
