// Package api defines the JSON documents exchanged by the HTTP server and its client.
package api

import (
	"time"

	"github.com/justibot/justibot/internal/failure"
	"github.com/justibot/justibot/internal/models"
	"github.com/justibot/justibot/internal/workflow"
)

// DocumentsPath is the URL prefix under which finalized documents are served.
const DocumentsPath = "/documents/"

type CreateCaseRequest struct {
	Category    models.Category `json:"category"`
	Description string          `json:"description"`
}

// IdentityRequest carries the citizen's identity for finalization. Email is optional.
type IdentityRequest struct {
	CitizenName string `json:"citizen_name"`
	NationalID  string `json:"national_id"`
	City        string `json:"city"`
	Email       string `json:"email,omitempty"`
}

func (r IdentityRequest) Identity() models.CitizenIdentity {
	return models.CitizenIdentity{Name: r.CitizenName, NationalID: r.NationalID, City: r.City, Email: r.Email}
}

func NewIdentityRequest(id models.CitizenIdentity) IdentityRequest {
	return IdentityRequest{CitizenName: id.Name, NationalID: id.NationalID, City: id.City, Email: id.Email}
}

type CategoryRequest struct {
	Category models.Category `json:"category"`
}

type FactsRequest struct {
	Description string `json:"description"`
}

// Case is the public view of a case.
type Case struct {
	ID                int64            `json:"id"`
	Category          models.Category  `json:"category"`
	DocumentTitle     string           `json:"document_title"`
	Description       string           `json:"description"`
	GeneratedText     string           `json:"generated_text"`
	Status            models.Status    `json:"status"`
	Citizen           *IdentityRequest `json:"citizen,omitempty"`
	DocumentReference string           `json:"document_reference,omitempty"`
	DocumentURL       string           `json:"document_url,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func NewCase(c *models.Case) *Case {
	if c == nil {
		return nil
	}
	out := &Case{
		ID:                c.ID,
		Category:          c.Category,
		DocumentTitle:     c.Category.DocumentTitle(),
		Description:       c.Description,
		GeneratedText:     c.GeneratedText,
		Status:            c.Status,
		Citizen:           nil,
		DocumentReference: c.DocumentReference,
		DocumentURL:       "",
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if c.Identity != nil {
		citizen := NewIdentityRequest(*c.Identity)
		out.Citizen = &citizen
	}
	if c.DocumentReference != "" {
		out.DocumentURL = DocumentsPath + c.DocumentReference
	}
	return out
}

// Model converts the view back into the domain type.
func (c *Case) Model() *models.Case {
	out := &models.Case{
		ID:                c.ID,
		Category:          c.Category,
		Description:       c.Description,
		GeneratedText:     c.GeneratedText,
		Identity:          nil,
		DocumentReference: c.DocumentReference,
		Status:            c.Status,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if c.Citizen != nil {
		id := c.Citizen.Identity()
		out.Identity = &id
	}
	return out
}

type CategoryOption struct {
	Category models.Category `json:"category"`
	Title    string          `json:"title"`
}

// WorkflowView is what a client needs to render the current workflow step.
type WorkflowView struct {
	Step        workflow.Step    `json:"step"`
	Categories  []CategoryOption `json:"categories,omitempty"`
	Category    models.Category  `json:"category,omitempty"`
	Description string           `json:"description,omitempty"`
	Case        *Case            `json:"case,omitempty"`
	LastError   *failure.Failure `json:"last_error,omitempty"`
}

func NewWorkflowView(state workflow.State) WorkflowView {
	view := WorkflowView{
		Step:        state.Step(),
		Categories:  nil,
		Category:    "",
		Description: "",
		Case:        nil,
		LastError:   nil,
	}
	switch s := state.(type) {
	case workflow.TypeSelection:
		for _, c := range models.Categories() {
			view.Categories = append(view.Categories, CategoryOption{Category: c, Title: c.DocumentTitle()})
		}
	case workflow.Facts:
		view.Category, view.Description, view.LastError = s.Category, s.Description, s.LastError
	case workflow.GeneratingDraft:
		view.Category, view.Description = s.Category, s.Description
	case workflow.Preview:
		view.Case = NewCase(s.Case)
	case workflow.Identity:
		view.Case, view.LastError = NewCase(s.Case), s.LastError
	case workflow.Completed:
		view.Case = NewCase(s.Case)
	}
	return view
}

// ErrorEnvelope wraps every error response. State is set by the workflow routes.
type ErrorEnvelope struct {
	Error *failure.Failure `json:"error"`
	State *WorkflowView    `json:"state,omitempty"`
}

type Health struct {
	Status string `json:"status"`
}
