package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/justibot/justibot/internal/api"
	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/failure"
)

// caseID parses the {id} path value. Ids are positive.
func caseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid case id", slog.String("id", raw))
	}
	return id, nil
}

func (app *application) createCase(w http.ResponseWriter, r *http.Request) {
	var req api.CreateCaseRequest
	if err := readJSON(w, r, &req); err != nil {
		app.clientError(w, r, failure.CodeBadRequest, err)
		return
	}

	c, err := app.cases.CreateCase(r.Context(), req.Category, req.Description)
	if err != nil {
		app.domainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/cases/"+strconv.FormatInt(c.ID, 10))
	app.writeJSON(w, r, http.StatusCreated, api.NewCase(c))
}

func (app *application) getCase(w http.ResponseWriter, r *http.Request) {
	id, err := caseID(r)
	if err != nil {
		app.clientError(w, r, failure.CodeNotFound, err)
		return
	}

	c, err := app.cases.GetCase(r.Context(), id)
	if err != nil {
		app.domainError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, api.NewCase(c))
}

func (app *application) finalizeCase(w http.ResponseWriter, r *http.Request) {
	id, err := caseID(r)
	if err != nil {
		app.clientError(w, r, failure.CodeNotFound, err)
		return
	}
	var req api.IdentityRequest
	if err = readJSON(w, r, &req); err != nil {
		app.clientError(w, r, failure.CodeBadRequest, err)
		return
	}

	c, err := app.cases.FinalizeCase(r.Context(), id, req.Identity())
	if err != nil {
		app.domainError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, api.NewCase(c))
}

func (app *application) regenerateDraft(w http.ResponseWriter, r *http.Request) {
	id, err := caseID(r)
	if err != nil {
		app.clientError(w, r, failure.CodeNotFound, err)
		return
	}

	c, err := app.cases.RegenerateDraft(r.Context(), id)
	if err != nil {
		app.domainError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, api.NewCase(c))
}
