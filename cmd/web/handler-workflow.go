package main

import (
	"log/slog"
	"net/http"

	"github.com/justibot/justibot/internal/api"
	"github.com/justibot/justibot/internal/contexthelpers"
	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/failure"
	"github.com/justibot/justibot/internal/workflow"
	"github.com/justinas/nosurf"
)

// loadWorkflow resumes the workflow stored in the session. A snapshot that can no longer be resumed starts over.
func (app *application) loadWorkflow(r *http.Request) *workflow.Controller {
	ctx := r.Context()
	snap, _ := app.sessionManager.Get(ctx, string(workflowSessionKey)).(workflow.Snapshot)
	c, err := workflow.Resume(app.cases, app.cfg.WorkflowTimeout, app.logger, snap)
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "discarding workflow snapshot", errors.SlogError(err))
		return workflow.NewController(app.cases, app.cfg.WorkflowTimeout, app.logger)
	}
	return c
}

func (app *application) saveWorkflow(r *http.Request, c *workflow.Controller) {
	app.sessionManager.Put(r.Context(), string(workflowSessionKey), c.Snapshot())
}

// workflowState returns the current step. The CSRF token for the action route is sent in a response header.
func (app *application) workflowState(w http.ResponseWriter, r *http.Request) {
	c := app.loadWorkflow(r)
	w.Header().Set(nosurf.HeaderName, contexthelpers.CSRFToken(r.Context()))
	app.writeJSON(w, r, http.StatusOK, api.NewWorkflowView(c.State()))
}

// workflowAction applies one action to the session workflow. Failed actions answer with the error and the state the
// workflow recovered to.
func (app *application) workflowAction(w http.ResponseWriter, r *http.Request) {
	var (
		ctx    = r.Context()
		c      = app.loadWorkflow(r)
		action = r.PathValue("action")
		err    error
	)

	switch action {
	case "begin":
		err = c.Begin()
	case "category":
		var req api.CategoryRequest
		if err = readJSON(w, r, &req); err != nil {
			app.clientError(w, r, failure.CodeBadRequest, err)
			return
		}
		err = c.SelectCategory(req.Category)
	case "facts":
		var req api.FactsRequest
		if err = readJSON(w, r, &req); err != nil {
			app.clientError(w, r, failure.CodeBadRequest, err)
			return
		}
		err = c.SubmitFacts(req.Description)
	case "generate":
		err = c.GenerateDraft(ctx)
	case "revise":
		err = c.ReviseFacts()
	case "accept":
		err = c.AcceptDraft()
	case "identity":
		var req api.IdentityRequest
		if err = readJSON(w, r, &req); err != nil {
			app.clientError(w, r, failure.CodeBadRequest, err)
			return
		}
		err = c.SubmitIdentity(ctx, req.Identity())
	case "restart":
		c.Restart()
	default:
		app.notFound(w, r)
		return
	}

	app.saveWorkflow(r, c)
	view := api.NewWorkflowView(c.State())
	w.Header().Set(nosurf.HeaderName, contexthelpers.CSRFToken(ctx))

	if err != nil {
		f := failure.Classify(err)
		status := failureStatus(f)
		app.logger.LogAttrs(ctx, slog.LevelDebug, "workflow action failed",
			slog.String("action", action), slog.String("step", string(view.Step)),
			slog.String("code", string(f.Code)), errors.SlogError(err))
		app.writeJSON(w, r, status, api.ErrorEnvelope{Error: f, State: &view})
		return
	}
	app.writeJSON(w, r, http.StatusOK, view)
}
