package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthy", app.healthy)

	mux.HandleFunc("POST /api/v1/cases", app.createCase)
	mux.HandleFunc("GET /api/v1/cases/{id}", app.getCase)
	mux.HandleFunc("PUT /api/v1/cases/{id}/finalize", app.finalizeCase)
	mux.HandleFunc("POST /api/v1/cases/{id}/draft", app.regenerateDraft)
	mux.HandleFunc("GET /documents/{reference}", app.downloadDocument)

	session := alice.New(app.sessionManager.LoadAndSave, app.noSurf, commonContext)
	mux.Handle("GET /api/v1/workflow", session.ThenFunc(app.workflowState))
	mux.Handle("POST /api/v1/workflow/{action}", session.ThenFunc(app.workflowAction))

	mux.HandleFunc("/", app.notFound)

	standard := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	return standard.Then(timeoutHandler(mux, app.requestTimeout()))
}
