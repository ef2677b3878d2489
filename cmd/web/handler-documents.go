package main

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/justibot/justibot/internal/document"
	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/failure"
)

// downloadDocument streams a finalized document as a PDF attachment.
func (app *application) downloadDocument(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("reference")
	if !document.ValidReference(ref) {
		app.clientError(w, r, failure.CodeNotFound, errors.New("invalid document reference", slog.String("reference", ref)))
		return
	}

	rc, err := app.documents.Open(r.Context(), ref)
	if err != nil {
		app.domainError(w, r, err)
		return
	}
	defer func() {
		_ = rc.Close()
	}()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ref+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err = io.Copy(w, rc); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "document download interrupted",
			slog.String("reference", ref), errors.SlogError(err))
	}
}
