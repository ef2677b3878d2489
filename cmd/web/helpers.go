package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/justibot/justibot/internal/api"
	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/failure"
)

// maxBodyBytes bounds request bodies. The largest legitimate body is a description of a few thousand characters.
const maxBodyBytes = 64 << 10

var statusByCode = map[failure.Code]int{ //nolint:gochecknoglobals // read-only lookup table
	failure.CodeValidation:        http.StatusUnprocessableEntity,
	failure.CodeNotFound:          http.StatusNotFound,
	failure.CodeInvalidState:      http.StatusConflict,
	failure.CodeNoUsableModel:     http.StatusServiceUnavailable,
	failure.CodeGenerationFailed:  http.StatusBadGateway,
	failure.CodeRenderFailed:      http.StatusInternalServerError,
	failure.CodeInvalidTransition: http.StatusConflict,
	failure.CodeTimeout:           http.StatusServiceUnavailable,
	failure.CodeBadRequest:        http.StatusBadRequest,
	failure.CodeInternal:          http.StatusInternalServerError,
}

// writeJSON renders v into a buffer first so that encoding errors still produce a clean 500.
func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		app.serverError(w, r, errors.Wrap(err, "encode json"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, _ = buf.WriteTo(w)
}

// readJSON decodes the request body into dst rejecting unknown fields and trailing data.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, "decode json")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must contain a single JSON value")
	}
	return nil
}

// failureStatus maps a classified failure to its HTTP status.
func failureStatus(f *failure.Failure) int {
	if status, ok := statusByCode[f.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainError answers with the error envelope for err. Server-side failures are logged as errors, the rest as
// debug messages.
func (app *application) domainError(w http.ResponseWriter, r *http.Request, err error) {
	f := failure.Classify(err)
	status := failureStatus(f)
	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	app.logger.LogAttrs(r.Context(), level, "request failed",
		slog.String("method", r.Method), slog.String("uri", r.URL.RequestURI()),
		slog.String("code", string(f.Code)), slog.Int("status", status), errors.SlogError(err))
	app.writeJSON(w, r, status, api.ErrorEnvelope{Error: f, State: nil})
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":{"code":"internal","message":"Something went wrong on our side."}}` + "\n"))
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, code failure.Code, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, "client error",
		slog.String("method", r.Method), slog.String("uri", r.URL.RequestURI()),
		slog.String("code", string(code)), errors.SlogError(err))
	f := &failure.Failure{Code: code, Message: failure.Message(code), Fields: nil}
	app.writeJSON(w, r, failureStatus(f), api.ErrorEnvelope{Error: f, State: nil})
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.clientError(w, r, failure.CodeNotFound, errors.New("no route", slog.String("path", r.URL.Path)))
}
