package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/justibot/justibot/internal/contexthelpers"
	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/failure"
	"github.com/justibot/justibot/internal/logging"
	"github.com/justinas/nosurf"
)

const requestIDHeader = "X-Request-ID"

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The API serves JSON and PDF only, nothing may be loaded or framed.
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		w.Header().Set("Referrer-Policy", "origin-when-cross-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-XSS-Protection", "0")
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

// logRequest assigns a request ID, adds it to the logging context and logs the request once it completes.
func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			start     = time.Now()
			requestID = uuid.NewString()
			proto     = r.Proto
			method    = r.Method
			uri       = r.URL.RequestURI()
		)

		w.Header().Set(requestIDHeader, requestID)
		r = contexthelpers.SetRequestID(r, requestID)
		r = r.WithContext(logging.WithAttrs(r.Context(), slog.String("request_id", requestID)))

		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "received request",
			slog.String("proto", proto), slog.String("method", method), slog.String("uri", uri))

		next.ServeHTTP(w, r)

		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "handled request",
			slog.String("method", method), slog.String("uri", uri), slog.Duration("duration", time.Since(start)))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// commonContext exposes the CSRF token to handlers through the request context.
func commonContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = contexthelpers.SetCSRFToken(r, nosurf.Token(r))
		next.ServeHTTP(w, r)
	})
}

// noSurf implements CSRF protection for the cookie-based workflow routes using https://github.com/justinas/nosurf
func (app *application) noSurf(next http.Handler) http.Handler {
	csrfHandler := nosurf.New(next)
	csrfHandler.SetBaseCookie(http.Cookie{ //nolint:exhaustruct // nosurf fills in the rest
		HttpOnly: true,
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	csrfHandler.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.clientError(w, r, failure.CodeBadRequest, errors.Wrap(nosurf.Reason(r), "csrf check"))
	}))

	return csrfHandler
}
