package main

import (
	"net/http"
	"time"
)

const timeoutBody = `{"error":{"code":"timeout","message":"The operation took too long. Please try again."}}`

// timeoutHandler responds with a 503 Service Unavailable error when the handler does not meet the deadline.
func timeoutHandler(h http.Handler, defaultTimeout time.Duration) http.Handler {
	// We want the timeout to be a little shorter than the server's write timeout so that the
	// timeout handler has a chance to respond before the server closes the connection.
	httpHandlerTimeout := defaultTimeout - 500*time.Millisecond //nolint:mnd // 500ms
	th := http.TimeoutHandler(h, httpHandlerTimeout, timeoutBody)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only the timeout response keeps this header, handlers that finish in time replace it.
		w.Header().Set("Content-Type", "application/json")
		th.ServeHTTP(w, r)
	})
}
