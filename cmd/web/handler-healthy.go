package main

import (
	"net/http"

	"github.com/justibot/justibot/internal/api"
)

// healthy responds with a JSON object indicating that the server is healthy.
func (app *application) healthy(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, api.Health{Status: "ok"})
}
