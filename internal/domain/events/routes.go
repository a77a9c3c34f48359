package events

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns events routes; the caller mounts them behind internal auth
func (h *Handler) Routes(internalAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(internalAuth)

	r.Get("/", h.Feed)

	return r
}
