package opsauth

import "github.com/go-chi/chi/v5"

// Routes returns the public ops auth routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)

	return r
}
