package webhook

import "github.com/go-chi/chi/v5"

// Routes returns the public webhook route; no auth middleware, the
// secret header is the only gate.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/telegram", h.Receive)

	return r
}
