package referral

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns referral routes; the caller mounts them behind internal auth
func (h *Handler) Routes(internalAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(internalAuth)

	r.Get("/dashboard", h.Dashboard)
	r.Get("/review-queue", h.ReviewQueue)
	r.Post("/{id}/review", h.Review)

	return r
}
