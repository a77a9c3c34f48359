package promo

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns promo routes; the caller mounts them behind internal auth
func (h *Handler) Routes(internalAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(internalAuth)

	r.Get("/dashboard", h.Dashboard)
	r.Get("/campaigns", h.ListCampaigns)
	r.Post("/campaigns/{id}/status", h.UpdateStatus)
	r.Post("/refund-rollback", h.RollbackRefund)

	return r
}
