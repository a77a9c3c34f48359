package events

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/quizops/quizops-api/internal/pkg/response"
)

// Handler handles notification events feed requests
type Handler struct {
	service *Service
}

// NewHandler creates events handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Feed returns the outbox notification events feed
// GET /internal/referrals/events?window_hours&event_type&limit
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	windowHours, ok := queryIntParam(w, r, "window_hours", 24, 168, "E_WINDOW_INVALID", "window_hours out of range")
	if !ok {
		return
	}
	limit, ok := queryIntParam(w, r, "limit", 50, 200, "E_LIMIT_INVALID", "limit out of range")
	if !ok {
		return
	}

	feed, err := h.service.Feed(r.Context(), windowHours, r.URL.Query().Get("event_type"), limit)
	if err != nil {
		if errors.Is(err, ErrEventTypeInvalid) {
			response.UnprocessableEntity(w, "E_REFERRAL_EVENT_TYPE_INVALID", "unknown notification event type")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, feed)
}

func queryIntParam(w http.ResponseWriter, r *http.Request, name string, def, max int, code, message string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 || value > max {
		response.UnprocessableEntity(w, code, message)
		return 0, false
	}
	return value, true
}
