package referral

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quizops/quizops-api/internal/pkg/response"
	"github.com/quizops/quizops-api/internal/pkg/validator"
)

// Handler handles referral review HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates referral handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Dashboard returns the referral fraud dashboard snapshot
// GET /internal/referrals/dashboard?window_hours=N
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	windowHours, ok := windowHoursParam(w, r, 24, 168)
	if !ok {
		return
	}

	snapshot, err := h.service.Dashboard(r.Context(), windowHours)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, snapshot)
}

// ReviewQueue returns referral cases awaiting a decision
// GET /internal/referrals/review-queue?status&window_hours&limit
func (h *Handler) ReviewQueue(w http.ResponseWriter, r *http.Request) {
	windowHours, ok := windowHoursParam(w, r, 72, 336)
	if !ok {
		return
	}
	limit, ok := limitParam(w, r, 50, 200)
	if !ok {
		return
	}

	queue, err := h.service.ReviewQueue(r.Context(), windowHours, r.URL.Query().Get("status"), limit)
	if err != nil {
		if errors.Is(err, ErrStatusInvalid) {
			response.UnprocessableEntity(w, "E_REFERRAL_STATUS_INVALID", "unknown referral status")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, queue)
}

// Review applies one console decision to one referral case
// POST /internal/referrals/{id}/review
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.UnprocessableEntity(w, "E_REFERRAL_ID_INVALID", "referral id must be an integer")
		return
	}

	var req ReviewActionRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "E_BODY_INVALID", "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(&req); fieldErrors != nil {
		response.UnprocessableEntity(w, "E_REFERRAL_REVIEW_DECISION_INVALID", "invalid review request")
		return
	}

	result, err := h.service.ApplyDecision(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "E_REFERRAL_NOT_FOUND", "referral not found")
		case errors.Is(err, ErrDecisionInvalid):
			response.UnprocessableEntity(w, "E_REFERRAL_REVIEW_DECISION_INVALID", "unknown review decision")
		case errors.Is(err, ErrStatusInvalid):
			response.UnprocessableEntity(w, "E_REFERRAL_STATUS_INVALID", "unknown referral status")
		case errors.Is(err, ErrDecisionConflict):
			response.Conflict(w, "E_REFERRAL_REVIEW_DECISION_CONFLICT", "decision not legal from expected status")
		case errors.Is(err, ErrStatusConflict):
			response.Conflict(w, "E_REFERRAL_STATUS_CONFLICT", "referral status changed since last observed")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

func windowHoursParam(w http.ResponseWriter, r *http.Request, def, max int) (int, bool) {
	raw := r.URL.Query().Get("window_hours")
	if raw == "" {
		return def, true
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 1 || hours > max {
		response.UnprocessableEntity(w, "E_WINDOW_INVALID", "window_hours out of range")
		return 0, false
	}
	return hours, true
}

func limitParam(w http.ResponseWriter, r *http.Request, def, max int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > max {
		response.UnprocessableEntity(w, "E_LIMIT_INVALID", "limit out of range")
		return 0, false
	}
	return limit, true
}
