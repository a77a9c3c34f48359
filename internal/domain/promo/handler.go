package promo

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quizops/quizops-api/internal/pkg/response"
	"github.com/quizops/quizops-api/internal/pkg/validator"
)

// Handler handles promo HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates promo handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Dashboard returns the promo dashboard snapshot
// GET /internal/promo/dashboard?window_hours=N
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

// ListCampaigns returns campaigns matching the filters
// GET /internal/promo/campaigns?status&campaign_name&limit
func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r, 50, 200)
	if !ok {
		return
	}

	list, err := h.service.ListCampaigns(
		r.Context(),
		r.URL.Query().Get("status"),
		r.URL.Query().Get("campaign_name"),
		limit,
	)
	if err != nil {
		if errors.Is(err, ErrStatusInvalid) {
			response.UnprocessableEntity(w, "E_PROMO_STATUS_INVALID", "unknown campaign status")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, list)
}

// UpdateStatus applies an operator status transition to one campaign
// POST /internal/promo/campaigns/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.UnprocessableEntity(w, "E_PROMO_ID_INVALID", "campaign id must be an integer")
		return
	}

	var req StatusUpdateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "E_BODY_INVALID", "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(&req); fieldErrors != nil {
		response.UnprocessableEntity(w, "E_PROMO_STATUS_INVALID", "invalid status transition request")
		return
	}

	campaign, err := h.service.UpdateCampaignStatus(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrCampaignNotFound):
			response.NotFound(w, "E_PROMO_NOT_FOUND", "campaign not found")
		case errors.Is(err, ErrStatusInvalid):
			response.UnprocessableEntity(w, "E_PROMO_STATUS_INVALID", "unknown campaign status")
		case errors.Is(err, ErrStatusConflict):
			response.Conflict(w, "E_PROMO_STATUS_CONFLICT", "campaign status changed since last observed")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, campaign)
}

// RollbackRefund reverts a refunded purchase's promo redemption
// POST /internal/promo/refund-rollback
func (h *Handler) RollbackRefund(w http.ResponseWriter, r *http.Request) {
	var req RefundRollbackRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "E_BODY_INVALID", "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(&req); fieldErrors != nil {
		response.UnprocessableEntity(w, "E_PURCHASE_ID_INVALID", "purchase_id must be a UUID")
		return
	}

	result, err := h.service.RollbackRefund(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrPurchaseIDRequired):
			response.UnprocessableEntity(w, "E_PURCHASE_ID_INVALID", "purchase_id is required")
		case errors.Is(err, ErrPurchaseNotFound):
			response.NotFound(w, "E_PURCHASE_NOT_FOUND", "purchase not found")
		case errors.Is(err, ErrRefundNotAllowed):
			response.Conflict(w, "E_PURCHASE_REFUND_NOT_ALLOWED", "purchase is not refundable")
		case errors.Is(err, ErrRefundInvariant):
			response.Conflict(w, "E_PURCHASE_REFUND_INVARIANT", "refund rollback invariant violated")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

// windowHoursParam parses window_hours with a default and an upper bound
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
