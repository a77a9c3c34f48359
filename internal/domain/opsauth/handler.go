package opsauth

import (
	"errors"
	"net/http"

	"github.com/quizops/quizops-api/internal/pkg/response"
	"github.com/quizops/quizops-api/internal/pkg/validator"
)

// Handler handles operator auth HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates opsauth handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Login issues an operator session token
// POST /ops/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "E_BODY_INVALID", "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(&req); fieldErrors != nil {
		response.UnprocessableEntity(w, "E_LOGIN_INVALID", "username and password are required")
		return
	}

	session, err := h.service.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Forbidden(w)
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, session)
}
