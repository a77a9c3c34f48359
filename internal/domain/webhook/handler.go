package webhook

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/quizops/quizops-api/internal/pkg/response"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxBodyBytes bounds the webhook body; Telegram updates are small.
const maxBodyBytes = 1 << 20

// Handler is the webhook ingestion gate. Anything unprocessable is
// acknowledged with 200 "ignored" so Telegram never retries garbage;
// only a failed handoff earns a 503 so the update is redelivered.
type Handler struct {
	secret   string
	deduper  Deduper
	enqueuer Enqueuer
}

// NewHandler creates webhook handler
func NewHandler(secret string, deduper Deduper, enqueuer Enqueuer) *Handler {
	return &Handler{secret: secret, deduper: deduper, enqueuer: enqueuer}
}

// Receive ingests one Telegram update
// POST /webhook/telegram
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	if !h.validSecret(r.Header.Get(secretHeader)) {
		log.Warn().Msg("webhook invalid secret")
		h.acknowledge(w, http.StatusOK, StatusIgnored)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.Warn().Err(err).Msg("webhook body read failed")
		h.acknowledge(w, http.StatusOK, StatusIgnored)
		return
	}

	var update Update
	if err := json.Unmarshal(body, &update); err != nil {
		log.Warn().Msg("webhook invalid json")
		h.acknowledge(w, http.StatusOK, StatusIgnored)
		return
	}
	if update.UpdateID == nil {
		log.Warn().Msg("webhook missing update_id")
		h.acknowledge(w, http.StatusOK, StatusIgnored)
		return
	}
	updateID := *update.UpdateID

	first, err := h.deduper.FirstDelivery(r.Context(), updateID)
	if err != nil {
		log.Error().Err(err).Int64("update_id", updateID).Msg("webhook dedupe check failed")
		h.acknowledge(w, http.StatusServiceUnavailable, StatusRetry)
		return
	}
	if !first {
		log.Info().Int64("update_id", updateID).Msg("webhook duplicate update")
		h.acknowledge(w, http.StatusOK, StatusIgnored)
		return
	}

	if err := h.enqueuer.Enqueue(r.Context(), body); err != nil {
		// Never acknowledge an update we failed to hand off. The dedupe
		// claim is released so the redelivery is not mistaken for a dupe.
		log.Error().Err(err).Int64("update_id", updateID).Msg("webhook enqueue failed")
		if relErr := h.deduper.Release(r.Context(), updateID); relErr != nil {
			log.Error().Err(relErr).Int64("update_id", updateID).Msg("webhook dedupe release failed")
		}
		h.acknowledge(w, http.StatusServiceUnavailable, StatusRetry)
		return
	}

	log.Info().Int64("update_id", updateID).Int64("chat_id", update.ChatID()).Msg("webhook update queued")
	h.acknowledge(w, http.StatusOK, StatusQueued)
}

func (h *Handler) validSecret(received string) bool {
	if h.secret == "" || received == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(h.secret), []byte(received)) == 1
}

func (h *Handler) acknowledge(w http.ResponseWriter, status int, outcome string) {
	response.JSON(w, status, StatusResponse{Status: outcome})
}
