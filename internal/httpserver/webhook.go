package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"vocalys/internal/domain"
	"vocalys/internal/providers/elevenlabs"
	"vocalys/internal/util"
)

// Webhook receives the provider's completion callbacks. Signature
// verification only runs when a secret is configured.
type Webhook struct {
	Relay  RelayService
	Secret string
}

func (wh *Webhook) Register(r *mux.Router) {
	r.HandleFunc("/api/webhook", wh.handleProviderWebhook).Methods(http.MethodPost)
}

type webhookAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (wh *Webhook) handleProviderWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidJSON, "")
		return
	}

	if wh.Secret != "" {
		sig := r.Header.Get("Elevenlabs-Signature")
		if !elevenlabs.VerifySignature(wh.Secret, sig, body) {
			writeError(w, http.StatusUnauthorized, ErrInvalidSignature, "")
			return
		}
	}

	var ev domain.WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidJSON, "")
		return
	}

	_, err = wh.Relay.HandleWebhook(r.Context(), ev, util.NowUTC())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error(), "")
		case errors.Is(err, domain.ErrNotFound):
			// Acknowledged with a 404 so the provider stops retrying a
			// conversation we never started.
			slog.Warn("webhook for unknown conversation", "conversation_id", ev.ConversationID)
			writeError(w, http.StatusNotFound, ErrCallNotFound, "")
		default:
			slog.Error("webhook processing failed", "err", err, "conversation_id", ev.ConversationID, "status", ev.Status)
			writeError(w, http.StatusInternalServerError, ErrWebhookFailed, "")
		}
		return
	}

	writeJSON(w, http.StatusOK, webhookAck{Success: true, Message: "Webhook processed successfully"})
}
