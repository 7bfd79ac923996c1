package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"docvault/internal/engine/billing"
	"docvault/internal/pkg/errors"
)

const maxWebhookBody = 1 << 20

type BillingWebhookHandler struct {
	svc    *billing.Service
	secret string
}

func NewBillingWebhookHandler(svc *billing.Service, secret string) *BillingWebhookHandler {
	return &BillingWebhookHandler{svc: svc, secret: secret}
}

// Handle receives provider webhooks. The endpoint is unauthenticated; the
// HMAC signature over the raw body is the only trust anchor, so it is
// verified before the payload is even parsed.
func (h *BillingWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Failed to read body", nil)
		return
	}

	signature := r.Header.Get("X-Webhook-Signature")
	if signature == "" || !billing.VerifySignature(h.secret, body, signature) {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid signature", nil)
		return
	}

	var evt billing.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid payload", nil)
		return
	}

	if err := h.svc.Apply(r.Context(), &evt); err != nil {
		// A non-2xx makes the provider redeliver; Apply is idempotent so the
		// retry is safe.
		log.Error().Err(err).Str("event", evt.ID).Str("type", evt.Type).Msg("billing event failed")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Event processing failed", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"received": evt.ID})
}
