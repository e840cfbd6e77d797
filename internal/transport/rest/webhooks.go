package rest

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"uitvaartpay/internal/domain"
)

const maxWebhookBody = 1 << 20 // 1 MB

// ingestWebhook is the rail ingress. The payload is treated as opaque
// bytes until the gateway has verified the signature.
func (h *Handler) ingestWebhook(w http.ResponseWriter, r *http.Request) {
	railName := domain.RailName(chi.URLParam(r, "rail"))
	if !railName.Valid() {
		ErrorNotFound(w, "unknown rail")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		ErrorBadRequest(w, "failed to read payload")
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		signature = r.Header.Get("X-Signature")
	}

	if err := h.webhooks.HandleWebhook(r.Context(), railName, payload, signature, correlationID(r)); err != nil {
		if errors.Is(err, domain.ErrWebhookSignatureInvalid) {
			ErrorBadRequest(w, "invalid signature")
			return
		}
		log.Printf("[HTTP] webhook %s error, correlation_id=%s: %v", railName, correlationID(r), err)
		// Non-2xx makes the rail redeliver; dedupe absorbs the repeat once
		// the underlying issue clears.
		ErrorInternal(w, "webhook processing failed")
		return
	}

	Success(w, "ok", nil)
}
