package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/storyloom/storyloom-backend/internal/domain"
	"github.com/storyloom/storyloom-backend/internal/service/mailer"
)

// reconciler defines the delivery-status application the webhook needs.
type reconciler interface {
	Reconcile(ctx context.Context, in mailer.ReconcileInput) (bool, error)
}

// WebhookHandler receives delivery callbacks from the email provider.
// Authentication happens upstream in the signature middleware.
type WebhookHandler struct {
	log    *slog.Logger
	mailer reconciler
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(logger *slog.Logger, m reconciler) *WebhookHandler {
	return &WebhookHandler{
		log:    logger.With("handler", "webhook"),
		mailer: m,
	}
}

type webhookRequest struct {
	ProviderMessageID string         `json:"provider_message_id"`
	Status            string         `json:"status"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

type webhookResponse struct {
	Received bool `json:"received"`
	Applied  bool `json:"applied"`
}

// DeliveryStatus handles POST /webhooks/email. A callback matching no log
// entry is still acknowledged with 200 so the provider stops retrying;
// only malformed payloads and internal faults are non-2xx.
func (h *WebhookHandler) DeliveryStatus(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	applied, err := h.mailer.Reconcile(r.Context(), mailer.ReconcileInput{
		ProviderMessageID: req.ProviderMessageID,
		Status:            req.Status,
		Metadata:          req.Metadata,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.ErrorContext(r.Context(), "webhook reconcile failed",
			slog.String("provider_message_id", req.ProviderMessageID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{Received: true, Applied: applied})
}
