package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/storyloom/storyloom-backend/internal/domain"
	"github.com/storyloom/storyloom-backend/internal/service/mailer"
)

// tokenRedeemer defines the single-use token consumption the unsubscribe
// endpoint needs.
type tokenRedeemer interface {
	Redeem(ctx context.Context, raw string) (*mailer.RedeemedToken, error)
}

// UnsubscribeHandler serves one-click unsubscribe links from emails.
type UnsubscribeHandler struct {
	log    *slog.Logger
	tokens tokenRedeemer
}

// NewUnsubscribeHandler creates an UnsubscribeHandler.
func NewUnsubscribeHandler(logger *slog.Logger, tokens tokenRedeemer) *UnsubscribeHandler {
	return &UnsubscribeHandler{
		log:    logger.With("handler", "unsubscribe"),
		tokens: tokens,
	}
}

type unsubscribeResponse struct {
	Status  string `json:"status"`
	Purpose string `json:"purpose"`
}

// Unsubscribe handles GET and POST /unsubscribe?token=...
// POST serves RFC 8058 one-click clients; GET serves the link itself.
// The three token failure modes map to distinct status codes so a mail
// client or support staff can tell a stale link from a reused one.
func (h *UnsubscribeHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}

	redeemed, err := h.tokens.Redeem(r.Context(), raw)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			writeError(w, http.StatusGone, "link expired")
		case errors.Is(err, domain.ErrTokenConsumed):
			writeError(w, http.StatusConflict, "link already used")
		case errors.Is(err, domain.ErrTokenInvalid):
			writeError(w, http.StatusBadRequest, "invalid link")
		default:
			h.log.ErrorContext(r.Context(), "unsubscribe redeem failed",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, unsubscribeResponse{
		Status:  "unsubscribed",
		Purpose: redeemed.Purpose.String(),
	})
}
