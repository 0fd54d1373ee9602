package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/storyloom/storyloom-backend/internal/domain"
)

// ReconcileInput is one provider delivery callback, already authenticated
// by the transport layer.
type ReconcileInput struct {
	ProviderMessageID string
	Status            string
	Metadata          map[string]any
}

// Validate checks the input fields. Only provider-terminal statuses are
// accepted: a callback may never move an entry back to sent or failed.
func (in ReconcileInput) Validate() error {
	var errs []domain.FieldError

	if in.ProviderMessageID == "" {
		errs = append(errs, domain.FieldError{Field: "provider_message_id", Message: "required"})
	}
	status := domain.EmailStatus(in.Status)
	if !status.IsValid() || !status.IsProviderTerminal() {
		errs = append(errs, domain.FieldError{Field: "status", Message: fmt.Sprintf("not a delivery status: %q", in.Status)})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// Reconcile applies a provider delivery callback to the matching audit-log
// entry. Returns whether an entry was updated: false means no entry carries
// that provider message id, which is acknowledged silently so the provider
// stops retrying. Applying the same callback twice converges on the same
// row state.
func (s *Service) Reconcile(ctx context.Context, in ReconcileInput) (bool, error) {
	if err := in.Validate(); err != nil {
		return false, err
	}

	applied, err := s.entries.ApplyDeliveryStatus(ctx, in.ProviderMessageID, domain.EmailStatus(in.Status), in.Metadata)
	if err != nil {
		return false, fmt.Errorf("mailer.Reconcile: %w", err)
	}

	if applied {
		s.log.InfoContext(ctx, "delivery status reconciled",
			slog.String("provider_message_id", in.ProviderMessageID),
			slog.String("status", in.Status),
		)
	} else {
		s.log.DebugContext(ctx, "delivery callback matched no entry",
			slog.String("provider_message_id", in.ProviderMessageID),
		)
	}

	return applied, nil
}
