// Package mailer implements kill-switch-gated email dispatch with an audit
// log, webhook delivery reconciliation, and single-use unsubscribe tokens.
package mailer

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storyloom/storyloom-backend/internal/adapter/provider/resend"
	"github.com/storyloom/storyloom-backend/internal/domain"
)

// emailLogRepo defines the audit-log persistence the dispatcher and
// reconciler need.
type emailLogRepo interface {
	Create(ctx context.Context, e domain.EmailLogEntry) error
	ApplyDeliveryStatus(ctx context.Context, providerMessageID string, status domain.EmailStatus, webhookMeta map[string]any) (bool, error)
	ExistsForUserTypeBetween(ctx context.Context, userID uuid.UUID, emailType domain.EmailType, from, to time.Time) (bool, error)
}

// settingsRepo defines the kill-switch read.
type settingsRepo interface {
	EmailsEnabled(ctx context.Context) (bool, error)
}

// transport defines the outbound email provider.
type transport interface {
	Send(ctx context.Context, msg resend.Message) (string, error)
}

// Config holds the dispatch settings the service needs at runtime.
type Config struct {
	SenderAddress      string
	SubjectPrefix      string
	UnsubscribeBaseURL string
	// DayLocation is the canonical timezone for calendar-day boundaries.
	DayLocation *time.Location
}

// Service implements email dispatch and delivery reconciliation.
type Service struct {
	log      *slog.Logger
	cfg      Config
	entries  emailLogRepo
	settings settingsRepo
	provider transport
	tokens   *TokenIssuer
}

// NewService creates a new mailer service instance. tokens may be nil when
// the deployment does not issue unsubscribe links.
func NewService(logger *slog.Logger, cfg Config, entries emailLogRepo, settings settingsRepo, provider transport, tokens *TokenIssuer) *Service {
	if cfg.DayLocation == nil {
		cfg.DayLocation = time.UTC
	}
	return &Service{
		log:      logger.With("service", "mailer"),
		cfg:      cfg,
		entries:  entries,
		settings: settings,
		provider: provider,
		tokens:   tokens,
	}
}
