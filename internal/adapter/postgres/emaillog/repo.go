// Package emaillog implements the EmailLogEntry repository using PostgreSQL.
// The log is the audit trail for every attempted send: the dispatcher
// appends rows, the reconciler patches delivery status onto them.
package emaillog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/storyloom/storyloom-backend/internal/adapter/postgres"
	"github.com/storyloom/storyloom-backend/internal/domain"
)

var sb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides email log persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new email log repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create appends a log entry for one send attempt.
func (r *Repo) Create(ctx context.Context, e domain.EmailLogEntry) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	metadata, err := marshalMetadata(e.Metadata)
	if err != nil {
		return fmt.Errorf("email_log marshal metadata: %w", err)
	}

	sql, args, err := sb.Insert("email_log").
		Columns("id", "user_id", "email_type", "recipient_email", "status",
			"provider_message_id", "metadata", "sent_at").
		Values(e.ID, e.UserID, e.EmailType.String(), e.RecipientEmail, e.Status.String(),
			e.ProviderMessageID, metadata, e.SentAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("email_log build insert: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "email_log", e.ID)
	}

	return nil
}

// GetByProviderMessageID returns the unique entry the provider assigned the
// given message id to. Returns domain.ErrNotFound if no entry matches.
func (r *Repo) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*domain.EmailLogEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sb.Select("id", "user_id", "email_type", "recipient_email", "status",
		"provider_message_id", "metadata", "sent_at").
		From("email_log").
		Where(squirrel.Eq{"provider_message_id": providerMessageID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("email_log build select: %w", err)
	}

	var (
		e        domain.EmailLogEntry
		typ      string
		status   string
		metadata []byte
	)
	err = q.QueryRow(ctx, sql, args...).Scan(&e.ID, &e.UserID, &typ, &e.RecipientEmail,
		&status, &e.ProviderMessageID, &metadata, &e.SentAt)
	if err != nil {
		return nil, postgres.MapError(err, "email_log", uuid.Nil)
	}

	e.EmailType = domain.EmailType(typ)
	e.Status = domain.EmailStatus(status)
	if e.Metadata, err = unmarshalMetadata(metadata); err != nil {
		return nil, fmt.Errorf("email_log unmarshal metadata: %w", err)
	}

	return &e, nil
}

// ApplyDeliveryStatus patches the entry matching providerMessageID with the
// provider-reported status and merges the callback payload under the
// "webhook" metadata sub-key, leaving prior metadata intact. Returns false
// without error when no entry matches, so an early or foreign callback is a
// no-op rather than a failure. Safe to apply the same callback repeatedly.
func (r *Repo) ApplyDeliveryStatus(ctx context.Context, providerMessageID string, status domain.EmailStatus, webhookMeta map[string]any) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	metadata, err := marshalMetadata(webhookMeta)
	if err != nil {
		return false, fmt.Errorf("email_log marshal webhook metadata: %w", err)
	}

	sql, args, err := sb.Update("email_log").
		Set("status", status.String()).
		Set("metadata", squirrel.Expr(
			"coalesce(metadata, '{}'::jsonb) || jsonb_build_object('webhook', ?::jsonb)", metadata)).
		Where(squirrel.Eq{"provider_message_id": providerMessageID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("email_log build update: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return false, postgres.MapError(err, "email_log", uuid.Nil)
	}

	return tag.RowsAffected() > 0, nil
}

// ExistsForUserTypeBetween reports whether any entry for (userID, emailType)
// has sent_at within [from, to]. Backs the same-day duplicate check.
func (r *Repo) ExistsForUserTypeBetween(ctx context.Context, userID uuid.UUID, emailType domain.EmailType, from, to time.Time) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sb.Select("1").
		From("email_log").
		Where(squirrel.Eq{"user_id": userID, "email_type": emailType.String()}).
		Where(squirrel.GtOrEq{"sent_at": from}).
		Where(squirrel.LtOrEq{"sent_at": to}).
		Limit(1).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("email_log build exists: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, postgres.MapError(err, "email_log", userID)
	}

	return exists, nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func unmarshalMetadata(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
