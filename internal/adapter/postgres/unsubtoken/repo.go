// Package unsubtoken implements the UnsubscribeToken repository using PostgreSQL.
package unsubtoken

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/storyloom/storyloom-backend/internal/adapter/postgres"
	"github.com/storyloom/storyloom-backend/internal/domain"
)

var sb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides unsubscribe-token persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new unsubscribe-token repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a new token row. Tokens are stored by hash, never raw.
func (r *Repo) Create(ctx context.Context, t domain.UnsubscribeToken) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sb.Insert("unsubscribe_tokens").
		Columns("id", "user_id", "token_hash", "purpose", "expires_at", "created_at").
		Values(t.ID, t.UserID, t.TokenHash, t.Purpose.String(), t.ExpiresAt, t.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("unsubscribe_token build insert: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "unsubscribe_token", t.ID)
	}

	return nil
}

// GetByID returns a token row by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.UnsubscribeToken, error) {
	return r.getWhere(ctx, squirrel.Eq{"id": id}, id)
}

// GetByHash returns a token row by its stored hash.
func (r *Repo) GetByHash(ctx context.Context, tokenHash string) (*domain.UnsubscribeToken, error) {
	return r.getWhere(ctx, squirrel.Eq{"token_hash": tokenHash}, uuid.Nil)
}

func (r *Repo) getWhere(ctx context.Context, pred squirrel.Eq, id uuid.UUID) (*domain.UnsubscribeToken, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sb.Select("id", "user_id", "token_hash", "purpose",
		"expires_at", "consumed_at", "created_at").
		From("unsubscribe_tokens").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("unsubscribe_token build select: %w", err)
	}

	var (
		t       domain.UnsubscribeToken
		purpose string
	)
	err = q.QueryRow(ctx, sql, args...).Scan(&t.ID, &t.UserID, &t.TokenHash,
		&purpose, &t.ExpiresAt, &t.ConsumedAt, &t.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "unsubscribe_token", id)
	}

	t.Purpose = domain.TokenPurpose(purpose)
	return &t, nil
}

// Consume sets consumed_at, but only if it is still unset. Returns false
// when the token was already consumed, which lets the issuer distinguish
// first use from replay without a separate read.
func (r *Repo) Consume(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sb.Update("unsubscribe_tokens").
		Set("consumed_at", now).
		Where(squirrel.Eq{"id": id, "consumed_at": nil}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("unsubscribe_token build consume: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return false, postgres.MapError(err, "unsubscribe_token", id)
	}

	return tag.RowsAffected() > 0, nil
}

// DeleteExpired removes tokens that are past expiry or already consumed.
// Returns the count of deleted rows. May delete many records; does not use
// a transaction.
func (r *Repo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sb.Delete("unsubscribe_tokens").
		Where(squirrel.Or{
			squirrel.Lt{"expires_at": now},
			squirrel.NotEq{"consumed_at": nil},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("unsubscribe_token build delete: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, "unsubscribe_token", uuid.Nil)
	}

	return int(tag.RowsAffected()), nil
}
