// Package user implements the identity lookup repository using PostgreSQL.
// This subsystem only reads users (handle resolution, recipient lookup) and
// flips the email opt-out preference; account CRUD lives elsewhere.
package user

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

const userColumns = "id, username, email, name, email_opt_out, created_at, updated_at"

// Repo provides user identity lookups backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new user repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// GetByID returns a user by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getWhere(ctx, squirrel.Eq{"id": id}, id)
}

// GetByUsername returns a user by the unique username index. Handle
// resolution is case-sensitive, matching how handles are stored.
func (r *Repo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getWhere(ctx, squirrel.Eq{"username": username}, uuid.Nil)
}

func (r *Repo) getWhere(ctx context.Context, pred squirrel.Eq, id uuid.UUID) (*domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sb.Select(userColumns).
		From("users").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("user build select: %w", err)
	}

	var u domain.User
	err = q.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.Username, &u.Email,
		&u.Name, &u.EmailOptOut, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "user", id)
	}

	return &u, nil
}

// SetEmailOptOut updates the user's email opt-out preference. Applied by
// the unsubscribe flow after token validation.
func (r *Repo) SetEmailOptOut(ctx context.Context, id uuid.UUID, optOut bool) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sb.Update("users").
		Set("email_opt_out", optOut).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("user build update: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "user", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
