// Package appsetting implements read access to process-wide settings.
// Settings are mutated by the admin surface; this subsystem only reads them.
package appsetting

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/storyloom/storyloom-backend/internal/adapter/postgres"
	"github.com/storyloom/storyloom-backend/internal/domain"
)

var sb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides app-setting reads backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new app-setting repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// GetBool returns the boolean setting for key. found is false when no row
// exists, which callers treat as "use the default".
func (r *Repo) GetBool(ctx context.Context, key string) (value bool, found bool, err error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sb.Select("bool_value").
		From("app_settings").
		Where(squirrel.Eq{"key": key}).
		ToSql()
	if err != nil {
		return false, false, fmt.Errorf("app_setting build select: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&value); err != nil {
		mapped := postgres.MapError(err, "app_setting", uuid.Nil)
		if errors.Is(mapped, domain.ErrNotFound) {
			return false, false, nil
		}
		return false, false, mapped
	}

	return value, true, nil
}

// EmailsEnabled reads the global email kill switch. An absent row defaults
// to enabled; only an explicit false disables sending.
func (r *Repo) EmailsEnabled(ctx context.Context) (bool, error) {
	value, found, err := r.GetBool(ctx, domain.SettingEmailsEnabled)
	if err != nil {
		return false, err
	}
	if !found {
		return true, nil
	}
	return value, nil
}
