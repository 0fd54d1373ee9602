// Package mention implements the Mention repository using PostgreSQL.
// Mention rows are append-only: this subsystem never updates or deletes them.
package mention

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/storyloom/storyloom-backend/internal/adapter/postgres"
	"github.com/storyloom/storyloom-backend/internal/domain"
)

var sb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides mention persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new mention repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a single mention row. The recorder calls this once per
// accepted target, in input order, so a mid-batch failure leaves the
// already-inserted prefix in place.
func (r *Repo) Create(ctx context.Context, m domain.Mention) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sb.Insert("mentions").
		Columns("id", "actor_id", "target_id", "context", "source_id",
			"story_id", "group_id", "excerpt", "mention_date", "created_at").
		Values(m.ID, m.ActorID, m.TargetID, m.Context.String(), m.SourceID,
			m.StoryID, m.GroupID, m.Excerpt, m.Date, m.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("mention build insert: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "mention", m.ID)
	}

	return nil
}

// CountForActorDay returns how many mentions the actor has already recorded
// under the given calendar-day key.
func (r *Repo) CountForActorDay(ctx context.Context, actorID uuid.UUID, date string) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sb.Select("count(*)").
		From("mentions").
		Where(squirrel.Eq{"actor_id": actorID, "mention_date": date}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("mention build count: %w", err)
	}

	var count int
	if err := q.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, postgres.MapError(err, "mention", actorID)
	}

	return count, nil
}

// ListForActorDay returns the actor's mentions for the given day key,
// ordered by creation time.
func (r *Repo) ListForActorDay(ctx context.Context, actorID uuid.UUID, date string) ([]domain.Mention, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := sb.Select("id", "actor_id", "target_id", "context", "source_id",
		"story_id", "group_id", "excerpt", "mention_date::text", "created_at").
		From("mentions").
		Where(squirrel.Eq{"actor_id": actorID, "mention_date": date}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("mention build list: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "mention", actorID)
	}
	defer rows.Close()

	var mentions []domain.Mention
	for rows.Next() {
		var m domain.Mention
		var mctx string
		if err := rows.Scan(&m.ID, &m.ActorID, &m.TargetID, &mctx, &m.SourceID,
			&m.StoryID, &m.GroupID, &m.Excerpt, &m.Date, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("mention scan: %w", err)
		}
		m.Context = domain.MentionContext(mctx)
		mentions = append(mentions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "mention", actorID)
	}

	return mentions, nil
}
