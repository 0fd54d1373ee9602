package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storyloom/storyloom-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUser creates a user with a unique username and email.
// Returns a filled domain.User.
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{
		ID:        uuid.New(),
		Username:  "testuser_" + suffix,
		Email:     "testuser-" + suffix + "@example.com",
		Name:      "Test User " + suffix,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, username, email, name, email_opt_out, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Username, user.Email, user.Name, user.EmailOptOut, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert user: %v", err)
	}

	return user
}

// SeedMention inserts a mention row for (actor, day) with a fresh target
// user. Used to pre-fill quota counts in repository tests.
func SeedMention(t *testing.T, pool *pgxpool.Pool, actorID uuid.UUID, date string) domain.Mention {
	t.Helper()
	ctx := context.Background()

	target := SeedUser(t, pool)
	now := time.Now().UTC().Truncate(time.Microsecond)
	m := domain.Mention{
		ID:        uuid.New(),
		ActorID:   actorID,
		TargetID:  target.ID,
		Context:   domain.MentionContextComment,
		SourceID:  uuid.New(),
		StoryID:   uuid.New(),
		Excerpt:   "seeded mention " + uniqueSuffix(),
		Date:      date,
		CreatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO mentions (id, actor_id, target_id, context, source_id, story_id, group_id, excerpt, mention_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.ActorID, m.TargetID, string(m.Context), m.SourceID, m.StoryID, m.GroupID, m.Excerpt, m.Date, m.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedMention insert mention: %v", err)
	}

	return m
}

// SeedEmailLogEntry inserts an email_log row with status sent and the given
// provider message id, sent at the provided time.
func SeedEmailLogEntry(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, emailType domain.EmailType, providerMessageID string, sentAt time.Time) domain.EmailLogEntry {
	t.Helper()
	ctx := context.Background()

	e := domain.EmailLogEntry{
		ID:                uuid.New(),
		UserID:            &userID,
		EmailType:         emailType,
		RecipientEmail:    "seed-" + uniqueSuffix() + "@example.com",
		Status:            domain.EmailStatusSent,
		ProviderMessageID: &providerMessageID,
		SentAt:            sentAt.UTC().Truncate(time.Microsecond),
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO email_log (id, user_id, email_type, recipient_email, status, provider_message_id, metadata, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.UserID, string(e.EmailType), e.RecipientEmail, string(e.Status), e.ProviderMessageID, nil, e.SentAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedEmailLogEntry insert: %v", err)
	}

	return e
}

// SetEmailsEnabled upserts the global kill-switch row.
func SetEmailsEnabled(t *testing.T, pool *pgxpool.Pool, enabled bool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO app_settings (key, bool_value, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET bool_value = excluded.bool_value, updated_at = now()`,
		domain.SettingEmailsEnabled, enabled,
	)
	if err != nil {
		t.Fatalf("testhelper: SetEmailsEnabled upsert: %v", err)
	}
}
