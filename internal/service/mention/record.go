package mention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storyloom/storyloom-backend/internal/domain"
)

// RecordInput is one quota-checked recording request. Targets must already
// be resolved; Date is the caller-supplied calendar day key the quota is
// tracked under, never derived from the server clock here.
type RecordInput struct {
	ActorID  uuid.UUID
	Targets  []ResolvedTarget
	Context  domain.MentionContext
	SourceID uuid.UUID
	StoryID  uuid.UUID
	GroupID  *uuid.UUID
	Excerpt  string
	Date     string
}

// Validate checks the input fields. Targets may be empty; recording zero
// mentions is a valid no-op.
func (in RecordInput) Validate() error {
	var errs []domain.FieldError

	if in.ActorID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "actor_id", Message: "required"})
	}
	if !in.Context.IsValid() {
		errs = append(errs, domain.FieldError{Field: "context", Message: fmt.Sprintf("unknown context %q", in.Context)})
	}
	if in.SourceID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "source_id", Message: "required"})
	}
	if in.StoryID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "story_id", Message: "required"})
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		errs = append(errs, domain.FieldError{Field: "date", Message: "must be YYYY-MM-DD"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// RecordOutcome accounts for every supplied target in exactly one bucket:
// Inserted + SkippedSelf + SkippedQuota == len(Targets).
type RecordOutcome struct {
	Inserted     int
	SkippedSelf  int
	SkippedQuota int
}

// RecordMentions enforces the per-actor daily mention quota and persists
// the accepted targets in input order.
//
// Self-mentions are dropped first and never count against quota. The
// remaining budget is computed from a single count read; targets beyond it
// are skipped, not recorded. The read-then-insert sequence is not guarded
// by a cross-request lock: two concurrent calls for the same actor and day
// can both read a stale count and overrun the ceiling by at most one
// batch. A store failure mid-batch propagates; rows inserted before the
// failure stay (at-least-once for the accepted prefix).
func (s *Service) RecordMentions(ctx context.Context, in RecordInput) (RecordOutcome, error) {
	if err := in.Validate(); err != nil {
		return RecordOutcome{}, err
	}

	var out RecordOutcome

	// Step 1: drop self-mentions.
	accepted := make([]ResolvedTarget, 0, len(in.Targets))
	for _, t := range in.Targets {
		if t.UserID == in.ActorID {
			out.SkippedSelf++
			continue
		}
		accepted = append(accepted, t)
	}

	// Step 2: read the actor's current count for the day.
	current, err := s.mentions.CountForActorDay(ctx, in.ActorID, in.Date)
	if err != nil {
		return RecordOutcome{}, fmt.Errorf("mention.RecordMentions: count: %w", err)
	}

	// Step 3: remaining budget, clamped at zero.
	remaining := domain.MentionQuotaPerDay - current
	if remaining < 0 {
		remaining = 0
	}

	// Steps 4-5: insert up to the budget, skip the rest.
	if len(accepted) > remaining {
		out.SkippedQuota = len(accepted) - remaining
		accepted = accepted[:remaining]
	}

	excerpt := domain.TruncateExcerpt(in.Excerpt)
	now := time.Now().UTC()

	for _, t := range accepted {
		m := domain.Mention{
			ID:        uuid.New(),
			ActorID:   in.ActorID,
			TargetID:  t.UserID,
			Context:   in.Context,
			SourceID:  in.SourceID,
			StoryID:   in.StoryID,
			GroupID:   in.GroupID,
			Excerpt:   excerpt,
			Date:      in.Date,
			CreatedAt: now,
		}
		if err := s.mentions.Create(ctx, m); err != nil {
			return RecordOutcome{}, fmt.Errorf("mention.RecordMentions: insert target %s: %w", t.Handle, err)
		}
		out.Inserted++
	}

	if out.SkippedQuota > 0 {
		s.log.InfoContext(ctx, "mention quota reached",
			slog.String("actor_id", in.ActorID.String()),
			slog.String("date", in.Date),
			slog.Int("skipped", out.SkippedQuota),
		)
	}

	return out, nil
}

// TextInput is a recording request carrying raw content instead of
// resolved targets.
type TextInput struct {
	ActorID  uuid.UUID
	Text     string
	Context  domain.MentionContext
	SourceID uuid.UUID
	StoryID  uuid.UUID
	GroupID  *uuid.UUID
	Date     string
}

// RecordFromText is the composition the content-creation flow calls after
// a comment or judging note is saved: extract handles, resolve them, and
// record under quota. The excerpt is the source text itself, truncated at
// persistence time.
func (s *Service) RecordFromText(ctx context.Context, in TextInput) (RecordOutcome, error) {
	handles := ExtractHandles(in.Text)
	if len(handles) == 0 {
		return RecordOutcome{}, nil
	}

	targets, err := s.ResolveHandles(ctx, handles)
	if err != nil {
		return RecordOutcome{}, fmt.Errorf("mention.RecordFromText: resolve: %w", err)
	}

	return s.RecordMentions(ctx, RecordInput{
		ActorID:  in.ActorID,
		Targets:  targets,
		Context:  in.Context,
		SourceID: in.SourceID,
		StoryID:  in.StoryID,
		GroupID:  in.GroupID,
		Excerpt:  in.Text,
		Date:     in.Date,
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
