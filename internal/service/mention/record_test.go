package mention

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyloom/storyloom-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Manual mocks (moq-style with func fields)
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	GetByUsernameFunc func(ctx context.Context, username string) (*domain.User, error)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.GetByUsernameFunc(ctx, username)
}

type mockMentionRepo struct {
	CreateFunc           func(ctx context.Context, m domain.Mention) error
	CountForActorDayFunc func(ctx context.Context, actorID uuid.UUID, date string) (int, error)

	created []domain.Mention
}

func (m *mockMentionRepo) Create(ctx context.Context, mn domain.Mention) error {
	if err := m.CreateFunc(ctx, mn); err != nil {
		return err
	}
	m.created = append(m.created, mn)
	return nil
}

func (m *mockMentionRepo) CountForActorDay(ctx context.Context, actorID uuid.UUID, date string) (int, error) {
	return m.CountForActorDayFunc(ctx, actorID, date)
}

func newTestService(users userRepo, mentions mentionRepo) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, users, mentions)
}

func acceptAllRepo(current int) *mockMentionRepo {
	return &mockMentionRepo{
		CreateFunc:           func(ctx context.Context, m domain.Mention) error { return nil },
		CountForActorDayFunc: func(ctx context.Context, actorID uuid.UUID, date string) (int, error) { return current, nil },
	}
}

func validInput(actorID uuid.UUID, targets []ResolvedTarget) RecordInput {
	return RecordInput{
		ActorID:  actorID,
		Targets:  targets,
		Context:  domain.MentionContextComment,
		SourceID: uuid.New(),
		StoryID:  uuid.New(),
		Excerpt:  "some comment text",
		Date:     "2024-06-01",
	}
}

func targetsN(n int) []ResolvedTarget {
	ts := make([]ResolvedTarget, n)
	for i := range ts {
		ts[i] = ResolvedTarget{Handle: "user" + string(rune('a'+i)), UserID: uuid.New()}
	}
	return ts
}

// ---------------------------------------------------------------------------
// ResolveHandles
// ---------------------------------------------------------------------------

func TestService_ResolveHandles_DropsUnknown(t *testing.T) {
	t.Parallel()

	bobID := uuid.New()
	users := &mockUserRepo{
		GetByUsernameFunc: func(ctx context.Context, username string) (*domain.User, error) {
			if username == "bob" {
				return &domain.User{ID: bobID, Username: "bob"}, nil
			}
			return nil, domain.ErrNotFound
		},
	}

	svc := newTestService(users, nil)
	targets, err := svc.ResolveHandles(context.Background(), []string{"ghost", "bob", "nobody"})

	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, ResolvedTarget{Handle: "bob", UserID: bobID}, targets[0])
}

func TestService_ResolveHandles_PropagatesStoreError(t *testing.T) {
	t.Parallel()

	boom := errors.New("store down")
	users := &mockUserRepo{
		GetByUsernameFunc: func(ctx context.Context, username string) (*domain.User, error) {
			return nil, boom
		},
	}

	svc := newTestService(users, nil)
	_, err := svc.ResolveHandles(context.Background(), []string{"bob"})

	require.ErrorIs(t, err, boom)
}

// ---------------------------------------------------------------------------
// RecordMentions
// ---------------------------------------------------------------------------

func TestService_RecordMentions_SelfMentionSkipped(t *testing.T) {
	t.Parallel()

	actorID := uuid.New()
	mentions := acceptAllRepo(0)
	svc := newTestService(nil, mentions)

	out, err := svc.RecordMentions(context.Background(), validInput(actorID,
		[]ResolvedTarget{{Handle: "me", UserID: actorID}}))

	require.NoError(t, err)
	assert.Equal(t, RecordOutcome{Inserted: 0, SkippedSelf: 1, SkippedQuota: 0}, out)
	assert.Empty(t, mentions.created, "self-mention must not be persisted")
}

func TestService_RecordMentions_QuotaBoundary(t *testing.T) {
	t.Parallel()

	// 29 existing, 3 non-self targets: only one slot left.
	targets := targetsN(3)
	mentions := acceptAllRepo(29)
	svc := newTestService(nil, mentions)

	out, err := svc.RecordMentions(context.Background(), validInput(uuid.New(), targets))

	require.NoError(t, err)
	assert.Equal(t, RecordOutcome{Inserted: 1, SkippedSelf: 0, SkippedQuota: 2}, out)
	require.Len(t, mentions.created, 1)
	assert.Equal(t, targets[0].UserID, mentions.created[0].TargetID,
		"first target in input order wins the last slot")
}

func TestService_RecordMentions_QuotaExactExhaustion(t *testing.T) {
	t.Parallel()

	mentions := acceptAllRepo(30)
	svc := newTestService(nil, mentions)

	out, err := svc.RecordMentions(context.Background(), validInput(uuid.New(), targetsN(1)))

	require.NoError(t, err)
	assert.Equal(t, RecordOutcome{Inserted: 0, SkippedSelf: 0, SkippedQuota: 1}, out)
	assert.Empty(t, mentions.created)
}

func TestService_RecordMentions_CountAboveQuotaClampsToZero(t *testing.T) {
	t.Parallel()

	// An overrun day (documented race) must not produce a negative budget.
	mentions := acceptAllRepo(33)
	svc := newTestService(nil, mentions)

	out, err := svc.RecordMentions(context.Background(), validInput(uuid.New(), targetsN(2)))

	require.NoError(t, err)
	assert.Equal(t, RecordOutcome{Inserted: 0, SkippedSelf: 0, SkippedQuota: 2}, out)
}

func TestService_RecordMentions_EveryTargetAccounted(t *testing.T) {
	t.Parallel()

	actorID := uuid.New()
	targets := append(targetsN(4), ResolvedTarget{Handle: "me", UserID: actorID})

	mentions := acceptAllRepo(28)
	svc := newTestService(nil, mentions)

	out, err := svc.RecordMentions(context.Background(), validInput(actorID, targets))

	require.NoError(t, err)
	assert.Equal(t, RecordOutcome{Inserted: 2, SkippedSelf: 1, SkippedQuota: 2}, out)
	assert.Equal(t, len(targets), out.Inserted+out.SkippedSelf+out.SkippedQuota)
}

func TestService_RecordMentions_InsertOrderAndFields(t *testing.T) {
	t.Parallel()

	actorID := uuid.New()
	targets := targetsN(2)
	in := validInput(actorID, targets)
	groupID := uuid.New()
	in.GroupID = &groupID

	mentions := acceptAllRepo(0)
	svc := newTestService(nil, mentions)

	out, err := svc.RecordMentions(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, 2, out.Inserted)
	require.Len(t, mentions.created, 2)

	first := mentions.created[0]
	assert.Equal(t, targets[0].UserID, first.TargetID, "insert order follows input order")
	assert.Equal(t, actorID, first.ActorID)
	assert.Equal(t, domain.MentionContextComment, first.Context)
	assert.Equal(t, in.SourceID, first.SourceID)
	assert.Equal(t, in.StoryID, first.StoryID)
	assert.Equal(t, &groupID, first.GroupID)
	assert.Equal(t, "some comment text", first.Excerpt)
	assert.Equal(t, "2024-06-01", first.Date)
	assert.Equal(t, targets[1].UserID, mentions.created[1].TargetID)
}

func TestService_RecordMentions_InsertFailurePropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("store down")
	calls := 0
	mentions := &mockMentionRepo{
		CountForActorDayFunc: func(ctx context.Context, actorID uuid.UUID, date string) (int, error) { return 0, nil },
		CreateFunc: func(ctx context.Context, m domain.Mention) error {
			calls++
			if calls == 2 {
				return boom
			}
			return nil
		},
	}
	svc := newTestService(nil, mentions)

	_, err := svc.RecordMentions(context.Background(), validInput(uuid.New(), targetsN(3)))

	require.ErrorIs(t, err, boom)
	// The row inserted before the failure stays: at-least-once, no rollback.
	assert.Len(t, mentions.created, 1)
}

func TestService_RecordMentions_ValidationError(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil, acceptAllRepo(0))

	in := validInput(uuid.New(), targetsN(1))
	in.Date = "June 1st"

	_, err := svc.RecordMentions(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_RecordMentions_LongExcerptTruncated(t *testing.T) {
	t.Parallel()

	mentions := acceptAllRepo(0)
	svc := newTestService(nil, mentions)

	in := validInput(uuid.New(), targetsN(1))
	for len(in.Excerpt) < 500 {
		in.Excerpt += " more text"
	}

	_, err := svc.RecordMentions(context.Background(), in)

	require.NoError(t, err)
	require.Len(t, mentions.created, 1)
	assert.LessOrEqual(t, len([]rune(mentions.created[0].Excerpt)), domain.MentionExcerptMaxLen)
}

// ---------------------------------------------------------------------------
// RecordFromText
// ---------------------------------------------------------------------------

func TestService_RecordFromText_EndToEnd(t *testing.T) {
	t.Parallel()

	actorID := uuid.New()
	bobID := uuid.New()

	users := &mockUserRepo{
		GetByUsernameFunc: func(ctx context.Context, username string) (*domain.User, error) {
			switch username {
			case "bob":
				return &domain.User{ID: bobID, Username: "bob"}, nil
			case "self":
				return &domain.User{ID: actorID, Username: "self"}, nil
			}
			return nil, domain.ErrNotFound
		},
	}
	mentions := acceptAllRepo(0)
	svc := newTestService(users, mentions)

	out, err := svc.RecordFromText(context.Background(), TextInput{
		ActorID:  actorID,
		Text:     "hey @bob, also @ghost and @self",
		Context:  domain.MentionContextJudgeNote,
		SourceID: uuid.New(),
		StoryID:  uuid.New(),
		Date:     "2024-06-01",
	})

	require.NoError(t, err)
	// ghost never resolves, self is filtered, bob is recorded.
	assert.Equal(t, RecordOutcome{Inserted: 1, SkippedSelf: 1, SkippedQuota: 0}, out)
	require.Len(t, mentions.created, 1)
	assert.Equal(t, bobID, mentions.created[0].TargetID)
	assert.Equal(t, domain.MentionContextJudgeNote, mentions.created[0].Context)
}

func TestService_RecordFromText_NoHandles(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil, nil)

	out, err := svc.RecordFromText(context.Background(), TextInput{
		ActorID: uuid.New(),
		Text:    "a perfectly ordinary comment",
		Date:    "2024-06-01",
	})

	require.NoError(t, err)
	assert.Equal(t, RecordOutcome{}, out)
}
