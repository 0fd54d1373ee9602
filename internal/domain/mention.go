package domain

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MentionQuotaPerDay is the hard ceiling on mentions a single actor may
// record per calendar day.
const MentionQuotaPerDay = 30

// MentionExcerptMaxLen is the maximum excerpt length in runes.
const MentionExcerptMaxLen = 240

// MentionContext identifies the kind of content a mention was found in.
type MentionContext string

const (
	MentionContextComment   MentionContext = "comment"
	MentionContextJudgeNote MentionContext = "judge_note"
)

func (c MentionContext) String() string { return string(c) }

func (c MentionContext) IsValid() bool {
	switch c {
	case MentionContextComment, MentionContextJudgeNote:
		return true
	}
	return false
}

// Mention records that an actor referenced a target user via @handle.
// Immutable once created: never updated or deleted by this subsystem.
// At most MentionQuotaPerDay rows share an (ActorID, Date) pair, and
// ActorID never equals TargetID.
type Mention struct {
	ID        uuid.UUID
	ActorID   uuid.UUID
	TargetID  uuid.UUID
	Context   MentionContext
	SourceID  uuid.UUID
	StoryID   uuid.UUID
	GroupID   *uuid.UUID
	Excerpt   string
	Date      string // calendar day key, YYYY-MM-DD
	CreatedAt time.Time
}

// TruncateExcerpt shortens s to MentionExcerptMaxLen runes.
func TruncateExcerpt(s string) string {
	if utf8.RuneCountInString(s) <= MentionExcerptMaxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:MentionExcerptMaxLen])
}

// DayKey formats t in loc as a YYYY-MM-DD calendar day key. Callers choose
// the canonical timezone; the recorder never consults the server clock.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
