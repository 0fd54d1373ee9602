package domain

import (
	"time"

	"github.com/google/uuid"
)

// UnsubscribeTokenTTL is the validity window for one-click unsubscribe links.
const UnsubscribeTokenTTL = 30 * 24 * time.Hour

// TokenPurpose is the closed set of preference changes an unsubscribe
// token may authorize.
type TokenPurpose string

const (
	TokenPurposeAllEmail     TokenPurpose = "all_email"
	TokenPurposeWeeklyDigest TokenPurpose = "weekly_digest"
	TokenPurposeMentions     TokenPurpose = "mentions"
)

func (p TokenPurpose) String() string { return string(p) }

func (p TokenPurpose) IsValid() bool {
	switch p {
	case TokenPurposeAllEmail, TokenPurposeWeeklyDigest, TokenPurposeMentions:
		return true
	}
	return false
}

// UnsubscribeToken is a single-use, time-bounded token stored by hash.
// ConsumedAt is set at most once, on first successful validation; a token
// is usable only while ConsumedAt is unset and before ExpiresAt.
type UnsubscribeToken struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TokenHash  string
	Purpose    TokenPurpose
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Usable reports whether the token can still be consumed at now.
func (t UnsubscribeToken) Usable(now time.Time) bool {
	return t.ConsumedAt == nil && now.Before(t.ExpiresAt)
}
