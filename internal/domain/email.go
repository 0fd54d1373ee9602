package domain

import (
	"time"

	"github.com/google/uuid"
)

// EmailType is the closed set of transactional email categories.
type EmailType string

const (
	EmailTypeWelcome          EmailType = "welcome"
	EmailTypeCommentReply     EmailType = "comment_reply"
	EmailTypeMention          EmailType = "mention_notification"
	EmailTypeJudgeAssignment  EmailType = "judge_assignment"
	EmailTypeWeeklyDigest     EmailType = "weekly_digest"
	EmailTypeAdminReportNotif EmailType = "admin_report_notification"
	EmailTypeUserReportNotif  EmailType = "user_report_notification"
)

func (t EmailType) String() string { return string(t) }

func (t EmailType) IsValid() bool {
	switch t {
	case EmailTypeWelcome, EmailTypeCommentReply, EmailTypeMention,
		EmailTypeJudgeAssignment, EmailTypeWeeklyDigest,
		EmailTypeAdminReportNotif, EmailTypeUserReportNotif:
		return true
	}
	return false
}

// IsCritical reports whether the type bypasses the global kill switch.
// Abuse-report notifications must go out even when routine email is off.
func (t EmailType) IsCritical() bool {
	switch t {
	case EmailTypeAdminReportNotif, EmailTypeUserReportNotif:
		return true
	}
	return false
}

// EmailStatus is the delivery state of a logged send attempt.
type EmailStatus string

const (
	EmailStatusSent       EmailStatus = "sent"
	EmailStatusFailed     EmailStatus = "failed"
	EmailStatusDelivered  EmailStatus = "delivered"
	EmailStatusBounced    EmailStatus = "bounced"
	EmailStatusComplained EmailStatus = "complained"
)

func (s EmailStatus) String() string { return string(s) }

func (s EmailStatus) IsValid() bool {
	switch s {
	case EmailStatusSent, EmailStatusFailed, EmailStatusDelivered,
		EmailStatusBounced, EmailStatusComplained:
		return true
	}
	return false
}

// IsProviderTerminal reports whether s is a state only the delivery
// provider can move an entry into.
func (s EmailStatus) IsProviderTerminal() bool {
	switch s {
	case EmailStatusDelivered, EmailStatusBounced, EmailStatusComplained:
		return true
	}
	return false
}

// EmailLogEntry is the audit record for one send attempt. Created by the
// dispatcher with status sent or failed; later moved to a provider
// terminal state by reconciliation, matched on ProviderMessageID.
// "No entry" unambiguously means "never attempted".
type EmailLogEntry struct {
	ID                uuid.UUID
	UserID            *uuid.UUID
	EmailType         EmailType
	RecipientEmail    string
	Status            EmailStatus
	ProviderMessageID *string
	Metadata          map[string]any
	SentAt            time.Time
}
