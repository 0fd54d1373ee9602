package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/storyloom/storyloom-backend/internal/domain"
)

// Allow reports whether an email of the given type may be dispatched under
// the current kill-switch state. Critical types go out regardless; routine
// types require the switch to be on.
func Allow(emailType domain.EmailType, emailsEnabled bool) bool {
	return emailsEnabled || emailType.IsCritical()
}

// HasReceivedToday reports whether the user already has a log entry of the
// given type within the calendar day containing now. Any entry counts,
// including failed attempts. Advisory only: callers decide whether to skip,
// and nothing in Send enforces it.
func (s *Service) HasReceivedToday(ctx context.Context, userID uuid.UUID, emailType domain.EmailType, now time.Time) (bool, error) {
	local := now.In(s.cfg.DayLocation)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.cfg.DayLocation)
	to := from.Add(24*time.Hour - time.Nanosecond)

	exists, err := s.entries.ExistsForUserTypeBetween(ctx, userID, emailType, from, to)
	if err != nil {
		return false, fmt.Errorf("mailer.HasReceivedToday: %w", err)
	}
	return exists, nil
}
