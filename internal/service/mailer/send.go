package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storyloom/storyloom-backend/internal/adapter/provider/resend"
	"github.com/storyloom/storyloom-backend/internal/domain"
)

// SendInput is one dispatch request.
type SendInput struct {
	// UserID is the recipient's account, when the email targets a known
	// user. System mail to external addresses leaves it nil.
	UserID    *uuid.UUID
	Recipient string
	EmailType domain.EmailType
	Subject   string
	HTML      string
	Metadata  map[string]any
	// UnsubscribePurpose, when set, makes Send mint a single-use token and
	// attach List-Unsubscribe headers. Requires UserID.
	UnsubscribePurpose domain.TokenPurpose
}

// Validate checks the input fields.
func (in SendInput) Validate() error {
	var errs []domain.FieldError

	if in.Recipient == "" || !strings.Contains(in.Recipient, "@") {
		errs = append(errs, domain.FieldError{Field: "recipient", Message: "must be an email address"})
	}
	if !in.EmailType.IsValid() {
		errs = append(errs, domain.FieldError{Field: "email_type", Message: fmt.Sprintf("unknown type %q", in.EmailType)})
	}
	if in.Subject == "" {
		errs = append(errs, domain.FieldError{Field: "subject", Message: "required"})
	}
	if in.HTML == "" {
		errs = append(errs, domain.FieldError{Field: "html", Message: "required"})
	}
	if in.UnsubscribePurpose != "" {
		if !in.UnsubscribePurpose.IsValid() {
			errs = append(errs, domain.FieldError{Field: "unsubscribe_purpose", Message: fmt.Sprintf("unknown purpose %q", in.UnsubscribePurpose)})
		}
		if in.UserID == nil {
			errs = append(errs, domain.FieldError{Field: "user_id", Message: "required for unsubscribe links"})
		}
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// SendResult is the structured outcome of one dispatch request. Provider
// failures land here rather than in the error return: they are an expected
// outcome, recorded in the audit log, not a caller fault.
type SendResult struct {
	Success bool
	// Skipped is true when the kill switch stopped the send before any
	// provider call. No log entry exists in that case.
	Skipped           bool
	ErrorMessage      string
	ProviderMessageID string
	EntryID           uuid.UUID
}

// Send dispatches one email through the provider and appends exactly one
// audit-log entry for the attempt, status sent or failed. When the global
// kill switch is off and the type is not critical, nothing is sent and
// nothing is logged. The error return covers internal faults only (bad
// input, settings or log store unreachable).
func (s *Service) Send(ctx context.Context, in SendInput) (SendResult, error) {
	if err := in.Validate(); err != nil {
		return SendResult{}, err
	}

	enabled, err := s.settings.EmailsEnabled(ctx)
	if err != nil {
		return SendResult{}, fmt.Errorf("mailer.Send: read kill switch: %w", err)
	}
	if !Allow(in.EmailType, enabled) {
		s.log.InfoContext(ctx, "email suppressed by kill switch",
			slog.String("email_type", in.EmailType.String()),
			slog.String("recipient", in.Recipient),
		)
		return SendResult{Skipped: true, ErrorMessage: "emails disabled"}, nil
	}

	msg := resend.Message{
		From:    s.cfg.SenderAddress,
		To:      []string{in.Recipient},
		Subject: s.prefixSubject(in.Subject),
		HTML:    in.HTML,
	}
	if in.UnsubscribePurpose != "" {
		headers, err := s.unsubscribeHeaders(ctx, *in.UserID, in.UnsubscribePurpose)
		if err != nil {
			// Degrade rather than block the send: the email still goes
			// out, just without the one-click header.
			s.log.WarnContext(ctx, "unsubscribe token issue failed",
				slog.String("user_id", in.UserID.String()),
				slog.String("error", err.Error()),
			)
		} else {
			msg.Headers = headers
		}
	}

	entry := domain.EmailLogEntry{
		ID:             uuid.New(),
		UserID:         in.UserID,
		EmailType:      in.EmailType,
		RecipientEmail: in.Recipient,
		Metadata:       in.Metadata,
		SentAt:         time.Now().UTC(),
	}
	result := SendResult{EntryID: entry.ID}

	messageID, sendErr := s.provider.Send(ctx, msg)
	if sendErr != nil {
		entry.Status = domain.EmailStatusFailed
		entry.Metadata = withError(entry.Metadata, sendErr)
		result.ErrorMessage = sendErr.Error()
		s.log.ErrorContext(ctx, "email send failed",
			slog.String("email_type", in.EmailType.String()),
			slog.String("recipient", in.Recipient),
			slog.String("error", sendErr.Error()),
		)
	} else {
		entry.Status = domain.EmailStatusSent
		entry.ProviderMessageID = &messageID
		result.Success = true
		result.ProviderMessageID = messageID
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return SendResult{}, fmt.Errorf("mailer.Send: log attempt: %w", err)
	}

	if result.Success {
		s.log.InfoContext(ctx, "email sent",
			slog.String("email_type", in.EmailType.String()),
			slog.String("recipient", in.Recipient),
			slog.String("provider_message_id", messageID),
		)
	}

	return result, nil
}

// prefixSubject prepends the configured subject prefix once. A subject that
// already carries it passes through unchanged, so retried or re-rendered
// content never stacks prefixes.
func (s *Service) prefixSubject(subject string) string {
	if s.cfg.SubjectPrefix == "" || strings.HasPrefix(subject, s.cfg.SubjectPrefix) {
		return subject
	}
	return s.cfg.SubjectPrefix + subject
}

func (s *Service) unsubscribeHeaders(ctx context.Context, userID uuid.UUID, purpose domain.TokenPurpose) (map[string]string, error) {
	if s.tokens == nil {
		return nil, fmt.Errorf("mailer: no token issuer configured")
	}

	raw, err := s.tokens.Issue(ctx, userID, purpose)
	if err != nil {
		return nil, err
	}

	link := s.cfg.UnsubscribeBaseURL + "?token=" + url.QueryEscape(raw)
	return map[string]string{
		"List-Unsubscribe":      "<" + link + ">",
		"List-Unsubscribe-Post": "List-Unsubscribe=One-Click",
	}, nil
}

func withError(m map[string]any, err error) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
