package mailer

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storyloom/storyloom-backend/internal/adapter/provider/resend"
	"github.com/storyloom/storyloom-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Manual mocks (moq-style with func fields)
// ---------------------------------------------------------------------------

type mockEmailLogRepo struct {
	CreateFunc                   func(ctx context.Context, e domain.EmailLogEntry) error
	ApplyDeliveryStatusFunc      func(ctx context.Context, providerMessageID string, status domain.EmailStatus, webhookMeta map[string]any) (bool, error)
	ExistsForUserTypeBetweenFunc func(ctx context.Context, userID uuid.UUID, emailType domain.EmailType, from, to time.Time) (bool, error)

	created []domain.EmailLogEntry
}

func (m *mockEmailLogRepo) Create(ctx context.Context, e domain.EmailLogEntry) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, e); err != nil {
			return err
		}
	}
	m.created = append(m.created, e)
	return nil
}

func (m *mockEmailLogRepo) ApplyDeliveryStatus(ctx context.Context, providerMessageID string, status domain.EmailStatus, webhookMeta map[string]any) (bool, error) {
	return m.ApplyDeliveryStatusFunc(ctx, providerMessageID, status, webhookMeta)
}

func (m *mockEmailLogRepo) ExistsForUserTypeBetween(ctx context.Context, userID uuid.UUID, emailType domain.EmailType, from, to time.Time) (bool, error) {
	return m.ExistsForUserTypeBetweenFunc(ctx, userID, emailType, from, to)
}

type mockSettingsRepo struct {
	EmailsEnabledFunc func(ctx context.Context) (bool, error)
}

func (m *mockSettingsRepo) EmailsEnabled(ctx context.Context) (bool, error) {
	return m.EmailsEnabledFunc(ctx)
}

type mockTransport struct {
	SendFunc func(ctx context.Context, msg resend.Message) (string, error)

	sent []resend.Message
}

func (m *mockTransport) Send(ctx context.Context, msg resend.Message) (string, error) {
	m.sent = append(m.sent, msg)
	return m.SendFunc(ctx, msg)
}

type mockTokenRepo struct {
	CreateFunc  func(ctx context.Context, t domain.UnsubscribeToken) error
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.UnsubscribeToken, error)
	ConsumeFunc func(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)

	created []domain.UnsubscribeToken
}

func (m *mockTokenRepo) Create(ctx context.Context, t domain.UnsubscribeToken) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, t); err != nil {
			return err
		}
	}
	m.created = append(m.created, t)
	return nil
}

func (m *mockTokenRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.UnsubscribeToken, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockTokenRepo) Consume(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return m.ConsumeFunc(ctx, id, now)
}

type mockPrefsRepo struct {
	SetEmailOptOutFunc func(ctx context.Context, id uuid.UUID, optOut bool) error

	optOuts []uuid.UUID
}

func (m *mockPrefsRepo) SetEmailOptOut(ctx context.Context, id uuid.UUID, optOut bool) error {
	if m.SetEmailOptOutFunc != nil {
		if err := m.SetEmailOptOutFunc(ctx, id, optOut); err != nil {
			return err
		}
	}
	if optOut {
		m.optOuts = append(m.optOuts, id)
	}
	return nil
}

// fakeTxManager runs the callback directly, no transaction.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		SenderAddress:      "Storyloom <no-reply@storyloom.dev>",
		SubjectPrefix:      "[Storyloom] ",
		UnsubscribeBaseURL: "https://storyloom.dev/unsubscribe",
		DayLocation:        time.UTC,
	}
}

func settingsEnabled(v bool) *mockSettingsRepo {
	return &mockSettingsRepo{
		EmailsEnabledFunc: func(ctx context.Context) (bool, error) { return v, nil },
	}
}

func transportOK(messageID string) *mockTransport {
	return &mockTransport{
		SendFunc: func(ctx context.Context, msg resend.Message) (string, error) { return messageID, nil },
	}
}

func newTestMailer(entries *mockEmailLogRepo, settings *mockSettingsRepo, tr *mockTransport, tokens *TokenIssuer) *Service {
	return NewService(discardLogger(), testConfig(), entries, settings, tr, tokens)
}
