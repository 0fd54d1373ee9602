package mailer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/storyloom/storyloom-backend/internal/domain"
)

// tokenRepo defines the unsubscribe-token persistence the issuer needs.
type tokenRepo interface {
	Create(ctx context.Context, t domain.UnsubscribeToken) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UnsubscribeToken, error)
	Consume(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

// prefsRepo defines the preference write a redeemed token applies.
type prefsRepo interface {
	SetEmailOptOut(ctx context.Context, id uuid.UUID, optOut bool) error
}

// txManager runs a function inside one database transaction.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// unsubscribeClaims is the signed payload of an unsubscribe link token.
// The jti claim keys the single-use row in the token store.
type unsubscribeClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and redeems single-use unsubscribe tokens. The raw
// token is an HS256 JWT; the store keeps only its SHA-256 hash, so a
// database leak exposes no working links.
type TokenIssuer struct {
	log    *slog.Logger
	secret []byte
	tokens tokenRepo
	prefs  prefsRepo
	tx     txManager
}

// NewTokenIssuer creates a new TokenIssuer.
func NewTokenIssuer(logger *slog.Logger, secret []byte, tokens tokenRepo, prefs prefsRepo, tx txManager) *TokenIssuer {
	return &TokenIssuer{
		log:    logger.With("service", "unsubscribe_token"),
		secret: secret,
		tokens: tokens,
		prefs:  prefs,
		tx:     tx,
	}
}

// Issue mints a raw token for the user and purpose, persists its hash, and
// returns the raw token for embedding in an email link. The raw form is
// never stored or logged.
func (i *TokenIssuer) Issue(ctx context.Context, userID uuid.UUID, purpose domain.TokenPurpose) (string, error) {
	if !purpose.IsValid() {
		return "", domain.NewValidationError("purpose", fmt.Sprintf("unknown purpose %q", purpose))
	}

	now := time.Now().UTC()
	id := uuid.New()
	expiresAt := now.Add(domain.UnsubscribeTokenTTL)

	claims := unsubscribeClaims{
		Purpose: purpose.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("unsubscribe token: sign: %w", err)
	}

	err = i.tokens.Create(ctx, domain.UnsubscribeToken{
		ID:        id,
		UserID:    userID,
		TokenHash: hashToken(raw),
		Purpose:   purpose,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("unsubscribe token: store: %w", err)
	}

	return raw, nil
}

// RedeemedToken describes a successfully consumed token.
type RedeemedToken struct {
	UserID  uuid.UUID
	Purpose domain.TokenPurpose
}

// Redeem validates a raw token and consumes it, applying the opt-out it
// authorizes in the same transaction. Failure modes are distinct: a bad or
// forged token is ErrTokenInvalid, a real token past its window is
// ErrTokenExpired, and a replayed one is ErrTokenConsumed. A token is
// consumed at most once; the row flip and the preference write commit
// together or not at all.
func (i *TokenIssuer) Redeem(ctx context.Context, raw string) (*RedeemedToken, error) {
	claims, err := i.parse(raw)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	purpose := domain.TokenPurpose(claims.Purpose)
	if !purpose.IsValid() {
		return nil, domain.ErrTokenInvalid
	}

	now := time.Now().UTC()

	err = i.tx.RunInTx(ctx, func(ctx context.Context) error {
		stored, err := i.tokens.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrTokenInvalid
			}
			return fmt.Errorf("unsubscribe token: load: %w", err)
		}
		if stored.TokenHash != hashToken(raw) || stored.UserID != userID {
			return domain.ErrTokenInvalid
		}
		if stored.ConsumedAt != nil {
			return domain.ErrTokenConsumed
		}
		if !now.Before(stored.ExpiresAt) {
			return domain.ErrTokenExpired
		}

		consumed, err := i.tokens.Consume(ctx, id, now)
		if err != nil {
			return fmt.Errorf("unsubscribe token: consume: %w", err)
		}
		if !consumed {
			// Lost the race to a concurrent redeem of the same link.
			return domain.ErrTokenConsumed
		}

		// The users table carries one global opt-out flag; every purpose
		// maps onto it until per-category preferences exist. The purpose
		// stays on the token row for audit.
		if err := i.prefs.SetEmailOptOut(ctx, userID, true); err != nil {
			return fmt.Errorf("unsubscribe token: apply opt-out: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	i.log.InfoContext(ctx, "unsubscribe token redeemed",
		slog.String("user_id", userID.String()),
		slog.String("purpose", purpose.String()),
	)

	return &RedeemedToken{UserID: userID, Purpose: purpose}, nil
}

func (i *TokenIssuer) parse(raw string) (*unsubscribeClaims, error) {
	claims := &unsubscribeClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
