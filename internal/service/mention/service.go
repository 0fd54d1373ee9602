// Package mention implements the quota-enforced mention recording pipeline:
// handle extraction, identity resolution, and per-actor daily quota
// accounting over the mention store.
package mention

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/storyloom/storyloom-backend/internal/domain"
)

// userRepo defines the identity lookup needed to resolve handles.
type userRepo interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// mentionRepo defines the mention persistence needed by the recorder.
type mentionRepo interface {
	Create(ctx context.Context, m domain.Mention) error
	CountForActorDay(ctx context.Context, actorID uuid.UUID, date string) (int, error)
}

// Service implements mention extraction, resolution, and recording.
type Service struct {
	log      *slog.Logger
	users    userRepo
	mentions mentionRepo
}

// NewService creates a new mention service instance.
func NewService(logger *slog.Logger, users userRepo, mentions mentionRepo) *Service {
	return &Service{
		log:      logger.With("service", "mention"),
		users:    users,
		mentions: mentions,
	}
}

// ResolvedTarget pairs a handle with the user it resolved to.
type ResolvedTarget struct {
	Handle string
	UserID uuid.UUID
}

// ResolveHandles looks up candidate handles against the unique username
// index. Unknown handles are silently dropped: mentioning a user that does
// not exist is not a failure. Results keep input order.
func (s *Service) ResolveHandles(ctx context.Context, handles []string) ([]ResolvedTarget, error) {
	targets := make([]ResolvedTarget, 0, len(handles))

	for _, h := range handles {
		u, err := s.users.GetByUsername(ctx, h)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		targets = append(targets, ResolvedTarget{Handle: h, UserID: u.ID})
	}

	return targets, nil
}
