package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the minimal identity record this subsystem needs: enough to
// resolve @handle mentions and address outbound email. Account management
// lives in the surrounding CRUD layer.
type User struct {
	ID          uuid.UUID
	Username    string
	Email       string
	Name        string
	EmailOptOut bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
