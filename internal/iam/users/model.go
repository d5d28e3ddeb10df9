package users

import (
	"time"

	"github.com/google/uuid"
)

// User is the IAM-side user record: the source of truth for credentials.
// ExternalID is the opaque identifier handed to third systems; ID is the
// integer primary key used inside this service.
type User struct {
	ID           int64
	ExternalID   uuid.UUID
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
