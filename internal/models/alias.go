package models

import (
	"time"

	"github.com/google/uuid"
)

// UserAlias collapses a raw invocation identity into a canonical username,
// so that one person's multiple roles and keys report as a single user.
type UserAlias struct {
	ID        uuid.UUID `db:"id"`
	Alias     string    `db:"alias"`    // raw identity as it appears in logs
	Username  string    `db:"username"` // canonical username to report
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
