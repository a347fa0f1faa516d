package domain

import (
	"time"

	"github.com/google/uuid"
)

// EditLock marks the user currently editing a product or category. A lock
// is considered released once ExpiresAt has passed.
type EditLock struct {
	UserID    *uuid.UUID `json:"user_id" db:"editing_user_id"`
	ExpiresAt *time.Time `json:"expires_at" db:"edit_lock_expires_at"`
}

// HeldBy reports whether the lock is currently held and, if so, by whom.
func (l EditLock) HeldBy(now time.Time) (uuid.UUID, bool) {
	if l.UserID == nil || l.ExpiresAt == nil {
		return uuid.Nil, false
	}
	if now.After(*l.ExpiresAt) {
		return uuid.Nil, false
	}
	return *l.UserID, true
}
