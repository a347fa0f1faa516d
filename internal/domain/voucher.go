package domain

import (
	"time"

	"github.com/google/uuid"
)

// Voucher is a per-user, per-product entitlement. The code is globally
// unique and a user may hold at most one voucher per product; both rules
// are backed by database constraints.
type Voucher struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Code      string    `json:"code" db:"code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
