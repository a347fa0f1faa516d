package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category is a node in the catalog category forest. ParentID is nil for
// root categories. The tree is kept acyclic by an ancestor check on every
// parent assignment.
type Category struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Slug        string     `json:"slug" db:"slug"`
	Description string     `json:"description" db:"description"`
	ImagePath   string     `json:"image_path" db:"image_path"`
	ParentID    *uuid.UUID `json:"parent_id" db:"parent_id"`
	EditLock    EditLock   `json:"edit_lock"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// CategoryNode is a category with its children nested, as returned by the
// tree endpoint. Children are ordered by creation time.
type CategoryNode struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	ParentID  *uuid.UUID      `json:"parent_id"`
	Children  []*CategoryNode `json:"children"`
	CreatedAt time.Time       `json:"created_at"`
}
