// internal/model/entry.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one guestbook record. Entries are never updated or deleted.
type Entry struct {
	ID        uuid.UUID `db:"id" json:"-"`
	Name      string    `db:"name" json:"name"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
