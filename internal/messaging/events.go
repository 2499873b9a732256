package messaging

import (
	"time"

	"github.com/google/uuid"
)

const RoutingEntryCreated = "entry.created"

// EntryCreated is published after an entry has been stored.
type EntryCreated struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
