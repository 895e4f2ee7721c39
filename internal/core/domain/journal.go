package domain

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry is a publication as stored by the journal.
type JournalEntry struct {
	ID          uuid.UUID
	Event       string
	Payload     []byte // JSON snapshot, already opened if it was sealed
	Delivered   int
	Failed      int
	PublishedAt time.Time
	DurationMS  int64
	CreatedAt   time.Time
}
