package postgres

import (
	"NoticeBoard/internal/core/domain"
	"NoticeBoard/internal/core/ports"
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultAppendTimeout bounds a single journal write made on behalf of Publish.
const DefaultAppendTimeout = 2 * time.Second

// JournalObserver writes every publication to a journal.
// Journal errors are logged and never reach the publisher.
type JournalObserver struct {
	journal ports.PublicationJournal
	timeout time.Duration
	log     zerolog.Logger
}

var _ ports.PublicationObserver = (*JournalObserver)(nil)

// NewJournalObserver adapts journal to ports.PublicationObserver.
func NewJournalObserver(journal ports.PublicationJournal, timeout time.Duration, baseLogger *zerolog.Logger) *JournalObserver {
	if timeout <= 0 {
		timeout = DefaultAppendTimeout
	}
	return &JournalObserver{
		journal: journal,
		timeout: timeout,
		log:     baseLogger.With().Str("component", "journal_observer").Logger(),
	}
}

// ObservePublication appends pub within the configured timeout.
func (o *JournalObserver) ObservePublication(pub domain.Publication) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	if err := o.journal.Append(ctx, pub); err != nil {
		o.log.Error().Err(err).
			Str("event", pub.Event).
			Str("publication_id", pub.ID.String()).
			Msg("Failed to journal publication")
	}
}
