package ports

import (
	"NoticeBoard/internal/core/domain"
	"context"
)

// Handler receives a published event name and its payload.
type Handler func(name string, payload any)

// EventRegistry defines our in-process pub/sub registry
type EventRegistry interface {
	// Subscribe registers handler for name under the runtime type of owner.
	Subscribe(owner any, name string, handler Handler) domain.SubscriptionID

	// Unsubscribe drops every subscription held by the type of owner.
	Unsubscribe(owner any) bool

	// Cancel drops the single subscription identified by id.
	Cancel(id domain.SubscriptionID) bool

	// Publish delivers payload to every handler subscribed to name.
	Publish(name string, payload any) (domain.Publication, error)
}

// PublicationObserver is notified after every Publish has finished delivery.
type PublicationObserver interface {
	ObservePublication(pub domain.Publication)
}

// PublicationJournal keeps an append-only record of publications.
type PublicationJournal interface {
	Append(ctx context.Context, pub domain.Publication) error
	ListByEvent(ctx context.Context, event string, limit int) ([]domain.JournalEntry, error)
}
