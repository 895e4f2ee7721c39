package domain

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// OwnerKey identifies the runtime type of a subscribing value.
// Every instance of a type shares the same key; T and *T are the same owner.
type OwnerKey struct {
	typ reflect.Type
}

// OwnerKeyOf derives the key for owner.
// It returns false when the owner has no runtime type (a nil interface).
func OwnerKeyOf(owner any) (OwnerKey, bool) {
	typ := reflect.TypeOf(owner)
	if typ == nil {
		return OwnerKey{}, false
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return OwnerKey{typ: typ}, true
}

// IsZero reports whether the key was never derived from an owner.
func (k OwnerKey) IsZero() bool {
	return k.typ == nil
}

// String returns the package-qualified type name, e.g. "listener.ScoreListener".
func (k OwnerKey) String() string {
	if k.typ == nil {
		return "<none>"
	}
	return k.typ.String()
}

// SubscriptionID is the handle returned by Subscribe and accepted by Cancel.
type SubscriptionID = uuid.UUID

// Publication summarizes one call to Publish.
type Publication struct {
	ID        uuid.UUID
	Event     string
	Payload   any
	Delivered int // Handlers that returned normally
	Failures  []*HandlerFailure
	StartedAt time.Time
	Duration  time.Duration
}

// Matched is the number of handlers the publication reached.
func (p Publication) Matched() int {
	return p.Delivered + len(p.Failures)
}

// HandlerFailure records a handler that panicked during delivery.
type HandlerFailure struct {
	Event        string
	Owner        OwnerKey
	Subscription SubscriptionID
	Recovered    any
}

func (f *HandlerFailure) Error() string {
	return fmt.Sprintf("handler %s of %s panicked on %q: %v", f.Subscription, f.Owner, f.Event, f.Recovered)
}

// ErrHandlerPanicked matches every HandlerFailure with errors.Is.
var ErrHandlerPanicked = errors.New("event handler panicked")

func (f *HandlerFailure) Unwrap() error {
	return ErrHandlerPanicked
}
