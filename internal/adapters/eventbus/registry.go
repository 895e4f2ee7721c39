package eventbus

import (
	"NoticeBoard/internal/core/domain"
	"NoticeBoard/internal/core/ports"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// entry is one registered handler inside a bucket.
type entry struct {
	id      domain.SubscriptionID
	handler ports.Handler
}

// bucket maps an event name to its handlers in registration order.
type bucket map[string][]entry

// handleRef locates a subscription for Cancel.
type handleRef struct {
	owner domain.OwnerKey
	event string
}

// target is a handler captured by Publish before delivery starts.
type target struct {
	owner domain.OwnerKey
	entry entry
}

// Registry implements ports.EventRegistry.
// Subscriptions are keyed by the runtime type of the owner, then by event name.
type Registry struct {
	log zerolog.Logger

	mu      sync.RWMutex
	owners  map[domain.OwnerKey]bucket
	handles map[domain.SubscriptionID]handleRef

	isolatePanics bool
	observers     []ports.PublicationObserver
}

var _ ports.EventRegistry = (*Registry)(nil) // Ensure compliance

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithPanicIsolation controls what happens when a handler panics.
// When enabled (the default) the panic is recovered, reported as a
// domain.HandlerFailure, and delivery continues with the next handler.
// When disabled the panic reaches the publisher.
func WithPanicIsolation(enabled bool) Option {
	return func(r *Registry) {
		r.isolatePanics = enabled
	}
}

// WithObserver adds an observer that sees every finished publication.
func WithObserver(obs ports.PublicationObserver) Option {
	return func(r *Registry) {
		if obs != nil {
			r.observers = append(r.observers, obs)
		}
	}
}

// NewRegistry creates a new, empty registry
func NewRegistry(baseLogger *zerolog.Logger, opts ...Option) *Registry {
	r := &Registry{
		log:           baseLogger.With().Str("component", "event_registry").Logger(),
		owners:        make(map[domain.OwnerKey]bucket),
		handles:       make(map[domain.SubscriptionID]handleRef),
		isolatePanics: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers handler for name under the runtime type of owner.
// The same handler may be registered any number of times; it then runs once
// per registration. A nil owner, a nil handler or an empty name is ignored
// and yields uuid.Nil.
func (r *Registry) Subscribe(owner any, name string, handler ports.Handler) domain.SubscriptionID {
	key, ok := domain.OwnerKeyOf(owner)
	if !ok || handler == nil || name == "" {
		r.log.Debug().Str("event", name).Msg("Ignored subscription without owner type, handler or event name")
		return uuid.Nil
	}

	id := uuid.New()

	r.mu.Lock() // Lock for writing to the map
	defer r.mu.Unlock()

	b, exists := r.owners[key]
	if !exists {
		b = make(bucket)
		r.owners[key] = b
	}
	b[name] = append(b[name], entry{id: id, handler: handler})
	r.handles[id] = handleRef{owner: key, event: name}

	r.log.Debug().
		Str("owner", key.String()).
		Str("event", name).
		Str("subscription_id", id.String()).
		Msg("New handler subscribed to event")
	return id
}

// Unsubscribe removes the whole bucket of owner's type: every event and every
// handler, for all instances of that type. It returns false when the type
// held no subscriptions.
func (r *Registry) Unsubscribe(owner any) bool {
	key, ok := domain.OwnerKeyOf(owner)
	if !ok {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, exists := r.owners[key]
	if !exists {
		r.log.Warn().Str("owner", key.String()).Msg("Owner not found")
		return false
	}

	removed := 0
	for _, entries := range b {
		for _, e := range entries {
			delete(r.handles, e.id)
			removed++
		}
	}
	delete(r.owners, key)

	r.log.Debug().Str("owner", key.String()).Int("handlers", removed).Msg("Owner unsubscribed")
	return true
}

// Cancel removes exactly one subscription. Buckets and event lists left
// empty are dropped.
func (r *Registry) Cancel(id domain.SubscriptionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, ok := r.handles[id]
	if !ok {
		return false
	}
	delete(r.handles, id)

	b := r.owners[ref.owner]
	entries := b[ref.event]
	idx := slices.IndexFunc(entries, func(e entry) bool { return e.id == id })
	if idx >= 0 {
		entries = slices.Delete(entries, idx, idx+1)
	}

	if len(entries) == 0 {
		delete(b, ref.event)
	} else {
		b[ref.event] = entries
	}
	if len(b) == 0 {
		delete(r.owners, ref.owner)
	}

	r.log.Debug().
		Str("owner", ref.owner.String()).
		Str("event", ref.event).
		Str("subscription_id", id.String()).
		Msg("Subscription cancelled")
	return true
}

// Publish delivers payload to every handler subscribed to name and returns
// once all of them have run. Handlers of one owner run in registration
// order; the order across owners is unspecified.
//
// Handlers are captured before the first one runs, so a handler may
// subscribe, unsubscribe or publish without deadlocking; such changes apply
// to the next publication. The returned error combines every recovered
// handler panic.
func (r *Registry) Publish(name string, payload any) (domain.Publication, error) {
	pub := domain.Publication{
		ID:        uuid.New(),
		Event:     name,
		Payload:   payload,
		StartedAt: time.Now(),
	}

	targets := r.snapshot(name)
	if len(targets) == 0 {
		// No subscribers for this event, which is fine
		r.log.Debug().Str("event", name).Msg("Published event with no subscribers")
	}

	var errs error
	for _, t := range targets {
		if failure := r.deliver(t, name, payload); failure != nil {
			pub.Failures = append(pub.Failures, failure)
			errs = multierr.Append(errs, failure)
			continue
		}
		pub.Delivered++
	}
	pub.Duration = time.Since(pub.StartedAt)

	for _, obs := range r.observers {
		obs.ObservePublication(pub)
	}

	r.log.Debug().
		Str("event", name).
		Int("delivered", pub.Delivered).
		Int("failed", len(pub.Failures)).
		Dur("duration", pub.Duration).
		Msg("Event published")
	return pub, errs
}

// snapshot copies the handlers registered for name under the read lock.
func (r *Registry) snapshot(name string) []target {
	r.mu.RLock() // Lock for reading the map
	defer r.mu.RUnlock()

	var targets []target
	for key, b := range r.owners {
		for _, e := range b[name] {
			targets = append(targets, target{owner: key, entry: e})
		}
	}
	return targets
}

// deliver runs one handler, recovering a panic when isolation is enabled.
func (r *Registry) deliver(t target, name string, payload any) (failure *domain.HandlerFailure) {
	if r.isolatePanics {
		defer func() {
			if rec := recover(); rec != nil {
				failure = &domain.HandlerFailure{
					Event:        name,
					Owner:        t.owner,
					Subscription: t.entry.id,
					Recovered:    rec,
				}
				r.log.Error().
					Err(failure).
					Str("owner", t.owner.String()).
					Str("event", name).
					Msg("Event handler panicked")
			}
		}()
	}

	t.entry.handler(name, payload)
	return nil
}

// Len returns the total number of live subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Owners returns the keys that currently hold a bucket, sorted by name.
func (r *Registry) Owners() []domain.OwnerKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]domain.OwnerKey, 0, len(r.owners))
	for key := range r.owners {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// HasSubscribers reports whether any owner listens to name.
func (r *Registry) HasSubscribers(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.owners {
		if len(b[name]) > 0 {
			return true
		}
	}
	return false
}
