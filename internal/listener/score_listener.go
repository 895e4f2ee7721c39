package listener

import (
	"NoticeBoard/internal/core/ports"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// LiveScoreAlerts is the event a ScoreListener follows.
const LiveScoreAlerts = "Live score alerts"

// ScoreListener is a sample consumer of the registry.
// It keeps the text of every alert it received.
type ScoreListener struct {
	registry ports.EventRegistry
	log      zerolog.Logger

	mu       sync.Mutex
	received []string
}

// NewScoreListener creates a listener bound to registry.
func NewScoreListener(registry ports.EventRegistry, baseLogger *zerolog.Logger) *ScoreListener {
	return &ScoreListener{
		registry: registry,
		log:      baseLogger.With().Str("component", "score_listener").Logger(),
	}
}

// Listen subscribes the listener to live score alerts.
func (l *ScoreListener) Listen() {
	l.registry.Subscribe(l, LiveScoreAlerts, func(name string, payload any) {
		text := fmt.Sprintf("%s notification closure: %v", name, payload)
		l.log.Info().Str("event", name).Msg(text)

		l.mu.Lock()
		l.received = append(l.received, text)
		l.mu.Unlock()
	})
}

// StopListening removes the subscriptions of every ScoreListener.
func (l *ScoreListener) StopListening() {
	l.registry.Unsubscribe(l)
}

// Received returns the alerts seen so far.
func (l *ScoreListener) Received() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.received...)
}
