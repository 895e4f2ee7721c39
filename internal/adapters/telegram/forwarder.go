package telegram

import (
	"NoticeBoard/internal/core/ports"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// sendTimeout bounds one relayed message.
const sendTimeout = 10 * time.Second

// Forwarder relays registry events to a Telegram chat.
// It subscribes as its own owner type, so Detach removes every relay at once.
type Forwarder struct {
	client ports.BotClientPort
	chatID int64
	log    zerolog.Logger
}

// NewForwarder creates a forwarder that posts into chatID.
func NewForwarder(client ports.BotClientPort, chatID int64, baseLogger *zerolog.Logger) *Forwarder {
	return &Forwarder{
		client: client,
		chatID: chatID,
		log:    baseLogger.With().Str("component", "tg_forwarder").Int64("chat_id", chatID).Logger(),
	}
}

// Attach subscribes Relay to each event on registry.
func (f *Forwarder) Attach(registry ports.EventRegistry, events ...string) {
	for _, event := range events {
		registry.Subscribe(f, event, f.Relay)
		f.log.Info().Str("event", event).Msg("Forwarding event to chat")
	}
}

// Detach drops every subscription held by forwarders.
func (f *Forwarder) Detach(registry ports.EventRegistry) {
	registry.Unsubscribe(f)
}

// Relay sends "<event>: <payload>" to the chat. Send errors are logged.
func (f *Forwarder) Relay(name string, payload any) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	params := ports.SendMessageParams{
		ChatID: f.chatID,
		Text:   FormatNotification(name, payload),
	}
	if _, err := f.client.SendMessage(ctx, params); err != nil {
		f.log.Error().Err(err).Str("event", name).Msg("Failed to relay event")
		return
	}
	f.log.Debug().Str("event", name).Msg("Event relayed")
}

// FormatNotification renders an event as plain chat text.
func FormatNotification(name string, payload any) string {
	switch p := payload.(type) {
	case nil:
		return name
	case fmt.Stringer:
		return fmt.Sprintf("%s: %s", name, p.String())
	default:
		return fmt.Sprintf("%s: %v", name, p)
	}
}
