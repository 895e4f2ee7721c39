package ports

import (
	"context"
)

// SendMessageParams holds the options for sending a chat message.
type SendMessageParams struct {
	ChatID    int64
	Text      string
	ParseMode string // e.g., "MarkdownV2" or "HTML"; empty for plain text
}

// BotClientPort defines the interface for *sending* messages.
// The Telegram forwarder talks to the chat only through it.
type BotClientPort interface {
	SendMessage(ctx context.Context, params SendMessageParams) (int, error)
}
