package telegram

import (
	"NoticeBoard/internal/core/ports"
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSender stands in for *tgbotapi.BotAPI
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func TestClient_SendMessage(t *testing.T) {
	nopLogger := zerolog.Nop()
	api := new(MockSender)
	client := newClient(api, &nopLogger)

	api.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == 1000 && msg.Text == "goal: 1-0" && msg.ParseMode == "HTML"
	})).Return(tgbotapi.Message{MessageID: 77}, nil).Once()

	id, err := client.SendMessage(context.Background(), ports.SendMessageParams{
		ChatID:    1000,
		Text:      "goal: 1-0",
		ParseMode: "HTML",
	})

	require.NoError(t, err)
	assert.Equal(t, 77, id)
	api.AssertExpectations(t)
}

func TestClient_SendMessage_Errors(t *testing.T) {
	nopLogger := zerolog.Nop()
	api := new(MockSender)
	client := newClient(api, &nopLogger)

	api.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("Bad Request: chat not found")).Once()

	_, err := client.SendMessage(context.Background(), ports.SendMessageParams{ChatID: 1})
	assert.Error(t, err)

	// A cancelled context never reaches the API
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.SendMessage(ctx, ports.SendMessageParams{ChatID: 1})
	assert.ErrorIs(t, err, context.Canceled)

	api.AssertExpectations(t)
}
