package telegram

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	errs []error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	f.sent = append(f.sent, msg)

	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return tgbotapi.Message{}, err
	}
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func TestSinkSend(t *testing.T) {
	api := &fakeSender{}
	sink := NewSink(api, 42, zap.NewNop())

	err := sink.Send(context.Background(), "hello")
	require.NoError(t, err)

	require.Len(t, api.sent, 1)
	assert.Equal(t, int64(42), api.sent[0].ChatID)
	assert.Equal(t, "hello", api.sent[0].Text)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, api.sent[0].ParseMode)
	assert.True(t, api.sent[0].DisableWebPagePreview)
}

func TestSinkRetriesRateLimit(t *testing.T) {
	api := &fakeSender{errs: []error{
		&tgbotapi.Error{Code: 429, ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 0}},
	}}
	sink := NewSink(api, 42, zap.NewNop(), WithSinkRetryDelay(time.Millisecond))

	err := sink.Send(context.Background(), "alert")
	require.NoError(t, err)
	assert.Len(t, api.sent, 2)
}

func TestSinkDoesNotRetryBadRequest(t *testing.T) {
	api := &fakeSender{errs: []error{
		&tgbotapi.Error{Code: 400, Message: "can't parse entities"},
	}}
	sink := NewSink(api, 42, zap.NewNop(), WithSinkRetryDelay(time.Millisecond))

	err := sink.Send(context.Background(), "broken")
	require.Error(t, err)
	assert.Len(t, api.sent, 1)
}

func TestSinkExhaustsRetries(t *testing.T) {
	api := &fakeSender{errs: []error{
		&tgbotapi.Error{Code: 500},
		&tgbotapi.Error{Code: 500},
		&tgbotapi.Error{Code: 500},
	}}
	sink := NewSink(api, 42, zap.NewNop(),
		WithSinkRetries(2), WithSinkRetryDelay(time.Millisecond))

	err := sink.Send(context.Background(), "alert")
	require.Error(t, err)
	assert.Len(t, api.sent, 3)
}

func TestSinkHonorsCancelledContext(t *testing.T) {
	api := &fakeSender{errs: []error{&tgbotapi.Error{Code: 500}}}
	sink := NewSink(api, 42, zap.NewNop(), WithSinkRetryDelay(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sink.Send(ctx, "alert")
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, api.sent, 1)
}
