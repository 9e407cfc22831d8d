// Package telegram delivers alerts and serves wallet-management commands
// over the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// sender is the slice of the bot API the sink needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Sink sends rendered alert text to a single chat. Transient API failures
// (rate limits, server errors) are retried with backoff; malformed-request
// errors are not.
type Sink struct {
	api        sender
	chatID     int64
	logger     *zap.Logger
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

func WithSinkRetries(n int) SinkOption {
	return func(s *Sink) { s.maxRetries = n }
}

func WithSinkRetryDelay(d time.Duration) SinkOption {
	return func(s *Sink) { s.retryDelay = d }
}

// NewSink builds a Sink over an authenticated bot API.
func NewSink(api sender, chatID int64, logger *zap.Logger, opts ...SinkOption) *Sink {
	s := &Sink{
		api:        api,
		chatID:     chatID,
		logger:     logger,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send delivers one MarkdownV2 message, retrying transient failures until
// the retry budget or the context runs out.
func (s *Sink) Send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBackoff(lastErr, s.retryDelay, attempt, s.maxDelay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if _, err := s.api.Send(msg); err != nil {
			lastErr = err
			if !isRetryable(err) {
				return fmt.Errorf("send message: %w", err)
			}
			s.logger.Warn("telegram send failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}
		return nil
	}

	return fmt.Errorf("send message after %d attempts: %w", s.maxRetries+1, lastErr)
}

// isRetryable reports whether an API error is worth another attempt.
// Rate limits and server-side failures are; bad requests are not.
func isRetryable(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		// Transport-level failure.
		return true
	}
	if apiErr.RetryAfter > 0 || apiErr.Code == 429 {
		return true
	}
	return apiErr.Code >= 500
}

// retryBackoff picks the wait before the given attempt, honoring the
// server's Retry-After when present.
func retryBackoff(err error, base time.Duration, attempt int, max time.Duration) time.Duration {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}

	delay := base * time.Duration(1<<(attempt-1))
	if delay > max {
		delay = max
	}
	return delay
}
