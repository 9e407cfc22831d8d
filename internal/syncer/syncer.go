// Package syncer reconciles the upstream monitor's watched-address set with
// the wallet registry. The registry is the source of truth: push failures
// are surfaced as warnings and retried on the next trigger or tick, never
// rolled back into the registry.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wallet-sentry/internal/helius"
	"wallet-sentry/internal/observability"
)

// DefaultReconcileInterval is how often a full sync runs without triggers.
const DefaultReconcileInterval = 10 * time.Minute

// DefaultPushTimeout bounds one reconciliation push.
const DefaultPushTimeout = 45 * time.Second

// AddressSource provides the desired watch-list, in a stable order.
type AddressSource interface {
	Addresses(ctx context.Context) ([]string, error)
}

// SubscriptionClient manages the upstream webhook resource. Implemented by
// helius.Client; pushes must be replace-style and idempotent.
type SubscriptionClient interface {
	WebhookURL() string
	List(ctx context.Context) ([]helius.Webhook, error)
	Create(ctx context.Context, addresses []string) (string, error)
	Update(ctx context.Context, webhookID string, addresses []string) error
	Delete(ctx context.Context, webhookID string) error
}

// Syncer coalesces sync triggers into at most one in-flight push plus one
// pending follow-up, and reconciles periodically as a safety net.
type Syncer struct {
	source    AddressSource
	client    SubscriptionClient
	logger    *zap.Logger
	interval  time.Duration
	timeout   time.Duration
	triggerCh chan struct{}
	metrics   *observability.Metrics

	// webhookID is the upstream resource ID once known. Accessed only from
	// the Run goroutine.
	webhookID string
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithReconcileInterval sets the periodic reconciliation interval.
func WithReconcileInterval(d time.Duration) Option {
	return func(s *Syncer) {
		s.interval = d
	}
}

// WithPushTimeout bounds a single reconciliation push.
func WithPushTimeout(d time.Duration) Option {
	return func(s *Syncer) {
		s.timeout = d
	}
}

// WithMetrics enables sync run instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Syncer) {
		s.metrics = m
	}
}

// New creates a Syncer.
func New(source AddressSource, client SubscriptionClient, logger *zap.Logger, opts ...Option) *Syncer {
	s := &Syncer{
		source:   source,
		client:   client,
		logger:   logger,
		interval: DefaultReconcileInterval,
		timeout:  DefaultPushTimeout,
		// Capacity 1: a trigger during an in-flight sync schedules exactly
		// one follow-up run, extra triggers collapse into it.
		triggerCh: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Trigger schedules a sync run. Never blocks.
func (s *Syncer) Trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// Run processes triggers and periodic ticks until ctx is cancelled.
// Sync failures are logged, not returned: the next trigger or tick retries.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.triggerCh:
		case <-ticker.C:
		}

		if err := s.syncOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if s.metrics != nil {
				s.metrics.SyncRuns.WithLabelValues("error").Inc()
			}
			s.logger.Warn("subscription sync failed; registry remains authoritative",
				zap.Error(err))
			continue
		}
		if s.metrics != nil {
			s.metrics.SyncRuns.WithLabelValues("ok").Inc()
		}
	}
}

// syncOnce pushes the full current address set upstream.
func (s *Syncer) syncOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	addrs, err := s.source.Addresses(ctx)
	if err != nil {
		return fmt.Errorf("read registry addresses: %w", err)
	}
	if s.metrics != nil {
		s.metrics.TrackedWallets.Set(float64(len(addrs)))
	}

	if len(addrs) == 0 {
		return s.teardown(ctx)
	}

	id, err := s.ensureWebhookID(ctx)
	if err != nil {
		return err
	}
	if id == "" {
		// No webhook yet: create it with the full set in one call.
		created, err := s.client.Create(ctx, addrs)
		if err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		s.webhookID = created
		s.logger.Info("subscription created",
			zap.String("webhook_id", created),
			zap.Int("addresses", len(addrs)))
		return nil
	}

	if err := s.client.Update(ctx, id, addrs); err != nil {
		return fmt.Errorf("push watch-list: %w", err)
	}
	s.logger.Info("subscription synchronized",
		zap.String("webhook_id", id),
		zap.Int("addresses", len(addrs)))
	return nil
}

// ensureWebhookID discovers an existing upstream webhook registered for our
// delivery URL, adopting it instead of creating a duplicate.
func (s *Syncer) ensureWebhookID(ctx context.Context) (string, error) {
	if s.webhookID != "" {
		return s.webhookID, nil
	}

	hooks, err := s.client.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list subscriptions: %w", err)
	}
	for _, h := range hooks {
		if h.WebhookURL == s.client.WebhookURL() {
			s.webhookID = h.WebhookID
			return h.WebhookID, nil
		}
	}
	return "", nil
}

// teardown removes the upstream webhook when no wallets remain tracked.
func (s *Syncer) teardown(ctx context.Context) error {
	id, err := s.ensureWebhookID(ctx)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}
	if err := s.client.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	s.webhookID = ""
	s.logger.Info("subscription removed; no wallets tracked")
	return nil
}
