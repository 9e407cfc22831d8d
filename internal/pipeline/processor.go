// Package pipeline turns validated webhook transactions into delivered
// alerts: classification, re-delivery suppression, token enrichment,
// formatting, and sink delivery, in that order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wallet-sentry/internal/alert"
	"wallet-sentry/internal/classifier"
	"wallet-sentry/internal/domain"
	"wallet-sentry/internal/observability"
	"wallet-sentry/internal/solana"
	"wallet-sentry/internal/tokeninfo"
	"wallet-sentry/internal/webhook"
)

const (
	defaultResolveTimeout = 12 * time.Second
	defaultSendTimeout    = 30 * time.Second
)

// WalletSource provides the tracked set and display names.
type WalletSource interface {
	Snapshot(ctx context.Context) (map[string]struct{}, error)
	Get(ctx context.Context, address string) (*domain.TrackedWallet, error)
}

// Deduplicator decides, atomically, whether an event passes and marks it
// seen in the same step.
type Deduplicator interface {
	ShouldAlert(signature, wallet string) bool
}

// TokenResolver looks up token metadata and price for a mint.
type TokenResolver interface {
	Resolve(ctx context.Context, mint string) (*domain.TokenInfo, error)
}

// AlertSink delivers rendered alert text.
type AlertSink interface {
	Send(ctx context.Context, text string) error
}

// Processor runs the per-transaction alert pipeline.
type Processor struct {
	wallets  WalletSource
	dedup    Deduplicator
	resolver TokenResolver
	sink     AlertSink
	logger   *zap.Logger
	metrics  *observability.Metrics

	resolveTimeout time.Duration
	sendTimeout    time.Duration
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

func WithResolveTimeout(d time.Duration) ProcessorOption {
	return func(p *Processor) { p.resolveTimeout = d }
}

func WithSendTimeout(d time.Duration) ProcessorOption {
	return func(p *Processor) { p.sendTimeout = d }
}

func WithMetrics(m *observability.Metrics) ProcessorOption {
	return func(p *Processor) { p.metrics = m }
}

// NewProcessor wires the pipeline stages together.
func NewProcessor(wallets WalletSource, dedup Deduplicator, resolver TokenResolver, sink AlertSink, logger *zap.Logger, opts ...ProcessorOption) *Processor {
	p := &Processor{
		wallets:        wallets,
		dedup:          dedup,
		resolver:       resolver,
		sink:           sink,
		logger:         logger,
		resolveTimeout: defaultResolveTimeout,
		sendTimeout:    defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process handles one validated webhook transaction end to end. One event
// failing delivery does not stop its siblings; the first delivery error is
// returned after all events were attempted.
func (p *Processor) Process(ctx context.Context, tx *webhook.Transaction) error {
	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.ProcessLatency.Observe(time.Since(start).Seconds())
		}
	}()

	tracked, err := p.wallets.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot tracked wallets: %w", err)
	}

	events := classifier.Classify(tx, tracked)

	var firstErr error
	for _, event := range events {
		if p.metrics != nil {
			p.metrics.SwapsClassified.WithLabelValues(string(event.Direction)).Inc()
		}

		// Mark before send: a crash between mark and delivery loses one
		// alert instead of risking a duplicate on re-delivery.
		if !p.dedup.ShouldAlert(event.Signature, event.WalletAddress) {
			if p.metrics != nil {
				p.metrics.DuplicatesHit.Inc()
			}
			p.logger.Debug("suppressed re-delivered swap",
				zap.String("signature", event.Signature),
				zap.String("wallet", event.WalletAddress))
			continue
		}

		if err := p.emit(ctx, event); err != nil {
			if p.metrics != nil {
				p.metrics.SinkFailures.Inc()
			}
			p.logger.Error("alert delivery failed",
				zap.String("signature", event.Signature),
				zap.String("wallet", event.WalletAddress),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if p.metrics != nil {
			p.metrics.AlertsSent.Inc()
		}
	}
	return firstErr
}

// emit enriches one swap event and sends it.
func (p *Processor) emit(ctx context.Context, event *domain.SwapEvent) error {
	enriched := &domain.EnrichedAlert{
		Swap:       *event,
		WalletName: p.walletName(ctx, event.WalletAddress),
		Token:      p.resolveToken(ctx, event.TokenMint),
	}

	if enriched.Token.PriceUSD != nil {
		value := event.TokenAmount * *enriched.Token.PriceUSD
		enriched.USDValue = &value
	}

	rendered := alert.Format(enriched)

	sendCtx, cancel := context.WithTimeout(ctx, p.sendTimeout)
	defer cancel()
	return p.sink.Send(sendCtx, rendered.Text)
}

// resolveToken fetches token metadata, degrading to a truncated mint as the
// symbol when the lookup fails entirely. Alerts never wait on a dead
// metadata source.
func (p *Processor) resolveToken(ctx context.Context, mint string) domain.TokenInfo {
	resolveCtx, cancel := context.WithTimeout(ctx, p.resolveTimeout)
	defer cancel()

	info, err := p.resolver.Resolve(resolveCtx, mint)
	switch {
	case err == nil:
		return *info
	case errors.Is(err, tokeninfo.ErrPriceUnavailable) && info != nil:
		if p.metrics != nil {
			p.metrics.ResolverFailures.WithLabelValues("price").Inc()
		}
		return *info
	default:
		if p.metrics != nil {
			p.metrics.ResolverFailures.WithLabelValues("metadata").Inc()
		}
		p.logger.Warn("token metadata lookup failed",
			zap.String("mint", mint),
			zap.Error(err))
		return domain.TokenInfo{
			Mint:   mint,
			Symbol: solana.ShortenAddress(mint),
			Name:   mint,
		}
	}
}

// walletName resolves the display name, falling back to the truncated
// address if the wallet vanished between classification and enrichment.
func (p *Processor) walletName(ctx context.Context, address string) string {
	w, err := p.wallets.Get(ctx, address)
	if err != nil || w == nil {
		return solana.ShortenAddress(address)
	}
	return w.Name
}
