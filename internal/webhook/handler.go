package webhook

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"wallet-sentry/internal/observability"
)

// Processor consumes one validated transaction.
type Processor interface {
	Process(ctx context.Context, tx *Transaction) error
}

// Handler receives enhanced-transaction webhook deliveries. A malformed
// entry is dropped and logged; its siblings in the same batch still get
// processed. Downstream failures never surface as non-2xx responses, so a
// slow sink cannot trigger an upstream redelivery storm.
type Handler struct {
	processor Processor
	logger    *zap.Logger
	metrics   *observability.Metrics
	authToken string
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithAuthToken requires deliveries to carry the given Authorization header.
func WithAuthToken(token string) HandlerOption {
	return func(h *Handler) { h.authToken = token }
}

// WithHandlerMetrics enables ingestion instrumentation.
func WithHandlerMetrics(m *observability.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler builds a webhook delivery handler.
func NewHandler(processor Processor, logger *zap.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		processor: processor,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the ingestion mux: webhook deliveries plus health check.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/helius", h.handleDelivery)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	return mux
}

func (h *Handler) handleDelivery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.authToken != "" && r.Header.Get("Authorization") != h.authToken {
		h.logger.Warn("webhook delivery with bad authorization header")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	txs, err := ParsePayload(r.Body)
	if err != nil {
		h.logger.Warn("undecodable webhook payload", zap.Error(err))
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	for _, tx := range txs {
		if h.metrics != nil {
			h.metrics.TransactionsReceived.Inc()
		}

		if err := tx.Validate(); err != nil {
			if h.metrics != nil {
				h.metrics.MalformedEntries.Inc()
			}
			h.logger.Warn("dropping malformed webhook entry",
				zap.String("signature", tx.Signature),
				zap.Error(err))
			continue
		}

		if err := h.processor.Process(r.Context(), &tx); err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Error("webhook transaction processing failed",
				zap.String("signature", tx.Signature),
				zap.Error(err))
		}
	}

	w.WriteHeader(http.StatusOK)
}
