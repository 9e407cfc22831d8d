// Package webhook defines the inbound transaction notification schema and
// the HTTP handler that feeds deliveries into the alert pipeline.
package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Payload errors.
var (
	// ErrMalformedPayload is returned when the request body is not valid JSON
	// or is neither a transaction object nor an array of them.
	ErrMalformedPayload = errors.New("malformed webhook payload")
)

// Transaction is one enhanced transaction notification from the upstream
// monitor. Unknown fields are tolerated and ignored.
type Transaction struct {
	Signature       string           `json:"signature"`
	Timestamp       int64            `json:"timestamp"`
	Type            string           `json:"type,omitempty"`
	FeePayer        string           `json:"feePayer,omitempty"`
	TokenTransfers  []TokenTransfer  `json:"tokenTransfers,omitempty"`
	NativeTransfers []NativeTransfer `json:"nativeTransfers,omitempty"`
}

// TokenTransfer is a single SPL token movement within a transaction.
// The feed normalizes tokenAmount to UI units upstream.
type TokenTransfer struct {
	FromUserAccount string  `json:"fromUserAccount,omitempty"`
	ToUserAccount   string  `json:"toUserAccount,omitempty"`
	Mint            string  `json:"mint"`
	TokenAmount     float64 `json:"tokenAmount"`
}

// NativeTransfer is a single native SOL movement in lamports.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount,omitempty"`
	ToUserAccount   string `json:"toUserAccount,omitempty"`
	Amount          int64  `json:"amount"`
}

// Validate checks the required envelope fields.
func (t *Transaction) Validate() error {
	if t.Signature == "" {
		return fmt.Errorf("%w: missing signature", ErrMalformedPayload)
	}
	if t.Timestamp <= 0 {
		return fmt.Errorf("%w: missing timestamp", ErrMalformedPayload)
	}
	return nil
}

// ParsePayload decodes a webhook body into transactions. The upstream sends
// either a JSON array of transactions or a single object.
func ParsePayload(r io.Reader) ([]Transaction, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read webhook body: %w", err)
	}

	var txs []Transaction
	if err := json.Unmarshal(body, &txs); err == nil {
		return txs, nil
	}

	var tx Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return nil, ErrMalformedPayload
	}
	return []Transaction{tx}, nil
}
