package storage

import (
	"context"

	"wallet-sentry/internal/domain"
)

// WalletStore provides access to tracked_wallets storage.
type WalletStore interface {
	// Insert adds a new tracked wallet. Returns ErrDuplicateKey if the
	// address is already present.
	Insert(ctx context.Context, w *domain.TrackedWallet) error

	// Delete removes a wallet by address. Returns ErrNotFound if absent.
	Delete(ctx context.Context, address string) error

	// UpdateName changes the display name. Returns ErrNotFound if absent.
	UpdateName(ctx context.Context, address, name string) (*domain.TrackedWallet, error)

	// GetByAddress retrieves a wallet by address. Returns ErrNotFound if absent.
	GetByAddress(ctx context.Context, address string) (*domain.TrackedWallet, error)

	// List retrieves all tracked wallets in insertion order.
	List(ctx context.Context) ([]*domain.TrackedWallet, error)

	// Addresses retrieves the current address set.
	Addresses(ctx context.Context) ([]string, error)
}
