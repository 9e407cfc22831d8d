// Package registry implements the tracked-wallet registry: validated
// mutations over durable storage, with every successful mutation scheduling
// an upstream subscription sync.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wallet-sentry/internal/domain"
	"wallet-sentry/internal/solana"
	"wallet-sentry/internal/storage"
)

// Registry input errors, reported directly to the command caller.
var (
	// ErrInvalidAddress is returned when the address fails the format check.
	ErrInvalidAddress = errors.New("invalid solana address")

	// ErrDuplicateWallet is returned when the address is already tracked.
	ErrDuplicateWallet = errors.New("wallet already tracked")

	// ErrNotFound is returned when the address is not tracked.
	ErrNotFound = errors.New("wallet not tracked")
)

// SyncScheduler is notified after every successful registry mutation.
// Implementations must not block the caller.
type SyncScheduler interface {
	Trigger()
}

// Registry is the durable store of tracked wallets plus the routing
// snapshot the classifier reads on every webhook delivery.
type Registry struct {
	store  storage.WalletStore
	syncer SyncScheduler
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Registry. syncer may be nil (no sync scheduling, tests).
func New(store storage.WalletStore, syncer SyncScheduler, logger *zap.Logger) *Registry {
	return &Registry{
		store:  store,
		syncer: syncer,
		logger: logger,
		now:    time.Now,
	}
}

// Add starts tracking a wallet under the given display name.
// Returns ErrInvalidAddress or ErrDuplicateWallet on input errors.
func (r *Registry) Add(ctx context.Context, address, name string) (*domain.TrackedWallet, error) {
	// Tracked wallets are keypair accounts and therefore curve points;
	// program-derived addresses cannot sign swaps.
	if !solana.IsValidAddress(address) || !solana.IsOnCurve(address) {
		return nil, ErrInvalidAddress
	}
	if name == "" {
		name = solana.ShortenAddress(address)
	}

	w := &domain.TrackedWallet{
		Address: address,
		Name:    name,
		AddedAt: r.now().UTC(),
	}
	if err := r.store.Insert(ctx, w); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, ErrDuplicateWallet
		}
		return nil, fmt.Errorf("add wallet: %w", err)
	}

	r.logger.Info("wallet added",
		zap.String("address", address),
		zap.String("name", name))
	r.scheduleSync()
	return w, nil
}

// Remove stops tracking a wallet. Returns ErrNotFound if absent.
func (r *Registry) Remove(ctx context.Context, address string) error {
	if err := r.store.Delete(ctx, address); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("remove wallet: %w", err)
	}

	r.logger.Info("wallet removed", zap.String("address", address))
	r.scheduleSync()
	return nil
}

// Rename changes a wallet's display name. Returns ErrNotFound if absent.
func (r *Registry) Rename(ctx context.Context, address, newName string) (*domain.TrackedWallet, error) {
	w, err := r.store.UpdateName(ctx, address, newName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("rename wallet: %w", err)
	}

	r.logger.Info("wallet renamed",
		zap.String("address", address),
		zap.String("name", newName))
	// The upstream watch-list is keyed by address only, but the push is
	// idempotent and cheap enough to schedule uniformly on every mutation.
	r.scheduleSync()
	return w, nil
}

// Get retrieves a single tracked wallet. Returns ErrNotFound if absent.
func (r *Registry) Get(ctx context.Context, address string) (*domain.TrackedWallet, error) {
	w, err := r.store.GetByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

// List retrieves all tracked wallets in insertion order.
func (r *Registry) List(ctx context.Context) ([]*domain.TrackedWallet, error) {
	return r.store.List(ctx)
}

// Snapshot returns the current tracked address set. Read fresh on every
// webhook-handling call; never cached across deliveries.
func (r *Registry) Snapshot(ctx context.Context) (map[string]struct{}, error) {
	addrs, err := r.store.Addresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot addresses: %w", err)
	}
	set := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		set[a] = struct{}{}
	}
	return set, nil
}

// Addresses returns the tracked addresses in insertion order,
// used by the subscription synchronizer for replace-style pushes.
func (r *Registry) Addresses(ctx context.Context) ([]string, error) {
	return r.store.Addresses(ctx)
}

func (r *Registry) scheduleSync() {
	if r.syncer != nil {
		r.syncer.Trigger()
	}
}
