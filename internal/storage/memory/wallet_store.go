package memory

import (
	"context"
	"sort"
	"sync"

	"wallet-sentry/internal/domain"
	"wallet-sentry/internal/storage"
)

// WalletStore is an in-memory implementation of storage.WalletStore.
// Used by tests and the --use-memory mode.
type WalletStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TrackedWallet // keyed by address
	seq  map[string]int                   // insertion order tiebreaker
	next int
}

// NewWalletStore creates a new in-memory wallet store.
func NewWalletStore() *WalletStore {
	return &WalletStore{
		data: make(map[string]*domain.TrackedWallet),
		seq:  make(map[string]int),
	}
}

// Compile-time interface check.
var _ storage.WalletStore = (*WalletStore)(nil)

// Insert adds a new tracked wallet. Returns ErrDuplicateKey if the address exists.
func (s *WalletStore) Insert(_ context.Context, w *domain.TrackedWallet) error {
	if w == nil || w.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[w.Address]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	walletCopy := *w
	s.data[w.Address] = &walletCopy
	s.seq[w.Address] = s.next
	s.next++
	return nil
}

// Delete removes a wallet by address. Returns ErrNotFound if absent.
func (s *WalletStore) Delete(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[address]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, address)
	delete(s.seq, address)
	return nil
}

// UpdateName changes the display name. Returns ErrNotFound if absent.
func (s *WalletStore) UpdateName(_ context.Context, address, name string) (*domain.TrackedWallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}
	w.Name = name

	walletCopy := *w
	return &walletCopy, nil
}

// GetByAddress retrieves a wallet by address. Returns ErrNotFound if absent.
func (s *WalletStore) GetByAddress(_ context.Context, address string) (*domain.TrackedWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	walletCopy := *w
	return &walletCopy, nil
}

// List retrieves all tracked wallets in insertion order.
func (s *WalletStore) List(_ context.Context) ([]*domain.TrackedWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TrackedWallet, 0, len(s.data))
	for _, w := range s.data {
		walletCopy := *w
		result = append(result, &walletCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return s.seq[result[i].Address] < s.seq[result[j].Address]
	})

	return result, nil
}

// Addresses retrieves the current address set.
func (s *WalletStore) Addresses(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addrs := make([]string, 0, len(s.data))
	for a := range s.data {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return s.seq[addrs[i]] < s.seq[addrs[j]]
	})
	return addrs, nil
}
