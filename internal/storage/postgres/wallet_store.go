package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wallet-sentry/internal/domain"
	"wallet-sentry/internal/storage"
)

// WalletStore implements storage.WalletStore using PostgreSQL.
type WalletStore struct {
	pool *Pool
}

// NewWalletStore creates a new WalletStore.
func NewWalletStore(pool *Pool) *WalletStore {
	return &WalletStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WalletStore = (*WalletStore)(nil)

// Insert adds a new tracked wallet. Returns ErrDuplicateKey if the address exists.
func (s *WalletStore) Insert(ctx context.Context, w *domain.TrackedWallet) error {
	if w == nil || w.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tracked_wallets (address, name, added_at)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query, w.Address, w.Name, w.AddedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert tracked wallet: %w", err)
	}
	return nil
}

// Delete removes a wallet by address. Returns ErrNotFound if absent.
func (s *WalletStore) Delete(ctx context.Context, address string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tracked_wallets WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("delete tracked wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateName changes the display name. Returns ErrNotFound if absent.
func (s *WalletStore) UpdateName(ctx context.Context, address, name string) (*domain.TrackedWallet, error) {
	query := `
		UPDATE tracked_wallets
		SET name = $2
		WHERE address = $1
		RETURNING address, name, added_at
	`

	row := s.pool.QueryRow(ctx, query, address, name)
	w, err := scanTrackedWallet(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("rename tracked wallet: %w", err)
	}
	return w, nil
}

// GetByAddress retrieves a wallet by address. Returns ErrNotFound if absent.
func (s *WalletStore) GetByAddress(ctx context.Context, address string) (*domain.TrackedWallet, error) {
	query := `
		SELECT address, name, added_at
		FROM tracked_wallets
		WHERE address = $1
	`

	row := s.pool.QueryRow(ctx, query, address)
	w, err := scanTrackedWallet(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get tracked wallet: %w", err)
	}
	return w, nil
}

// List retrieves all tracked wallets in insertion order.
func (s *WalletStore) List(ctx context.Context) ([]*domain.TrackedWallet, error) {
	query := `
		SELECT address, name, added_at
		FROM tracked_wallets
		ORDER BY added_at ASC, address ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tracked wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*domain.TrackedWallet
	for rows.Next() {
		w, err := scanTrackedWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tracked wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracked wallets: %w", err)
	}
	return wallets, nil
}

// Addresses retrieves the current address set.
func (s *WalletStore) Addresses(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT address FROM tracked_wallets ORDER BY added_at ASC, address ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tracked addresses: %w", err)
	}
	defer rows.Close()

	var addrs []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan tracked address: %w", err)
		}
		addrs = append(addrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracked addresses: %w", err)
	}
	return addrs, nil
}

// scanTrackedWallet scans a single row into TrackedWallet.
func scanTrackedWallet(row pgx.Row) (*domain.TrackedWallet, error) {
	var w domain.TrackedWallet
	if err := row.Scan(&w.Address, &w.Name, &w.AddedAt); err != nil {
		return nil, err
	}
	return &w, nil
}
