package domain

import "time"

// TrackedWallet represents a wallet the operator has chosen to monitor.
// Corresponds to tracked_wallets table in PostgreSQL.
type TrackedWallet struct {
	Address string    // Solana account address, unique key
	Name    string    // user-chosen display label, mutable
	AddedAt time.Time // when tracking started
}
