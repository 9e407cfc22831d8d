// Package classifier turns raw transaction notifications into structured
// swap events for tracked wallets. It is pure: no I/O, no shared state.
package classifier

import (
	"wallet-sentry/internal/domain"
	"wallet-sentry/internal/solana"
	"wallet-sentry/internal/webhook"
)

// Classify inspects one transaction against the tracked-address snapshot and
// returns one SwapEvent per tracked wallet whose balance changes net to
// exactly one asset in and one asset out. Anything else for a wallet
// (multi-hop aggregations, LP operations, airdrops) is dropped: false
// negatives are acceptable, misreported directions are not.
func Classify(tx *webhook.Transaction, tracked map[string]struct{}) []*domain.SwapEvent {
	if tx == nil || len(tracked) == 0 {
		return nil
	}

	// owner -> mint -> net delta in UI units
	deltas := make(map[string]map[string]float64)
	add := func(owner, mint string, amount float64) {
		if owner == "" || amount == 0 {
			return
		}
		if _, ok := tracked[owner]; !ok {
			return
		}
		m, ok := deltas[owner]
		if !ok {
			m = make(map[string]float64)
			deltas[owner] = m
		}
		m[mint] += amount
	}

	for _, tr := range tx.TokenTransfers {
		if tr.Mint == "" {
			continue
		}
		add(tr.FromUserAccount, tr.Mint, -tr.TokenAmount)
		add(tr.ToUserAccount, tr.Mint, tr.TokenAmount)
	}
	for _, tr := range tx.NativeTransfers {
		sol := float64(tr.Amount) / 1e9
		add(tr.FromUserAccount, solana.WSOL, -sol)
		add(tr.ToUserAccount, solana.WSOL, sol)
	}

	var events []*domain.SwapEvent
	for owner, byMint := range deltas {
		if ev := classifyWallet(tx, owner, byMint); ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

// classifyWallet applies the netting rule for a single wallet.
func classifyWallet(tx *webhook.Transaction, owner string, byMint map[string]float64) *domain.SwapEvent {
	var gained, lost []netDelta
	for mint, amount := range byMint {
		switch {
		case amount > 0:
			gained = append(gained, netDelta{mint, amount})
		case amount < 0:
			lost = append(lost, netDelta{mint, -amount})
		}
	}

	// Exactly one asset in and one asset out, or no swap at all.
	if len(gained) != 1 || len(lost) != 1 {
		return nil
	}
	in, out := gained[0], lost[0]

	ev := &domain.SwapEvent{
		Signature:     tx.Signature,
		WalletAddress: owner,
		Timestamp:     tx.Timestamp,
	}

	inBase := solana.IsBaseAsset(in.mint)
	outBase := solana.IsBaseAsset(out.mint)
	switch {
	case !inBase && outBase:
		ev.Direction = domain.DirectionBuy
		ev.TokenMint = in.mint
		ev.TokenAmount = in.amount
		ev.CounterMint = out.mint
		ev.CounterAmount = out.amount
	case inBase && !outBase:
		ev.Direction = domain.DirectionSell
		ev.TokenMint = out.mint
		ev.TokenAmount = out.amount
		ev.CounterMint = in.mint
		ev.CounterAmount = in.amount
	case !inBase && !outBase:
		// Token-to-token swap: report the received asset as the bought token
		// and the disposed amount as the counter. Approximation: no base
		// pricing is available for the counter side.
		ev.Direction = domain.DirectionBuy
		ev.TokenMint = in.mint
		ev.TokenAmount = in.amount
		ev.CounterMint = out.mint
		ev.CounterAmount = out.amount
	default:
		// Base-to-base movement (e.g. SOL->USDC) is not a token swap we alert on.
		return nil
	}

	return ev
}

type netDelta struct {
	mint   string
	amount float64
}
