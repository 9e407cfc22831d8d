package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-sentry/internal/domain"
	"wallet-sentry/internal/solana"
	"wallet-sentry/internal/webhook"
)

const (
	walletA = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	walletB = "4Nd1mYvM6K7YyTmNWM6nWNcMopBKYVFFSgZuKPLw2y3P"
	pool    = "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"
	bonk    = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	wif     = "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"
)

func tracked(addrs ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		set[a] = struct{}{}
	}
	return set
}

func TestClassify_BuyWithSOL(t *testing.T) {
	// Wallet loses 2 SOL, gains 1.5M BONK.
	tx := &webhook.Transaction{
		Signature: "sig-buy",
		Timestamp: 1700000000,
		TokenTransfers: []webhook.TokenTransfer{
			{FromUserAccount: pool, ToUserAccount: walletA, Mint: bonk, TokenAmount: 1500000},
		},
		NativeTransfers: []webhook.NativeTransfer{
			{FromUserAccount: walletA, ToUserAccount: pool, Amount: 2_000_000_000},
		},
	}

	events := Classify(tx, tracked(walletA))
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, domain.DirectionBuy, ev.Direction)
	assert.Equal(t, walletA, ev.WalletAddress)
	assert.Equal(t, bonk, ev.TokenMint)
	assert.Equal(t, 1500000.0, ev.TokenAmount)
	assert.Equal(t, solana.WSOL, ev.CounterMint)
	assert.Equal(t, 2.0, ev.CounterAmount)
	assert.Equal(t, "sig-buy", ev.Signature)
	assert.Equal(t, int64(1700000000), ev.Timestamp)
}

func TestClassify_SellForUSDC(t *testing.T) {
	tx := &webhook.Transaction{
		Signature: "sig-sell",
		Timestamp: 1700000001,
		TokenTransfers: []webhook.TokenTransfer{
			{FromUserAccount: walletA, ToUserAccount: pool, Mint: bonk, TokenAmount: 500000},
			{FromUserAccount: pool, ToUserAccount: walletA, Mint: solana.USDC, TokenAmount: 123.45},
		},
	}

	events := Classify(tx, tracked(walletA))
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, domain.DirectionSell, ev.Direction)
	assert.Equal(t, bonk, ev.TokenMint)
	assert.Equal(t, 500000.0, ev.TokenAmount)
	assert.Equal(t, solana.USDC, ev.CounterMint)
	assert.Equal(t, 123.45, ev.CounterAmount)
}

func TestClassify_TokenToTokenReportsReceived(t *testing.T) {
	tx := &webhook.Transaction{
		Signature: "sig-t2t",
		Timestamp: 1700000002,
		TokenTransfers: []webhook.TokenTransfer{
			{FromUserAccount: walletA, ToUserAccount: pool, Mint: bonk, TokenAmount: 100},
			{FromUserAccount: pool, ToUserAccount: walletA, Mint: wif, TokenAmount: 5},
		},
	}

	events := Classify(tx, tracked(walletA))
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, domain.DirectionBuy, ev.Direction)
	assert.Equal(t, wif, ev.TokenMint)
	assert.Equal(t, 5.0, ev.TokenAmount)
	assert.Equal(t, bonk, ev.CounterMint)
	assert.Equal(t, 100.0, ev.CounterAmount)
}

func TestClassify_UntrackedWalletProducesNothing(t *testing.T) {
	tx := &webhook.Transaction{
		Signature: "sig-untracked",
		Timestamp: 1700000003,
		TokenTransfers: []webhook.TokenTransfer{
			{FromUserAccount: pool, ToUserAccount: walletB, Mint: bonk, TokenAmount: 10},
		},
		NativeTransfers: []webhook.NativeTransfer{
			{FromUserAccount: walletB, ToUserAccount: pool, Amount: 1_000_000_000},
		},
	}

	assert.Empty(t, Classify(tx, tracked(walletA)))
	assert.Empty(t, Classify(tx, nil))
}

func TestClassify_TwoTrackedWalletsTwoEvents(t *testing.T) {
	// walletA sells BONK to walletB for SOL; both tracked.
	tx := &webhook.Transaction{
		Signature: "sig-both",
		Timestamp: 1700000004,
		TokenTransfers: []webhook.TokenTransfer{
			{FromUserAccount: walletA, ToUserAccount: walletB, Mint: bonk, TokenAmount: 42},
		},
		NativeTransfers: []webhook.NativeTransfer{
			{FromUserAccount: walletB, ToUserAccount: walletA, Amount: 3_000_000_000},
		},
	}

	events := Classify(tx, tracked(walletA, walletB))
	require.Len(t, events, 2)

	byWallet := map[string]*domain.SwapEvent{}
	for _, ev := range events {
		byWallet[ev.WalletAddress] = ev
	}

	require.Contains(t, byWallet, walletA)
	assert.Equal(t, domain.DirectionSell, byWallet[walletA].Direction)
	assert.Equal(t, bonk, byWallet[walletA].TokenMint)

	require.Contains(t, byWallet, walletB)
	assert.Equal(t, domain.DirectionBuy, byWallet[walletB].Direction)
	assert.Equal(t, bonk, byWallet[walletB].TokenMint)
}

func TestClassify_MultiAssetNettingDropped(t *testing.T) {
	// Wallet receives two distinct tokens: ambiguous, no event.
	tx := &webhook.Transaction{
		Signature: "sig-multi",
		Timestamp: 1700000005,
		TokenTransfers: []webhook.TokenTransfer{
			{FromUserAccount: pool, ToUserAccount: walletA, Mint: bonk, TokenAmount: 10},
			{FromUserAccount: pool, ToUserAccount: walletA, Mint: wif, TokenAmount: 20},
		},
		NativeTransfers: []webhook.NativeTransfer{
			{FromUserAccount: walletA, ToUserAccount: pool, Amount: 1_000_000_000},
		},
	}

	assert.Empty(t, Classify(tx, tracked(walletA)))
}

func TestClassify_NetsRepeatedDeltasOfSameAsset(t *testing.T) {
	// Two partial fills of the same mint net into a single side.
	tx := &webhook.Transaction{
		Signature: "sig-netting",
		Timestamp: 1700000006,
		TokenTransfers: []webhook.TokenTransfer{
			{FromUserAccount: pool, ToUserAccount: walletA, Mint: bonk, TokenAmount: 600},
			{FromUserAccount: pool, ToUserAccount: walletA, Mint: bonk, TokenAmount: 400},
		},
		NativeTransfers: []webhook.NativeTransfer{
			{FromUserAccount: walletA, ToUserAccount: pool, Amount: 500_000_000},
		},
	}

	events := Classify(tx, tracked(walletA))
	require.Len(t, events, 1)
	assert.Equal(t, 1000.0, events[0].TokenAmount)
	assert.Equal(t, 0.5, events[0].CounterAmount)
}

func TestClassify_ZeroDeltasIgnored(t *testing.T) {
	// Transfer out and back in cancels to zero; only the SOL delta remains,
	// which alone is not a swap.
	tx := &webhook.Transaction{
		Signature: "sig-zero",
		Timestamp: 1700000007,
		TokenTransfers: []webhook.TokenTransfer{
			{FromUserAccount: walletA, ToUserAccount: pool, Mint: bonk, TokenAmount: 10},
			{FromUserAccount: pool, ToUserAccount: walletA, Mint: bonk, TokenAmount: 10},
		},
		NativeTransfers: []webhook.NativeTransfer{
			{FromUserAccount: walletA, ToUserAccount: pool, Amount: 1_000_000},
		},
	}

	assert.Empty(t, Classify(tx, tracked(walletA)))
}

func TestClassify_BaseToBaseIgnored(t *testing.T) {
	tx := &webhook.Transaction{
		Signature: "sig-base",
		Timestamp: 1700000008,
		TokenTransfers: []webhook.TokenTransfer{
			{FromUserAccount: pool, ToUserAccount: walletA, Mint: solana.USDC, TokenAmount: 100},
		},
		NativeTransfers: []webhook.NativeTransfer{
			{FromUserAccount: walletA, ToUserAccount: pool, Amount: 1_000_000_000},
		},
	}

	assert.Empty(t, Classify(tx, tracked(walletA)))
}
