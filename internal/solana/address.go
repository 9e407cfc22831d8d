// Package solana provides address validation and well-known mint constants.
package solana

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Well-known mint addresses.
const (
	// WSOL is the Wrapped SOL mint address.
	WSOL = "So11111111111111111111111111111111111111112"
	// USDC is the USDC mint address.
	USDC = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	// USDT is the USDT mint address.
	USDT = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

// Address length bounds in base58 characters.
const (
	minAddressLen = 32
	maxAddressLen = 44
)

// IsValidAddress reports whether s is a well-formed Solana account address:
// 32-44 base58 characters decoding to exactly 32 bytes.
func IsValidAddress(s string) bool {
	if len(s) < minAddressLen || len(s) > maxAddressLen {
		return false
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(raw) == 32
}

// IsOnCurve reports whether the address decodes to a point on the ed25519
// curve. Wallet addresses are curve points; program-derived addresses are not.
func IsOnCurve(s string) bool {
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}

// IsBaseAsset reports whether mint is a base asset (native/wrapped SOL or a
// supported stablecoin) used to determine swap direction.
func IsBaseAsset(mint string) bool {
	switch mint {
	case WSOL, USDC, USDT:
		return true
	}
	return false
}

// ShortenAddress truncates an address to a head/tail ellipsis form for
// display. The full address must still be used in links.
func ShortenAddress(s string) string {
	const chars = 4
	if len(s) <= chars*2+3 {
		return s
	}
	return s[:chars] + "..." + s[len(s)-chars:]
}
