package domain

// EnrichedAlert is a SwapEvent joined with resolved token data and the
// wallet display name, ready for formatting. Handed to the notification
// sink and then discarded.
type EnrichedAlert struct {
	Swap       SwapEvent
	WalletName string   // display name from the registry
	Token      TokenInfo
	USDValue   *float64 // TokenAmount * unit price, nil when price resolution failed
}
