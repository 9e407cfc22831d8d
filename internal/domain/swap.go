package domain

// Direction indicates which side of a swap the tracked wallet took.
type Direction string

// Swap direction constants.
const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// SwapEvent represents one classified swap executed by a tracked wallet.
// Constructed transiently during classification, never persisted.
type SwapEvent struct {
	Signature     string    // transaction signature, unique external identifier
	WalletAddress string    // the tracked wallet involved
	Direction     Direction // buy | sell
	TokenMint     string    // mint of the token acquired (buy) or disposed (sell)
	TokenAmount   float64   // token quantity in UI units (decimals applied by the feed)
	CounterMint   string    // mint of the asset on the other side of the swap
	CounterAmount float64   // counter asset quantity in UI units
	Timestamp     int64     // Unix timestamp in seconds from the source feed
}
