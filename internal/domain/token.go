package domain

// TokenInfo represents resolved token metadata plus a current USD quote.
type TokenInfo struct {
	Mint     string   // token mint address
	Symbol   string   // ticker symbol
	Name     string   // full token name
	Decimals int      // decimal places for raw amount normalization
	PriceUSD *float64 // current USD unit price (nil when no quote available)
}
