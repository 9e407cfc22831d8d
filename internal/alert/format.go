// Package alert renders enriched swap events into Telegram MarkdownV2
// notification text with canonical explorer links.
package alert

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"wallet-sentry/internal/domain"
	"wallet-sentry/internal/solana"
)

// Explorer base URLs.
const (
	SolscanTxURL    = "https://solscan.io/tx"
	SolscanTokenURL = "https://solscan.io/token"
)

// Rendered is the formatter output: final message text plus the canonical
// links it embeds (full addresses, never truncated).
type Rendered struct {
	Text     string
	TxURL    string
	TokenURL string
}

// Format renders one alert. A nil USD value omits the value line rather
// than failing; everything else is always present.
func Format(a *domain.EnrichedAlert) Rendered {
	var header string
	switch a.Swap.Direction {
	case domain.DirectionBuy:
		header = "\U0001F7E2 *BUY ALERT*"
	case domain.DirectionSell:
		header = "\U0001F534 *SELL ALERT*"
	default:
		header = "*SWAP ALERT*"
	}

	txURL := fmt.Sprintf("%s/%s", SolscanTxURL, a.Swap.Signature)
	tokenURL := fmt.Sprintf("%s/%s", SolscanTokenURL, a.Swap.TokenMint)

	lines := []string{
		header,
		"",
		fmt.Sprintf("*Wallet:* %s", EscapeMarkdown(a.WalletName)),
		fmt.Sprintf("*Address:* `%s`", solana.ShortenAddress(a.Swap.WalletAddress)),
		"",
		fmt.Sprintf("*Token:* $%s", EscapeMarkdown(a.Token.Symbol)),
		fmt.Sprintf("*Amount:* %s %s",
			EscapeMarkdown(FormatAmount(a.Swap.TokenAmount)),
			EscapeMarkdown(a.Token.Symbol)),
	}

	if a.USDValue != nil && *a.USDValue > 0 {
		lines = append(lines, fmt.Sprintf("*Value:* %s", EscapeMarkdown(FormatUSD(*a.USDValue))))
	}

	lines = append(lines,
		"",
		fmt.Sprintf("[View Transaction](%s)", txURL),
		fmt.Sprintf("[View Token](%s)", tokenURL),
	)

	return Rendered{
		Text:     strings.Join(lines, "\n"),
		TxURL:    txURL,
		TokenURL: tokenURL,
	}
}

// FormatAmount renders a token amount at human scale: thousands separators,
// two decimals, and M/B suffixes for large values. Sub-unit amounts keep six
// decimals so dust trades stay readable.
func FormatAmount(v float64) string {
	switch {
	case v >= 1e9:
		return groupThousands(decimal.NewFromFloat(v/1e9).StringFixed(2)) + "B"
	case v >= 1e6:
		return groupThousands(decimal.NewFromFloat(v/1e6).StringFixed(2)) + "M"
	case v >= 1:
		return groupThousands(decimal.NewFromFloat(v).StringFixed(2))
	default:
		return decimal.NewFromFloat(v).StringFixed(6)
	}
}

// FormatUSD renders a dollar value with the same scale conventions.
func FormatUSD(v float64) string {
	switch {
	case v >= 1e6:
		return "$" + groupThousands(decimal.NewFromFloat(v/1e6).StringFixed(2)) + "M"
	case v >= 0.01:
		return "$" + groupThousands(decimal.NewFromFloat(v).StringFixed(2))
	default:
		return "$" + decimal.NewFromFloat(v).StringFixed(6)
	}
}

// groupThousands inserts comma separators into the integer part of a
// fixed-point decimal string.
func groupThousands(s string) string {
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String()
	if neg {
		out = "-" + out
	}
	if hasFrac {
		out += "." + fracPart
	}
	return out
}

// markdownSpecial is the set of characters Telegram MarkdownV2 requires escaped.
const markdownSpecial = `_*[]()~` + "`" + `>#+-=|{}.!`

// EscapeMarkdown escapes Telegram MarkdownV2 special characters.
func EscapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
