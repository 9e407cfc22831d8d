package alert

import (
	"fmt"
	"strings"

	"wallet-sentry/internal/domain"
	"wallet-sentry/internal/solana"
)

// Command reply texts, all MarkdownV2.

func WelcomeMessage() string {
	return strings.Join([]string{
		"*Wallet Sentry*",
		"",
		"Track Solana wallets and get swap alerts\\.",
		"",
		"*Commands:*",
		"/add `<address>` `[name]` \\- track a wallet",
		"/remove `<address>` \\- stop tracking",
		"/rename `<address>` `<name>` \\- rename a wallet",
		"/list \\- show tracked wallets",
	}, "\n")
}

func WalletAddedMessage(w *domain.TrackedWallet) string {
	return fmt.Sprintf("✅ Now tracking *%s*\n`%s`",
		EscapeMarkdown(w.Name), EscapeMarkdown(w.Address))
}

func WalletRemovedMessage(address string) string {
	return fmt.Sprintf("\U0001F5D1 Stopped tracking `%s`", EscapeMarkdown(address))
}

func WalletRenamedMessage(w *domain.TrackedWallet) string {
	return fmt.Sprintf("✏ Renamed `%s` to *%s*",
		EscapeMarkdown(solana.ShortenAddress(w.Address)), EscapeMarkdown(w.Name))
}

func WalletListMessage(wallets []*domain.TrackedWallet) string {
	if len(wallets) == 0 {
		return "No wallets tracked yet\\. Use /add `<address>` to start\\."
	}

	lines := make([]string, 0, len(wallets)+2)
	lines = append(lines, fmt.Sprintf("*Tracked wallets \\(%d\\):*", len(wallets)), "")
	for i, w := range wallets {
		lines = append(lines, fmt.Sprintf("%d\\. *%s*\n   `%s`",
			i+1, EscapeMarkdown(w.Name), EscapeMarkdown(w.Address)))
	}
	return strings.Join(lines, "\n")
}

func ErrorMessage(msg string) string {
	return "⚠ " + EscapeMarkdown(msg)
}
