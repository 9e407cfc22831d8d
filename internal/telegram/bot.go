package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"wallet-sentry/internal/alert"
	"wallet-sentry/internal/domain"
	"wallet-sentry/internal/registry"
)

// WalletRegistry is the slice of the registry the bot commands need.
type WalletRegistry interface {
	Add(ctx context.Context, address, name string) (*domain.TrackedWallet, error)
	Remove(ctx context.Context, address string) error
	Rename(ctx context.Context, address, name string) (*domain.TrackedWallet, error)
	List(ctx context.Context) ([]*domain.TrackedWallet, error)
}

// updateSource is the slice of the bot API the command loop needs.
type updateSource interface {
	sender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot long-polls Telegram for wallet-management commands. Only the
// configured chat is served; everything else is ignored.
type Bot struct {
	api      updateSource
	chatID   int64
	registry WalletRegistry
	logger   *zap.Logger
}

// NewBot builds the command bot.
func NewBot(api updateSource, chatID int64, reg WalletRegistry, logger *zap.Logger) *Bot {
	return &Bot{
		api:      api,
		chatID:   chatID,
		registry: reg,
		logger:   logger,
	}
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30

	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return
	}
	if msg.Chat.ID != b.chatID {
		b.logger.Debug("ignoring command from foreign chat",
			zap.Int64("chat_id", msg.Chat.ID))
		return
	}

	args := strings.Fields(msg.CommandArguments())

	var reply string
	switch msg.Command() {
	case "start", "help":
		reply = alert.WelcomeMessage()
	case "add":
		reply = b.handleAdd(ctx, args)
	case "remove":
		reply = b.handleRemove(ctx, args)
	case "rename":
		reply = b.handleRename(ctx, args)
	case "list":
		reply = b.handleList(ctx)
	default:
		return
	}

	b.reply(reply)
}

func (b *Bot) handleAdd(ctx context.Context, args []string) string {
	if len(args) < 1 {
		return alert.ErrorMessage("Usage: /add <address> [name]")
	}

	address := args[0]
	name := strings.Join(args[1:], " ")

	w, err := b.registry.Add(ctx, address, name)
	switch {
	case errors.Is(err, registry.ErrInvalidAddress):
		return alert.ErrorMessage("That does not look like a Solana address.")
	case errors.Is(err, registry.ErrDuplicateWallet):
		return alert.ErrorMessage("Already tracking " + address)
	case err != nil:
		b.logger.Error("add wallet failed", zap.String("address", address), zap.Error(err))
		return alert.ErrorMessage("Could not add the wallet, try again later.")
	}
	return alert.WalletAddedMessage(w)
}

func (b *Bot) handleRemove(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return alert.ErrorMessage("Usage: /remove <address>")
	}

	address := args[0]
	err := b.registry.Remove(ctx, address)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return alert.ErrorMessage("Not tracking " + address)
	case err != nil:
		b.logger.Error("remove wallet failed", zap.String("address", address), zap.Error(err))
		return alert.ErrorMessage("Could not remove the wallet, try again later.")
	}
	return alert.WalletRemovedMessage(address)
}

func (b *Bot) handleRename(ctx context.Context, args []string) string {
	if len(args) < 2 {
		return alert.ErrorMessage("Usage: /rename <address> <name>")
	}

	address := args[0]
	name := strings.Join(args[1:], " ")

	w, err := b.registry.Rename(ctx, address, name)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return alert.ErrorMessage("Not tracking " + address)
	case err != nil:
		b.logger.Error("rename wallet failed", zap.String("address", address), zap.Error(err))
		return alert.ErrorMessage("Could not rename the wallet, try again later.")
	}
	return alert.WalletRenamedMessage(w)
}

func (b *Bot) handleList(ctx context.Context) string {
	wallets, err := b.registry.List(ctx)
	if err != nil {
		b.logger.Error("list wallets failed", zap.Error(err))
		return alert.ErrorMessage("Could not load the wallet list, try again later.")
	}
	return alert.WalletListMessage(wallets)
}

func (b *Bot) reply(text string) {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("command reply failed", zap.Error(err))
	}
}
