// Package telegram runs the shop and admin handlers as long-polling Telegram bots.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/corray333/backend-labs/shop/internal/config"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/transport/bot/admin"
	"github.com/corray333/backend-labs/shop/internal/transport/bot/shop"
)

type api interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SetChatMenuButton(ctx context.Context, params *bot.SetChatMenuButtonParams) (bool, error)
}

// Bot is one Telegram bot. It implements the notification Sender.
type Bot struct {
	name   string
	client *bot.Bot
	api    api
	route  func(ctx context.Context, msg *models.Message)
}

// MustNewBot connects to the Bot API with token; name only labels logs and spans.
func MustNewBot(name, token string, cfg config.BotsConfig) *Bot {
	b := &Bot{name: name}

	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}

	client, err := bot.New(token,
		bot.WithDefaultHandler(func(ctx context.Context, _ *bot.Bot, u *models.Update) {
			b.dispatch(ctx, u)
		}),
		bot.WithHTTPClient(pollTimeout, &http.Client{Timeout: pollTimeout + 10*time.Second}),
		bot.WithErrorsHandler(func(err error) {
			slog.Error("Telegram polling error", "bot", name, "error", err)
		}),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create %s bot: %w", name, err))
	}

	b.client = client
	b.api = client

	return b
}

// ServeShop routes incoming messages to the customer handler.
func (b *Bot) ServeShop(h *shop.Handler) {
	b.route = func(ctx context.Context, msg *models.Message) {
		if msg.WebAppData != nil {
			reply, o := h.Checkout(ctx, buyerFrom(msg.From), msg.WebAppData.Data)
			b.reply(ctx, msg.Chat.ID, reply)
			if o != nil {
				h.Announce(ctx, *o)
			}

			return
		}

		if reply, ok := h.HandleCommand(msg.Text); ok {
			b.reply(ctx, msg.Chat.ID, reply)
		}
	}
}

// ServeAdmin routes incoming messages to the operator handler.
func (b *Bot) ServeAdmin(h *admin.Handler) {
	b.route = func(ctx context.Context, msg *models.Message) {
		if text := h.Handle(ctx, msg.Chat.ID, msg.Text); text != "" {
			if err := b.SendText(ctx, msg.Chat.ID, text); err != nil {
				slog.Error("Failed to answer admin command", "chat_id", msg.Chat.ID, "error", err)
			}
		}
	}
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	slog.Info("Telegram bot started", "bot", b.name)
	b.client.Start(ctx)
	slog.Info("Telegram bot stopped", "bot", b.name)

	return nil
}

// SendText sends a plain text message to chatID.
func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := b.api.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to send message to %d via %s bot: %w", chatID, b.name, err)
	}

	return nil
}

// SetupMenuButton installs the storefront as the default chat menu button.
// Failures are logged only.
func (b *Bot) SetupMenuButton(ctx context.Context, webAppURL string) {
	if strings.TrimSpace(webAppURL) == "" {
		return
	}

	_, err := b.api.SetChatMenuButton(ctx, &bot.SetChatMenuButtonParams{
		MenuButton: models.MenuButtonWebApp{
			Type:   "web_app",
			Text:   "🛍 Open storefront",
			WebApp: models.WebAppInfo{URL: webAppURL},
		},
	})
	if err != nil {
		slog.Warn("Failed to set chat menu button", "bot", b.name, "error", err)
	}
}

func (b *Bot) dispatch(ctx context.Context, u *models.Update) {
	if u == nil || u.Message == nil || b.route == nil {
		return
	}

	ctx, span := otel.Tracer("bot").Start(ctx, b.name+".update")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat.id", u.Message.Chat.ID))

	b.route(ctx, u.Message)
}

func (b *Bot) reply(ctx context.Context, chatID int64, r shop.Reply) {
	params := &bot.SendMessageParams{ChatID: chatID, Text: r.Text}
	if len(r.Buttons) > 0 {
		params.ReplyMarkup = keyboard(r.Buttons)
	}

	if _, err := b.api.SendMessage(ctx, params); err != nil {
		slog.Error("Failed to reply", "bot", b.name, "chat_id", chatID, "error", err)
	}
}

func keyboard(buttons []shop.Button) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(buttons))
	for _, btn := range buttons {
		kb := models.InlineKeyboardButton{Text: btn.Text}
		if btn.WebAppURL != "" {
			kb.WebApp = &models.WebAppInfo{URL: btn.WebAppURL}
		} else {
			kb.URL = btn.URL
		}
		rows = append(rows, []models.InlineKeyboardButton{kb})
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// buyerFrom keeps the raw username; the shop handler adds the "@".
func buyerFrom(u *models.User) order.Buyer {
	if u == nil {
		return order.Buyer{}
	}

	return order.Buyer{
		UserID:   u.ID,
		Username: u.Username,
		Name:     strings.TrimSpace(u.FirstName + " " + u.LastName),
	}
}
