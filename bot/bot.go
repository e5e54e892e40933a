// Package bot wires the Telegram transport onto the dialog engine, the
// inline search responder, and the warehouse browser. Everything here is
// translation: business rules live in bot/dialog and bot/search.
package bot

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/oponexis/tirebot/bot/dialog"
	"github.com/oponexis/tirebot/bot/search"
	"github.com/oponexis/tirebot/internal/profile"
	"github.com/oponexis/tirebot/store"
)

const (
	DefaultParseMode = "Markdown"

	// Photo downloads run concurrently when an album arrives; cap them.
	maxConcurrentUploads = 3
)

type Bot struct {
	api      *tgbotapi.BotAPI
	profile  *profile.Profile
	store    *store.Store
	engine   *dialog.Engine
	resolver *search.Resolver

	allowed   map[string]bool
	uploadSem *semaphore.Weighted

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(profile *profile.Profile, st *store.Store, engine *dialog.Engine, resolver *search.Resolver) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(profile.BotToken)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(profile.AllowedUserIDs))
	for _, id := range profile.AllowedUserIDs {
		allowed[id] = true
	}

	return &Bot{
		api:       api,
		profile:   profile,
		store:     st,
		engine:    engine,
		resolver:  resolver,
		allowed:   allowed,
		uploadSem: semaphore.NewWeighted(maxConcurrentUploads),
		limiters:  map[string]*rate.Limiter{},
	}, nil
}

// SetWebhook registers the webhook URL with Telegram.
func (b *Bot) SetWebhook(webhookURL string) error {
	config, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return err
	}
	_, err = b.api.Request(config)
	return err
}

// HandleUpdate processes one webhook update. Unauthorized and throttled
// traffic is dropped here, before any dispatch.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	userID := updateUserID(update)
	if userID == "" || !b.allowed[userID] {
		updatesDropped.WithLabelValues("unauthorized").Inc()
		if update.InlineQuery != nil {
			b.answerInlineEmpty(update.InlineQuery.ID)
		}
		return
	}
	if !b.limiter(userID).Allow() {
		updatesDropped.WithLabelValues("rate_limited").Inc()
		return
	}

	switch {
	case update.InlineQuery != nil:
		updatesProcessed.WithLabelValues("inline_query").Inc()
		b.handleInlineQuery(ctx, update.InlineQuery)
	case update.CallbackQuery != nil:
		updatesProcessed.WithLabelValues("callback_query").Inc()
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		updatesProcessed.WithLabelValues("message").Inc()
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	text := msg.Text
	switch text {
	case "/nowa", dialog.ButtonNewBatch:
		reply, err := b.engine.StartCreateBatch(ctx, userID, chatIDString(chatID))
		b.deliver(chatID, []dialog.Reply{reply}, err)
		return
	case dialog.ButtonSearch:
		reply, err := b.engine.StartSearch(ctx, userID, chatIDString(chatID))
		b.deliver(chatID, []dialog.Reply{reply}, err)
		return
	}

	replies, handled, err := b.engine.HandleText(ctx, userID, chatIDString(chatID), text)
	if err != nil {
		slog.Error("dialog failed", "user", userID, "err", err)
		return
	}
	if handled {
		b.deliver(chatID, replies, nil)
		return
	}

	switch text {
	case "/start":
		b.sendWelcome(chatID)
	case dialog.ButtonStock:
		b.sendBrowserPage(ctx, chatID, store.TireTypeStock, 0)
	case dialog.ButtonStorage:
		b.sendBrowserPage(ctx, chatID, store.TireTypeStorage, 0)
	}
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	if err := b.uploadSem.Acquire(ctx, 1); err != nil {
		return
	}
	defer b.uploadSem.Release(1)

	largest := msg.Photo[len(msg.Photo)-1]
	fileURL, err := b.api.GetFileDirectURL(largest.FileID)
	if err != nil {
		slog.Error("failed to resolve photo file", "err", err)
		return
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	reply, handled, err := b.engine.HandlePhoto(ctx, userID, chatIDString(msg.Chat.ID), fileURL)
	if err != nil {
		slog.Error("photo dialog failed", "user", userID, "err", err)
		return
	}
	if !handled {
		return
	}
	photosStored.Inc()
	b.deliver(msg.Chat.ID, []dialog.Reply{reply}, nil)
}

func (b *Bot) sendWelcome(chatID int64) {
	b.deliver(chatID, []dialog.Reply{{
		Text: "Cześć! 🤖\n\nTo jest bot magazynu opon Oponexis.\n\n" +
			"Możesz:\n" +
			"• dodać partię opon (dialog)\n" +
			"• wyszukać dostępne opony (inline)\n" +
			"• podejrzeć magazyn (sprzedaż)\n\n" +
			"Inline: wpisz `@tires 205/55 R16 zima` w dowolnym czacie.",
		Markdown: true,
		Keyboard: dialog.MainMenuKeyboard,
	}}, nil)
}

// deliver sends dialog replies, translating declarative keyboards into
// Telegram reply markup.
func (b *Bot) deliver(chatID int64, replies []dialog.Reply, err error) {
	if err != nil {
		slog.Error("dialog failed", "chat", chatID, "err", err)
		return
	}
	for _, reply := range replies {
		if reply.Text == "" {
			continue
		}
		msg := tgbotapi.NewMessage(chatID, reply.Text)
		if reply.Markdown {
			msg.ParseMode = DefaultParseMode
		}
		if len(reply.Keyboard) > 0 {
			msg.ReplyMarkup = replyKeyboard(reply.Keyboard)
		} else if reply.RemoveKeyboard {
			msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
		}
		if _, err := b.api.Send(msg); err != nil {
			slog.Error("failed to send message", "chat", chatID, "err", err)
		}
	}
}

func replyKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	keyboard := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		keyboard = append(keyboard, buttons)
	}
	markup := tgbotapi.NewReplyKeyboard(keyboard...)
	markup.OneTimeKeyboard = false
	return markup
}

func (b *Bot) limiter(userID string) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()
	limiter, ok := b.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(1), 10)
		b.limiters[userID] = limiter
	}
	return limiter
}

func updateUserID(update tgbotapi.Update) string {
	if from := update.SentFrom(); from != nil {
		return strconv.FormatInt(from.ID, 10)
	}
	return ""
}

func chatIDString(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func (b *Bot) panelURL(batchID string) string {
	return b.profile.PanelBaseURL + "/batches/" + batchID
}
