package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oponexis/tirebot/bot/dialog"
	"github.com/oponexis/tirebot/bot/format"
	"github.com/oponexis/tirebot/store"
)

// browserPageSize is how many batches one browser page shows.
const browserPageSize = 5

// handleCallback dispatches inline-keyboard button presses: the browser
// pager, the photo gallery, and the "add photos" shortcut under inline
// results.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Every handler here edits or replies into the originating chat, so a
	// callback without a reachable message has nowhere to answer.
	if cq.Message == nil {
		b.answerCallback(cq.ID, "")
		return
	}
	data := cq.Data
	switch {
	case strings.HasPrefix(data, "photos:"):
		b.handlePhotosCallback(ctx, cq, strings.TrimPrefix(data, "photos:"))
	case strings.HasPrefix(data, "add_photos:"):
		b.handleAddPhotosCallback(ctx, cq, strings.TrimPrefix(data, "add_photos:"))
	case strings.HasPrefix(data, "stock_page:"):
		b.handlePageCallback(ctx, cq, store.TireTypeStock, strings.TrimPrefix(data, "stock_page:"))
	case strings.HasPrefix(data, "storage_page:"):
		b.handlePageCallback(ctx, cq, store.TireTypeStorage, strings.TrimPrefix(data, "storage_page:"))
	}
}

// handlePhotosCallback sends the batch's photos as a media group, main
// photo first.
func (b *Bot) handlePhotosCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, batchID string) {
	limit := 10
	photos, err := b.store.ListTirePhotos(ctx, &store.FindTirePhoto{BatchID: &batchID, Limit: &limit})
	if err != nil {
		slog.Error("failed to list photos", "batch", batchID, "err", err)
		b.answerCallbackAlert(cq.ID, "Błąd podczas pobierania zdjęć.")
		return
	}
	if len(photos) == 0 {
		b.answerCallbackAlert(cq.ID, "Brak zdjęć dla tej partii.")
		return
	}
	b.answerCallback(cq.ID, "")

	batch, err := b.store.GetTireBatch(ctx, batchID)
	caption := "Zdjęcie partii"
	if err == nil && batch != nil {
		if label := format.SizeLabel(batch); label != "" {
			caption = label
		}
	}

	media := make([]interface{}, 0, len(photos))
	for i, photo := range photos {
		item := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(photo.URL))
		if i == 0 {
			item.Caption = caption
		}
		media = append(media, item)
	}
	if _, err := b.api.SendMediaGroup(tgbotapi.NewMediaGroup(cq.Message.Chat.ID, media)); err != nil {
		slog.Error("failed to send media group", "batch", batchID, "err", err)
	}
}

// handleAddPhotosCallback flips the chat into photo upload mode for an
// existing batch.
func (b *Bot) handleAddPhotosCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, batchID string) {
	userID := strconv.FormatInt(cq.From.ID, 10)
	reply, err := b.engine.StartPhotoUpload(ctx, userID, chatIDString(cq.Message.Chat.ID), batchID)
	if err != nil {
		slog.Error("failed to start photo upload", "batch", batchID, "err", err)
		b.answerCallbackAlert(cq.ID, "Wystąpił błąd.")
		return
	}
	if reply.Text == "Ta partia nie istnieje." {
		b.answerCallbackAlert(cq.ID, reply.Text)
		return
	}
	b.answerCallback(cq.ID, "")
	b.deliver(cq.Message.Chat.ID, []dialog.Reply{reply}, nil)
}

// handlePageCallback turns pager presses into page edits. Data is
// "init", "next:N", or "prev:N" where N is the current page.
func (b *Bot) handlePageCallback(ctx context.Context, cq *tgbotapi.CallbackQuery, tireType store.TireType, data string) {
	action, current := data, 0
	if i := strings.IndexByte(data, ':'); i >= 0 {
		action = data[:i]
		if n, err := strconv.Atoi(data[i+1:]); err == nil && n >= 0 {
			current = n
		}
	}

	total, err := b.store.CountTireBatches(ctx, &store.FindTireBatch{Type: &tireType})
	if err != nil {
		slog.Error("failed to count batches", "err", err)
		b.answerCallbackAlert(cq.ID, "Wystąpił błąd.")
		return
	}
	maxPage := pageCount(total) - 1

	next := current
	switch action {
	case "next":
		next = min(current+1, maxPage)
	case "prev":
		next = max(current-1, 0)
	}

	if next == current && action != "init" {
		if next == 0 {
			b.answerCallback(cq.ID, "To jest pierwsza strona.")
		} else {
			b.answerCallback(cq.ID, "To jest ostatnia strona.")
		}
		return
	}
	b.answerCallback(cq.ID, "")

	text, keyboard, err := b.buildBrowserPage(ctx, tireType, next, total)
	if err != nil {
		slog.Error("failed to build browser page", "err", err)
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(cq.Message.Chat.ID, cq.Message.MessageID, text, keyboard)
	if _, err := b.api.Send(edit); err != nil {
		slog.Error("failed to edit browser page", "err", err)
	}
}

// sendBrowserPage answers the menu buttons with the first page of the
// chosen warehouse.
func (b *Bot) sendBrowserPage(ctx context.Context, chatID int64, tireType store.TireType, page int) {
	total, err := b.store.CountTireBatches(ctx, &store.FindTireBatch{Type: &tireType})
	if err != nil {
		slog.Error("failed to count batches", "err", err)
		return
	}
	if total == 0 {
		b.deliver(chatID, []dialog.Reply{{
			Text:     browserEmptyText(tireType),
			Keyboard: dialog.MainMenuKeyboard,
		}}, nil)
		return
	}

	text, keyboard, err := b.buildBrowserPage(ctx, tireType, page, total)
	if err != nil {
		slog.Error("failed to build browser page", "err", err)
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("failed to send browser page", "err", err)
	}
}

func (b *Bot) buildBrowserPage(ctx context.Context, tireType store.TireType, page, total int) (string, tgbotapi.InlineKeyboardMarkup, error) {
	maxPage := pageCount(total) - 1
	page = min(max(page, 0), maxPage)

	limit, offset := browserPageSize, page*browserPageSize
	batches, err := b.store.ListTireBatches(ctx, &store.FindTireBatch{
		Type:          &tireType,
		WithMainPhoto: true,
		Limit:         &limit,
		Offset:        &offset,
	})
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s\nStrona %d z %d (razem: %d)\n\n", browserHeader(tireType), page+1, maxPage+1, total)
	if len(batches) == 0 {
		text.WriteString("Brak partii na tej stronie.")
	}
	for i, batch := range batches {
		text.WriteString(format.SummaryLine(offset+i+1, batch, b.panelURL(batch.ID)))
	}

	return text.String(), browserKeyboard(tireType, page, maxPage, batches), nil
}

// browserKeyboard is one pager row plus a photo-gallery button per batch
// on the page.
func browserKeyboard(tireType store.TireType, page, maxPage int, batches []*store.TireBatch) tgbotapi.InlineKeyboardMarkup {
	prefix := "stock_page:"
	if tireType == store.TireTypeStorage {
		prefix = "storage_page:"
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Poprzednie", fmt.Sprintf("%sprev:%d", prefix, page)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Strona %d/%d", page+1, maxPage+1), prefix+"init"),
			tgbotapi.NewInlineKeyboardButtonData("▶️ Następne", fmt.Sprintf("%snext:%d", prefix, page)),
		),
	}
	for i, batch := range batches {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("📷 Zdjęcia %d", page*browserPageSize+i+1), "photos:"+batch.ID),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("➕ Zdjęcia %d", page*browserPageSize+i+1), "add_photos:"+batch.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func browserHeader(tireType store.TireType) string {
	if tireType == store.TireTypeStorage {
		return "📥 Partie (Przechowanie klienta)"
	}
	return "📦 Partie (Magazyn – sprzedaż)"
}

func browserEmptyText(tireType store.TireType) string {
	if tireType == store.TireTypeStorage {
		return "Magazyn (przechowanie) jest pusty.\n" +
			"Użyj przycisku \"➕ Nowa partia\", aby dodać pierwszą partię."
	}
	return "Magazyn (sprzedaż) jest pusty.\n" +
		"Użyj przycisku \"➕ Nowa partia\", aby dodać pierwszą partię."
}

func pageCount(total int) int {
	pages := (total + browserPageSize - 1) / browserPageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		slog.Error("failed to answer callback query", "err", err)
	}
}

func (b *Bot) answerCallbackAlert(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(id, text)); err != nil {
		slog.Error("failed to answer callback query", "err", err)
	}
}
