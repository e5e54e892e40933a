package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oponexis/tirebot/bot/format"
	"github.com/oponexis/tirebot/bot/search"
	"github.com/oponexis/tirebot/store"
)

// handleInlineQuery answers an inline query with up to ten for-sale
// batches plus, when more than one matched, a synthetic summary entry.
// Any failure degrades to an empty answer; an inline query must never
// surface a transport error.
func (b *Bot) handleInlineQuery(ctx context.Context, query *tgbotapi.InlineQuery) {
	text := strings.TrimSpace(query.Query)

	batches, tier, err := b.resolver.Resolve(ctx, text, search.InlineResultLimit)
	if err != nil {
		slog.Error("inline query failed", "query", text, "err", err)
		b.answerInlineEmpty(query.ID)
		return
	}
	inlineQueries.WithLabelValues(string(tier)).Inc()

	if len(batches) == 0 {
		b.answerInlineEmpty(query.ID)
		return
	}

	results := make([]interface{}, 0, len(batches)+1)
	totalAvailable := 0

	for _, batch := range batches {
		totalAvailable += batch.QuantityAvailable

		panelURL := b.panelURL(batch.ID)
		article := tgbotapi.NewInlineQueryResultArticleMarkdown(
			"batch_"+batch.ID,
			format.Title(batch),
			format.MessageText(batch, panelURL),
		)
		article.Description = format.EntryDescription(batch)
		if batch.MainPhotoURL != "" {
			article.ThumbURL = batch.MainPhotoURL
		}
		markup := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("📋 Otwórz w panelu", panelURL),
			),
		)
		article.ReplyMarkup = &markup
		results = append(results, article)
	}

	if len(batches) > 1 {
		results = append(results, b.buildSummaryEntry(text, tier, batches, totalAvailable))
	}

	if _, err := b.api.Request(tgbotapi.InlineConfig{
		InlineQueryID: query.ID,
		Results:       results,
		CacheTime:     1,
	}); err != nil {
		slog.Error("failed to answer inline query", "err", err)
	}
}

// buildSummaryEntry aggregates the whole answer into one pasteable
// message: count, per-batch lines, and the total available quantity.
func (b *Bot) buildSummaryEntry(query string, tier search.Tier, batches []*store.TireBatch, totalAvailable int) interface{} {
	title := fmt.Sprintf("%d partii – %d opon", len(batches), totalAvailable)

	var text strings.Builder
	text.WriteString(title)
	if query != "" {
		fmt.Fprintf(&text, " pasujących do %q (tryb: %s, tylko sprzedaż):\n\n", query, tier)
	} else {
		text.WriteString(" (ostatnie partie, tylko sprzedaż):\n\n")
	}
	for i, batch := range batches {
		text.WriteString(format.SummaryLine(i+1, batch, b.panelURL(batch.ID)))
	}
	fmt.Fprintf(&text, "Razem: %d opon", totalAvailable)

	parsed := search.ParseQuery(query)
	article := tgbotapi.NewInlineQueryResultArticle(
		fmt.Sprintf("summary_%d", time.Now().UnixMilli()),
		title,
		text.String(),
	)
	if query == "" {
		article.Description = format.SummaryDescription(nil, nil, nil, nil)
	} else {
		article.Description = format.SummaryDescription(parsed.Width, parsed.Height, parsed.RimDiameter, parsed.Season)
	}
	return article
}

func (b *Bot) answerInlineEmpty(queryID string) {
	if _, err := b.api.Request(tgbotapi.InlineConfig{
		InlineQueryID: queryID,
		Results:       []interface{}{},
		CacheTime:     1,
	}); err != nil {
		slog.Error("failed to answer inline query", "err", err)
	}
}
