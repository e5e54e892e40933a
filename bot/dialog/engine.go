// Package dialog runs the per-(user, chat) conversational state machine:
// guided batch creation, photo upload, and the text search dialog. It is
// transport-agnostic; replies carry declarative keyboards the caller maps
// onto its own markup.
package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/oponexis/tirebot/bot/format"
	"github.com/oponexis/tirebot/bot/search"
	"github.com/oponexis/tirebot/store"
)

// Reply is one outbound message. An empty Keyboard leaves the current
// reply keyboard in place.
type Reply struct {
	Text           string
	Markdown       bool
	Keyboard       [][]string
	RemoveKeyboard bool
}

// Store is the slice of the persistence layer the engine needs.
type Store interface {
	StartDialogSession(ctx context.Context, start *store.StartDialogSession) (*store.DialogSession, error)
	FindActiveDialogSession(ctx context.Context, userID, chatID string) (*store.DialogSession, error)
	UpdateDialogSession(ctx context.Context, update *store.UpdateDialogSession) (*store.DialogSession, error)
	DeactivateDialogSessions(ctx context.Context, deactivate *store.DeactivateDialogSessions) error
	CreateTireBatch(ctx context.Context, create *store.TireBatch) (*store.TireBatch, error)
	GetTireBatch(ctx context.Context, id string) (*store.TireBatch, error)
	CreateTirePhoto(ctx context.Context, create *store.TirePhoto) (*store.TirePhoto, error)
	HasMainTirePhoto(ctx context.Context, batchID string) (bool, error)
}

// Uploader moves a photo from the transport's file URL into durable media
// storage and returns the stored URL.
type Uploader interface {
	Upload(ctx context.Context, sourceURL string) (string, error)
}

type Engine struct {
	store        Store
	resolver     *search.Resolver
	uploader     Uploader
	panelBaseURL string
}

func NewEngine(s Store, resolver *search.Resolver, uploader Uploader, panelBaseURL string) *Engine {
	return &Engine{
		store:        s,
		resolver:     resolver,
		uploader:     uploader,
		panelBaseURL: panelBaseURL,
	}
}

var photosDoneRegexp = regexp.MustCompile(`(?i)^(gotowe|koniec|pomiń|pomin|brak)$`)

func (e *Engine) panelURL(batchID string) string {
	return strings.TrimRight(e.panelBaseURL, "/") + "/batches/" + batchID
}

// StartCreateBatch opens a fresh CREATE_BATCH session, deactivating
// whatever session was active for the pair.
func (e *Engine) StartCreateBatch(ctx context.Context, userID, chatID string) (Reply, error) {
	_, err := e.store.StartDialogSession(ctx, &store.StartDialogSession{
		UserID: userID,
		ChatID: chatID,
		Mode:   store.DialogModeCreateBatch,
		Step:   1,
	})
	if err != nil {
		return Reply{}, err
	}
	first := createBatchSteps[1]
	return Reply{Text: first.prompt, Keyboard: first.keyboard}, nil
}

// StartSearch opens a SEARCH session, taking over from whatever session
// was active.
func (e *Engine) StartSearch(ctx context.Context, userID, chatID string) (Reply, error) {
	_, err := e.store.StartDialogSession(ctx, &store.StartDialogSession{
		UserID: userID,
		ChatID: chatID,
		Mode:   store.DialogModeSearch,
		Step:   1,
	})
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Text: "🔍 Tryb wyszukiwania.\n\n" +
			"Napisz, czego szukasz, np.:\n" +
			"• `205/55 R16 zima`\n" +
			"• `Michelin 17`\n" +
			"• rok, lokalizacja itd.\n\n" +
			"Aby przerwać, naciśnij „✖️ Anuluj”.",
		Markdown: true,
		Keyboard: searchKeyboard,
	}, nil
}

// StartPhotoUpload binds a new UPLOAD_PHOTOS session to an existing
// batch, for the "add photos" button under inline results.
func (e *Engine) StartPhotoUpload(ctx context.Context, userID, chatID, batchID string) (Reply, error) {
	batch, err := e.store.GetTireBatch(ctx, batchID)
	if err != nil {
		return Reply{}, err
	}
	if batch == nil {
		return Reply{Text: "Ta partia nie istnieje."}, nil
	}

	_, err = e.store.StartDialogSession(ctx, &store.StartDialogSession{
		UserID: userID,
		ChatID: chatID,
		Mode:   store.DialogModeUploadPhotos,
		Step:   1,
		Data:   store.DialogData{BatchID: batchID},
	})
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Text: "✅ Tryb dodawania zdjęć.\n\n" +
			"Wyślij teraz zdjęcia tej partii (pojedynczo lub jako album).\n" +
			"Gdy skończysz, napisz *gotowe*.",
		Markdown: true,
	}, nil
}

// HandleText routes one inbound text message. The cancel token always
// wins and is checked before any mode dispatch. The returned bool reports
// whether the message belonged to a dialog; when false the caller should
// fall through to its menu handlers.
func (e *Engine) HandleText(ctx context.Context, userID, chatID, text string) ([]Reply, bool, error) {
	text = strings.TrimSpace(text)

	if text == ButtonCancel || strings.EqualFold(text, "/anuluj") {
		if err := e.store.DeactivateDialogSessions(ctx, &store.DeactivateDialogSessions{
			UserID: userID,
			ChatID: chatID,
		}); err != nil {
			return nil, true, err
		}
		return []Reply{{Text: "Dialog został anulowany.", Keyboard: MainMenuKeyboard}}, true, nil
	}

	session, err := e.store.FindActiveDialogSession(ctx, userID, chatID)
	if err != nil {
		return nil, false, err
	}
	if session == nil {
		return nil, false, nil
	}

	switch session.Mode {
	case store.DialogModeCreateBatch:
		replies, err := e.handleCreateBatchStep(ctx, session, text)
		return replies, true, err
	case store.DialogModeUploadPhotos:
		replies, err := e.handleUploadPhotosText(ctx, session, text)
		return replies, true, err
	case store.DialogModeSearch:
		replies, err := e.handleSearchText(ctx, text)
		return replies, true, err
	}
	return nil, false, nil
}

func (e *Engine) handleCreateBatchStep(ctx context.Context, session *store.DialogSession, text string) ([]Reply, error) {
	if session.Step < 1 || session.Step > createBatchStepCount {
		return e.resetSession(ctx, session)
	}

	data := session.Data
	if errText := createBatchSteps[session.Step].handle(&data, text); errText != "" {
		return []Reply{{Text: errText}}, nil
	}

	if session.Step == createBatchStepCount {
		return e.finishCreateBatch(ctx, session, data)
	}

	// Persist before replying so a retried delivery cannot replay the
	// step.
	nextStep := session.Step + 1
	if _, err := e.store.UpdateDialogSession(ctx, &store.UpdateDialogSession{
		ID:   session.ID,
		Step: &nextStep,
		Data: &data,
	}); err != nil {
		return nil, err
	}

	next := createBatchSteps[nextStep]
	return []Reply{{Text: next.prompt, Keyboard: next.keyboard}}, nil
}

func (e *Engine) finishCreateBatch(ctx context.Context, session *store.DialogSession, data store.DialogData) ([]Reply, error) {
	batchType := data.Type
	if batchType == "" {
		batchType = store.TireTypeStock
	}
	batch := &store.TireBatch{
		Type:           batchType,
		RimDiameter:    data.RimDiameter,
		Width:          data.Width,
		Height:         data.Height,
		Season:         data.Season,
		Brand:          stringValue(data.Brand),
		Model:          stringValue(data.Model),
		PricePerSet:    data.PricePerSet,
		ProductionYear: data.ProductionYear,
		LocationCode:   stringValue(data.LocationCode),
		Notes:          "Dodano przez bota Telegram (dialog).",
	}
	if data.QuantityTotal != nil {
		batch.QuantityTotal = *data.QuantityTotal
	}
	if data.QuantityAvailable != nil {
		batch.QuantityAvailable = *data.QuantityAvailable
	}

	batch, err := e.store.CreateTireBatch(ctx, batch)
	if err != nil {
		slog.Error("failed to create tire batch from dialog", "err", err)
		if err := e.deactivate(ctx, session); err != nil {
			return nil, err
		}
		return []Reply{{
			Text:           "❌ Wystąpił błąd podczas zapisu partii. Sprawdź logi serwera.",
			RemoveKeyboard: true,
		}}, nil
	}

	uploadStep := createBatchStepCount + 1
	uploadMode := store.DialogModeUploadPhotos
	if _, err := e.store.UpdateDialogSession(ctx, &store.UpdateDialogSession{
		ID:   session.ID,
		Mode: &uploadMode,
		Step: &uploadStep,
		Data: &store.DialogData{BatchID: batch.ID},
	}); err != nil {
		return nil, err
	}

	sizeLabel := format.SizeLabel(batch)
	if sizeLabel == "" {
		sizeLabel = "Rozmiar: —"
	}
	yearLabel := ""
	if batch.ProductionYear != nil {
		yearLabel = fmt.Sprintf(" (%d)", *batch.ProductionYear)
	}
	card := "✅ Partia została zapisana.\n\n" +
		sizeLabel + " | " + format.SeasonLabel(batch.Season) + "\n" +
		format.BrandModel(batch) + yearLabel + "\n" +
		"Ilość: " + format.QuantityLabel(batch) + "\n" +
		"Cena: " + format.PriceLabel(batch) + "\n" +
		"Lokalizacja: " + format.Location(batch) + "\n\n" +
		"Pełna karta: " + e.panelURL(batch.ID)

	return []Reply{
		{Text: card},
		{
			Text: "Teraz możesz dodać zdjęcia tej partii.\n\n" +
				"• Wyślij zdjęcia jako wiadomości ze zdjęciami (po jednym lub albumem).\n" +
				"• Gdy skończysz, napisz *gotowe* albo *pomiń*.",
			Markdown: true,
		},
	}, nil
}

func (e *Engine) handleUploadPhotosText(ctx context.Context, session *store.DialogSession, text string) ([]Reply, error) {
	if photosDoneRegexp.MatchString(text) {
		if err := e.deactivate(ctx, session); err != nil {
			return nil, err
		}
		reply := "👍 Zakończono dodawanie zdjęć do tej partii.\n"
		if session.Data.BatchID != "" {
			reply += "Karta w panelu: " + e.panelURL(session.Data.BatchID)
		}
		return []Reply{{Text: reply, Keyboard: MainMenuKeyboard}}, nil
	}

	return []Reply{{
		Text: "Jesteś w trybie dodawania zdjęć do nowej partii.\n\n" +
			"• Wyślij zdjęcia jako wiadomości ze zdjęciami (po jednym lub albumem).\n" +
			"• Gdy skończysz, napisz *gotowe* albo *pomiń*.",
		Markdown: true,
	}}, nil
}

func (e *Engine) handleSearchText(ctx context.Context, text string) ([]Reply, error) {
	if text == "" {
		return []Reply{{
			Text:     "Wpisz proszę frazę do wyszukania (np. `205/55 R16`, `Michelin`, `R18` itd.)",
			Markdown: true,
		}}, nil
	}

	batches, err := e.resolver.SoftSearch(ctx, text, search.DialogResultLimit)
	if err != nil {
		return nil, err
	}
	// The session stays active either way so the next message is another
	// query.
	if len(batches) == 0 {
		return []Reply{{
			Text:     fmt.Sprintf("Nic nie znaleziono dla: %q.", text),
			Keyboard: MainMenuKeyboard,
		}}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Wyniki wyszukiwania (max %d) dla: %q:\n\n", search.DialogResultLimit, text)
	for i, batch := range batches {
		b.WriteString(format.SearchResultLine(i+1, batch, e.panelURL(batch.ID)))
	}
	return []Reply{{Text: b.String(), Keyboard: MainMenuKeyboard}}, nil
}

// HandlePhoto stores one inbound photo for the active UPLOAD_PHOTOS
// session. The first photo of a batch without a main photo becomes main.
func (e *Engine) HandlePhoto(ctx context.Context, userID, chatID, sourceURL string) (Reply, bool, error) {
	session, err := e.store.FindActiveDialogSession(ctx, userID, chatID)
	if err != nil {
		return Reply{}, false, err
	}
	if session == nil || session.Mode != store.DialogModeUploadPhotos || session.Data.BatchID == "" {
		return Reply{}, false, nil
	}

	hasMain, err := e.store.HasMainTirePhoto(ctx, session.Data.BatchID)
	if err != nil {
		return Reply{}, true, err
	}

	url, err := e.uploader.Upload(ctx, sourceURL)
	if err != nil {
		slog.Error("failed to upload tire photo", "batch", session.Data.BatchID, "err", err)
		return Reply{Text: "❌ Nie udało się zapisać zdjęcia. Spróbuj jeszcze raz później."}, true, nil
	}

	if _, err := e.store.CreateTirePhoto(ctx, &store.TirePhoto{
		BatchID: session.Data.BatchID,
		URL:     url,
		IsMain:  !hasMain,
	}); err != nil {
		slog.Error("failed to save tire photo", "batch", session.Data.BatchID, "err", err)
		return Reply{Text: "❌ Nie udało się zapisać zdjęcia. Spróbuj jeszcze raz później."}, true, nil
	}

	if hasMain {
		return Reply{Text: "✅ Zdjęcie zapisane do tej partii."}, true, nil
	}
	return Reply{Text: "✅ Zdjęcie zapisane jako *główne* tej partii.", Markdown: true}, true, nil
}

func (e *Engine) resetSession(ctx context.Context, session *store.DialogSession) ([]Reply, error) {
	if err := e.deactivate(ctx, session); err != nil {
		return nil, err
	}
	return []Reply{{
		Text:     "Coś poszło nie tak, dialog został zresetowany. Spróbuj jeszcze raz komendą /nowa.",
		Keyboard: MainMenuKeyboard,
	}}, nil
}

func (e *Engine) deactivate(ctx context.Context, session *store.DialogSession) error {
	inactive := false
	_, err := e.store.UpdateDialogSession(ctx, &store.UpdateDialogSession{
		ID:       session.ID,
		IsActive: &inactive,
	})
	return err
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
