package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oponexis/tirebot/bot/search"
	"github.com/oponexis/tirebot/store"
)

// fakeStore is a minimal in-memory realization of the engine's store
// dependency, including the deactivate-then-create session semantics.
type fakeStore struct {
	sessions        []*store.DialogSession
	batches         []*store.TireBatch
	photos          []*store.TirePhoto
	nextSessionID   int64
	failCreateBatch bool
}

func (f *fakeStore) StartDialogSession(_ context.Context, start *store.StartDialogSession) (*store.DialogSession, error) {
	for _, session := range f.sessions {
		if session.UserID == start.UserID && session.ChatID == start.ChatID {
			session.IsActive = false
		}
	}
	f.nextSessionID++
	session := &store.DialogSession{
		ID:       f.nextSessionID,
		UID:      store.NewSessionUID(),
		UserID:   start.UserID,
		ChatID:   start.ChatID,
		Mode:     start.Mode,
		Step:     start.Step,
		Data:     start.Data,
		IsActive: true,
	}
	f.sessions = append(f.sessions, session)
	return session, nil
}

func (f *fakeStore) FindActiveDialogSession(_ context.Context, userID, chatID string) (*store.DialogSession, error) {
	for _, session := range f.sessions {
		if session.UserID == userID && session.ChatID == chatID && session.IsActive {
			copied := *session
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdateDialogSession(_ context.Context, update *store.UpdateDialogSession) (*store.DialogSession, error) {
	for _, session := range f.sessions {
		if session.ID != update.ID {
			continue
		}
		if update.Mode != nil {
			session.Mode = *update.Mode
		}
		if update.Step != nil {
			session.Step = *update.Step
		}
		if update.Data != nil {
			session.Data = *update.Data
		}
		if update.IsActive != nil {
			session.IsActive = *update.IsActive
		}
		copied := *session
		return &copied, nil
	}
	return nil, errors.New("session not found")
}

func (f *fakeStore) DeactivateDialogSessions(_ context.Context, deactivate *store.DeactivateDialogSessions) error {
	for _, session := range f.sessions {
		if session.UserID == deactivate.UserID && session.ChatID == deactivate.ChatID {
			session.IsActive = false
		}
	}
	return nil
}

func (f *fakeStore) CreateTireBatch(_ context.Context, create *store.TireBatch) (*store.TireBatch, error) {
	if f.failCreateBatch {
		return nil, errors.New("create failed")
	}
	create.ID = fmt.Sprintf("batch-%d", len(f.batches)+1)
	f.batches = append(f.batches, create)
	return create, nil
}

func (f *fakeStore) GetTireBatch(_ context.Context, id string) (*store.TireBatch, error) {
	for _, batch := range f.batches {
		if batch.ID == id {
			return batch, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListTireBatches(_ context.Context, find *store.FindTireBatch) ([]*store.TireBatch, error) {
	batches := f.batches
	if find.Limit != nil && len(batches) > *find.Limit {
		batches = batches[:*find.Limit]
	}
	return batches, nil
}

func (f *fakeStore) CreateTirePhoto(_ context.Context, create *store.TirePhoto) (*store.TirePhoto, error) {
	create.ID = fmt.Sprintf("photo-%d", len(f.photos)+1)
	f.photos = append(f.photos, create)
	return create, nil
}

func (f *fakeStore) HasMainTirePhoto(_ context.Context, batchID string) (bool, error) {
	for _, photo := range f.photos {
		if photo.BatchID == batchID && photo.IsMain {
			return true, nil
		}
	}
	return false, nil
}

type fakeUploader struct {
	fail bool
}

func (f *fakeUploader) Upload(_ context.Context, sourceURL string) (string, error) {
	if f.fail {
		return "", errors.New("upload failed")
	}
	return "https://media.local/" + sourceURL, nil
}

func newTestEngine(f *fakeStore) *Engine {
	return NewEngine(f, search.NewResolver(f), &fakeUploader{}, "https://panel.example.com")
}

func (f *fakeStore) activeSessions() []*store.DialogSession {
	var active []*store.DialogSession
	for _, session := range f.sessions {
		if session.IsActive {
			active = append(active, session)
		}
	}
	return active
}

var createBatchInputs = []string{
	"Magazyn (sprzedaż)",
	"17",
	"205/55",
	"Zima",
	"Michelin",
	"Pilot Sport 4",
	"4",
	"500",
	"2020",
	"A-3-2",
}

func TestCreateBatchEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := &fakeStore{}
	engine := newTestEngine(f)

	reply, err := engine.StartCreateBatch(ctx, "u1", "c1")
	require.NoError(t, err)
	require.Contains(t, reply.Text, "Krok 1/10")

	for _, input := range createBatchInputs {
		replies, handled, err := engine.HandleText(ctx, "u1", "c1", input)
		require.NoError(t, err)
		require.True(t, handled)
		require.NotEmpty(t, replies)
	}

	require.Len(t, f.batches, 1)
	batch := f.batches[0]
	require.Equal(t, store.TireTypeStock, batch.Type)
	require.Equal(t, 17, *batch.RimDiameter)
	require.Equal(t, 205, *batch.Width)
	require.Equal(t, 55, *batch.Height)
	require.Equal(t, store.SeasonWinter, *batch.Season)
	require.Equal(t, "Michelin", batch.Brand)
	require.Equal(t, "Pilot Sport 4", batch.Model)
	require.Equal(t, 4, batch.QuantityTotal)
	require.Equal(t, 4, batch.QuantityAvailable)
	require.Equal(t, 500.0, *batch.PricePerSet)
	require.Equal(t, 2020, *batch.ProductionYear)
	require.Equal(t, "A-3-2", batch.LocationCode)
	require.NotEmpty(t, batch.Notes)

	active := f.activeSessions()
	require.Len(t, active, 1)
	require.Equal(t, store.DialogModeUploadPhotos, active[0].Mode)
	require.Equal(t, 11, active[0].Step)
	require.Equal(t, batch.ID, active[0].Data.BatchID)
}

func TestCreateBatchSkips(t *testing.T) {
	ctx := context.Background()
	f := &fakeStore{}
	engine := newTestEngine(f)

	_, err := engine.StartCreateBatch(ctx, "u1", "c1")
	require.NoError(t, err)

	for _, input := range []string{"przechowanie klienta", "16", "-", "Pomiń", "-", "-", "8", "brak", "brak", "-"} {
		_, handled, err := engine.HandleText(ctx, "u1", "c1", input)
		require.NoError(t, err)
		require.True(t, handled)
	}

	require.Len(t, f.batches, 1)
	batch := f.batches[0]
	require.Equal(t, store.TireTypeStorage, batch.Type)
	require.Equal(t, 16, *batch.RimDiameter)
	require.Nil(t, batch.Width)
	require.Nil(t, batch.Height)
	require.Nil(t, batch.Season)
	require.Empty(t, batch.Brand)
	require.Empty(t, batch.Model)
	require.Equal(t, 8, batch.QuantityTotal)
	require.Nil(t, batch.PricePerSet)
	require.Nil(t, batch.ProductionYear)
	require.Empty(t, batch.LocationCode)
}

func TestInvalidInputDoesNotAdvance(t *testing.T) {
	ctx := context.Background()
	f := &fakeStore{}
	engine := newTestEngine(f)

	_, err := engine.StartCreateBatch(ctx, "u1", "c1")
	require.NoError(t, err)

	_, _, err = engine.HandleText(ctx, "u1", "c1", "Magazyn (sprzedaż)")
	require.NoError(t, err)

	replies, handled, err := engine.HandleText(ctx, "u1", "c1", "abc")
	require.NoError(t, err)
	require.True(t, handled)
	require.Len(t, replies, 1)
	require.Contains(t, replies[0].Text, "Nieprawidłowa średnica")

	session, err := f.FindActiveDialogSession(ctx, "u1", "c1")
	require.NoError(t, err)
	require.Equal(t, 2, session.Step)
	require.Nil(t, session.Data.RimDiameter)
	require.Equal(t, store.TireTypeStock, session.Data.Type)
}

func TestCancelAlwaysWins(t *testing.T) {
	ctx := context.Background()
	f := &fakeStore{}
	engine := newTestEngine(f)

	_, err := engine.StartCreateBatch(ctx, "u1", "c1")
	require.NoError(t, err)
	_, _, err = engine.HandleText(ctx, "u1", "c1", "Magazyn (sprzedaż)")
	require.NoError(t, err)

	replies, handled, err := engine.HandleText(ctx, "u1", "c1", "✖️ Anuluj")
	require.NoError(t, err)
	require.True(t, handled)
	require.Contains(t, replies[0].Text, "anulowany")
	require.Empty(t, f.activeSessions())
	require.Empty(t, f.batches)

	// The slash command variant is case-insensitive.
	_, err = engine.StartSearch(ctx, "u1", "c1")
	require.NoError(t, err)
	_, handled, err = engine.HandleText(ctx, "u1", "c1", "/ANULUJ")
	require.NoError(t, err)
	require.True(t, handled)
	require.Empty(t, f.activeSessions())
}

func TestNewSessionDeactivatesOld(t *testing.T) {
	ctx := context.Background()
	f := &fakeStore{}
	engine := newTestEngine(f)

	_, err := engine.StartSearch(ctx, "u1", "c1")
	require.NoError(t, err)
	_, err = engine.StartCreateBatch(ctx, "u1", "c1")
	require.NoError(t, err)

	active := f.activeSessions()
	require.Len(t, active, 1)
	require.Equal(t, store.DialogModeCreateBatch, active[0].Mode)
}

func TestStepOverflowResets(t *testing.T) {
	ctx := context.Background()
	f := &fakeStore{}
	engine := newTestEngine(f)

	session, err := f.StartDialogSession(ctx, &store.StartDialogSession{
		UserID: "u1", ChatID: "c1", Mode: store.DialogModeCreateBatch, Step: 42,
	})
	require.NoError(t, err)
	require.True(t, session.IsActive)

	replies, handled, err := engine.HandleText(ctx, "u1", "c1", "whatever")
	require.NoError(t, err)
	require.True(t, handled)
	require.Contains(t, replies[0].Text, "zresetowany")
	require.Empty(t, f.activeSessions())
}

func TestCreateBatchFailureDeactivates(t *testing.T) {
	ctx := context.Background()
	f := &fakeStore{failCreateBatch: true}
	engine := newTestEngine(f)

	_, err := engine.StartCreateBatch(ctx, "u1", "c1")
	require.NoError(t, err)
	for i, input := range createBatchInputs {
		replies, _, err := engine.HandleText(ctx, "u1", "c1", input)
		require.NoError(t, err)
		if i == len(createBatchInputs)-1 {
			require.Contains(t, replies[0].Text, "błąd podczas zapisu")
		}
	}

	require.Empty(t, f.batches)
	require.Empty(t, f.activeSessions())
}

func TestPhotoUploadFlow(t *testing.T) {
	ctx := context.Background()
	f := &fakeStore{}
	engine := newTestEngine(f)

	_, err := engine.StartCreateBatch(ctx, "u1", "c1")
	require.NoError(t, err)
	for _, input := range createBatchInputs {
		_, _, err := engine.HandleText(ctx, "u1", "c1", input)
		require.NoError(t, err)
	}
	batchID := f.batches[0].ID

	reply, handled, err := engine.HandlePhoto(ctx, "u1", "c1", "tg/file1.jpg")
	require.NoError(t, err)
	require.True(t, handled)
	require.Contains(t, reply.Text, "główne")

	reply, handled, err = engine.HandlePhoto(ctx, "u1", "c1", "tg/file2.jpg")
	require.NoError(t, err)
	require.True(t, handled)
	require.NotContains(t, reply.Text, "główne")

	require.Len(t, f.photos, 2)
	require.True(t, f.photos[0].IsMain)
	require.False(t, f.photos[1].IsMain)
	require.Equal(t, batchID, f.photos[0].BatchID)
	require.Equal(t, "https://media.local/tg/file1.jpg", f.photos[0].URL)

	// Completion keyword closes the session and links the panel card.
	replies, handled, err := engine.HandleText(ctx, "u1", "c1", "gotowe")
	require.NoError(t, err)
	require.True(t, handled)
	require.True(t, strings.Contains(replies[0].Text, "/batches/"+batchID))
	require.Empty(t, f.activeSessions())

	// With no session a photo is ignored.
	_, handled, err = engine.HandlePhoto(ctx, "u1", "c1", "tg/file3.jpg")
	require.NoError(t, err)
	require.False(t, handled)
}

func TestSearchDialogStaysActive(t *testing.T) {
	ctx := context.Background()
	f := &fakeStore{}
	winter := store.SeasonWinter
	width, height, rim := 205, 55, 16
	f.batches = append(f.batches, &store.TireBatch{
		ID: "b1", Type: store.TireTypeStock,
		Width: &width, Height: &height, RimDiameter: &rim,
		Season: &winter, Brand: "Michelin", QuantityTotal: 4, QuantityAvailable: 4,
	})
	engine := newTestEngine(f)

	_, err := engine.StartSearch(ctx, "u1", "c1")
	require.NoError(t, err)

	replies, handled, err := engine.HandleText(ctx, "u1", "c1", "205/55 zima")
	require.NoError(t, err)
	require.True(t, handled)
	require.Contains(t, replies[0].Text, "Wyniki wyszukiwania")
	require.Contains(t, replies[0].Text, "Michelin")

	// Another query right away, no restart needed.
	replies, handled, err = engine.HandleText(ctx, "u1", "c1", "nic takiego")
	require.NoError(t, err)
	require.True(t, handled)
	require.Len(t, f.activeSessions(), 1)
	require.NotEmpty(t, replies)
}

func TestStartPhotoUploadForMissingBatch(t *testing.T) {
	ctx := context.Background()
	f := &fakeStore{}
	engine := newTestEngine(f)

	reply, err := engine.StartPhotoUpload(ctx, "u1", "c1", "nope")
	require.NoError(t, err)
	require.Contains(t, reply.Text, "nie istnieje")
	require.Empty(t, f.activeSessions())
}
