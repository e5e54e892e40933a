package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oponexis/tirebot/internal/profile"
	"github.com/oponexis/tirebot/store"
)

func newTestDB(t *testing.T) store.Driver {
	t.Helper()

	driver, err := NewDB(&profile.Profile{
		DSN:    filepath.Join(t.TempDir(), "tirebot_test.db"),
		Driver: "sqlite",
		Mode:   "dev",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, driver.Close())
	})

	require.NoError(t, driver.Migrate(context.Background()))
	return driver
}

func newStockBatch(id string) *store.TireBatch {
	rim, width, height := 16, 205, 55
	season := store.SeasonWinter
	return &store.TireBatch{
		ID:                id,
		Type:              store.TireTypeStock,
		RimDiameter:       &rim,
		Width:             &width,
		Height:            &height,
		Season:            &season,
		Brand:             "Michelin",
		Model:             "Alpin 6",
		QuantityTotal:     4,
		QuantityAvailable: 4,
		LocationCode:      "A-1-1",
	}
}

func TestTireBatchCRUD(t *testing.T) {
	ctx := context.Background()
	driver := newTestDB(t)

	created, err := driver.CreateTireBatch(ctx, newStockBatch("batch-1"))
	require.NoError(t, err)
	require.NotZero(t, created.CreatedTs)

	got, err := driver.GetTireBatch(ctx, "batch-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Michelin", got.Brand)
	require.Equal(t, 16, *got.RimDiameter)
	require.Equal(t, store.SeasonWinter, *got.Season)
	require.Nil(t, got.PricePerSet)

	missing, err := driver.GetTireBatch(ctx, "no-such-batch")
	require.NoError(t, err)
	require.Nil(t, missing)

	brand := "Continental"
	price := 1200.0
	updated, err := driver.UpdateTireBatch(ctx, &store.UpdateTireBatch{
		ID:          "batch-1",
		Brand:       &brand,
		PricePerSet: &price,
	})
	require.NoError(t, err)
	require.Equal(t, "Continental", updated.Brand)
	require.Equal(t, 1200.0, *updated.PricePerSet)
	// Untouched fields survive a partial update.
	require.Equal(t, "Alpin 6", updated.Model)

	require.NoError(t, driver.DeleteTireBatch(ctx, "batch-1"))
	got, err = driver.GetTireBatch(ctx, "batch-1")
	require.NoError(t, err)
	require.Nil(t, got)

	require.Error(t, driver.DeleteTireBatch(ctx, "batch-1"))
}

func TestListTireBatchesFilters(t *testing.T) {
	ctx := context.Background()
	driver := newTestDB(t)

	stock := newStockBatch("batch-stock")
	_, err := driver.CreateTireBatch(ctx, stock)
	require.NoError(t, err)

	storage := newStockBatch("batch-storage")
	storage.Type = store.TireTypeStorage
	summer := store.SeasonSummer
	storage.Season = &summer
	storage.Brand = "Goodyear"
	_, err = driver.CreateTireBatch(ctx, storage)
	require.NoError(t, err)

	stockType := store.TireTypeStock
	batches, err := driver.ListTireBatches(ctx, &store.FindTireBatch{Type: &stockType})
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Equal(t, "batch-stock", batches[0].ID)

	count, err := driver.CountTireBatches(ctx, &store.FindTireBatch{})
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// Text matching is case-insensitive over brand, model, notes, location.
	query := "goodyear"
	batches, err = driver.ListTireBatches(ctx, &store.FindTireBatch{TextQuery: &query})
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Equal(t, "batch-storage", batches[0].ID)

	winter := store.SeasonWinter
	batches, err = driver.ListTireBatches(ctx, &store.FindTireBatch{Season: &winter})
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Equal(t, "batch-stock", batches[0].ID)

	// A numeric token matches rim, width, height and production year.
	sixteen := 16
	batches, err = driver.ListTireBatches(ctx, &store.FindTireBatch{
		Tokens: []store.SearchToken{{Number: &sixteen}},
	})
	require.NoError(t, err)
	require.Len(t, batches, 2)
}

func TestTirePhotoMainInvariant(t *testing.T) {
	ctx := context.Background()
	driver := newTestDB(t)

	_, err := driver.CreateTireBatch(ctx, newStockBatch("batch-1"))
	require.NoError(t, err)

	hasMain, err := driver.HasMainTirePhoto(ctx, "batch-1")
	require.NoError(t, err)
	require.False(t, hasMain)

	_, err = driver.CreateTirePhoto(ctx, &store.TirePhoto{
		ID: "photo-1", BatchID: "batch-1", URL: "https://files.local/1.jpg", IsMain: true,
	})
	require.NoError(t, err)
	_, err = driver.CreateTirePhoto(ctx, &store.TirePhoto{
		ID: "photo-2", BatchID: "batch-1", URL: "https://files.local/2.jpg",
	})
	require.NoError(t, err)

	hasMain, err = driver.HasMainTirePhoto(ctx, "batch-1")
	require.NoError(t, err)
	require.True(t, hasMain)

	// A second main photo violates the partial unique index.
	_, err = driver.CreateTirePhoto(ctx, &store.TirePhoto{
		ID: "photo-3", BatchID: "batch-1", URL: "https://files.local/3.jpg", IsMain: true,
	})
	require.Error(t, err)

	promoted, err := driver.SetMainTirePhoto(ctx, "photo-2")
	require.NoError(t, err)
	require.True(t, promoted.IsMain)

	demoted, err := driver.GetTirePhoto(ctx, "photo-1")
	require.NoError(t, err)
	require.False(t, demoted.IsMain)

	// Deleting the main photo promotes the remaining one.
	require.NoError(t, driver.DeleteTirePhoto(ctx, "photo-2"))
	photo, err := driver.GetTirePhoto(ctx, "photo-1")
	require.NoError(t, err)
	require.True(t, photo.IsMain)

	// Deleting the last photo flags the batch for fresh pictures.
	require.NoError(t, driver.DeleteTirePhoto(ctx, "photo-1"))
	batch, err := driver.GetTireBatch(ctx, "batch-1")
	require.NoError(t, err)
	require.True(t, batch.PhotoNeedsUpdate)
}

func TestStockMovementArithmetic(t *testing.T) {
	ctx := context.Background()
	driver := newTestDB(t)

	_, err := driver.CreateTireBatch(ctx, newStockBatch("batch-1"))
	require.NoError(t, err)

	_, err = driver.CreateStockMovement(ctx, &store.StockMovement{
		ID: "mv-1", BatchID: "batch-1", Type: store.MovementTypeIn, Amount: 4, Reason: "dostawa",
	})
	require.NoError(t, err)

	batch, err := driver.GetTireBatch(ctx, "batch-1")
	require.NoError(t, err)
	require.Equal(t, 8, batch.QuantityAvailable)
	require.False(t, batch.PhotoNeedsUpdate)

	_, err = driver.CreateStockMovement(ctx, &store.StockMovement{
		ID: "mv-2", BatchID: "batch-1", Type: store.MovementTypeOut, Amount: 6, Reason: "sprzedaż",
	})
	require.NoError(t, err)

	batch, err = driver.GetTireBatch(ctx, "batch-1")
	require.NoError(t, err)
	require.Equal(t, 2, batch.QuantityAvailable)
	// Outbound stock shrinks the stack, so its pictures go stale.
	require.True(t, batch.PhotoNeedsUpdate)

	// Overdrawing fails and leaves the batch untouched.
	_, err = driver.CreateStockMovement(ctx, &store.StockMovement{
		ID: "mv-3", BatchID: "batch-1", Type: store.MovementTypeOut, Amount: 3,
	})
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	batch, err = driver.GetTireBatch(ctx, "batch-1")
	require.NoError(t, err)
	require.Equal(t, 2, batch.QuantityAvailable)

	batchID := "batch-1"
	movements, err := driver.ListStockMovements(ctx, &store.FindStockMovement{BatchID: &batchID})
	require.NoError(t, err)
	require.Len(t, movements, 2)
}

func TestDialogSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	driver := newTestDB(t)

	session, err := driver.StartDialogSession(ctx, &store.StartDialogSession{
		UserID: "user-1",
		ChatID: "chat-1",
		Mode:   store.DialogModeCreateBatch,
		Step:   1,
	})
	require.NoError(t, err)
	require.True(t, session.IsActive)
	require.NotEmpty(t, session.UID)

	active, err := driver.FindActiveDialogSession(ctx, "user-1", "chat-1")
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, session.ID, active.ID)

	// Starting a new session replaces the previous one.
	replacement, err := driver.StartDialogSession(ctx, &store.StartDialogSession{
		UserID: "user-1",
		ChatID: "chat-1",
		Mode:   store.DialogModeSearch,
		Step:   1,
	})
	require.NoError(t, err)

	active, err = driver.FindActiveDialogSession(ctx, "user-1", "chat-1")
	require.NoError(t, err)
	require.Equal(t, replacement.ID, active.ID)
	require.Equal(t, store.DialogModeSearch, active.Mode)

	// Step and data advance together as the dialog progresses.
	step := 2
	width := 205
	updated, err := driver.UpdateDialogSession(ctx, &store.UpdateDialogSession{
		ID:   replacement.ID,
		Step: &step,
		Data: &store.DialogData{Width: &width},
	})
	require.NoError(t, err)
	require.Equal(t, 2, updated.Step)
	require.Equal(t, 205, *updated.Data.Width)

	require.NoError(t, driver.DeactivateDialogSessions(ctx, &store.DeactivateDialogSessions{
		UserID: "user-1",
		ChatID: "chat-1",
	}))
	active, err = driver.FindActiveDialogSession(ctx, "user-1", "chat-1")
	require.NoError(t, err)
	require.Nil(t, active)

	// Sessions of another chat are untouched.
	other, err := driver.StartDialogSession(ctx, &store.StartDialogSession{
		UserID: "user-1",
		ChatID: "chat-2",
		Mode:   store.DialogModeUploadPhotos,
		Step:   11,
	})
	require.NoError(t, err)
	active, err = driver.FindActiveDialogSession(ctx, "user-1", "chat-2")
	require.NoError(t, err)
	require.Equal(t, other.ID, active.ID)
}
