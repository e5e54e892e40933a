// Package store provides database access to all raw objects.
package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"

	"github.com/oponexis/tirebot/internal/profile"
)

// Driver is an interface for database drivers.
type Driver interface {
	GetDB() *sql.DB
	Migrate(ctx context.Context) error
	Close() error

	// Tire batches.
	CreateTireBatch(ctx context.Context, create *TireBatch) (*TireBatch, error)
	GetTireBatch(ctx context.Context, id string) (*TireBatch, error)
	ListTireBatches(ctx context.Context, find *FindTireBatch) ([]*TireBatch, error)
	CountTireBatches(ctx context.Context, find *FindTireBatch) (int, error)
	UpdateTireBatch(ctx context.Context, update *UpdateTireBatch) (*TireBatch, error)
	DeleteTireBatch(ctx context.Context, id string) error

	// Tire photos.
	CreateTirePhoto(ctx context.Context, create *TirePhoto) (*TirePhoto, error)
	GetTirePhoto(ctx context.Context, id string) (*TirePhoto, error)
	ListTirePhotos(ctx context.Context, find *FindTirePhoto) ([]*TirePhoto, error)
	HasMainTirePhoto(ctx context.Context, batchID string) (bool, error)
	SetMainTirePhoto(ctx context.Context, id string) (*TirePhoto, error)
	DeleteTirePhoto(ctx context.Context, id string) error

	// Stock movements.
	CreateStockMovement(ctx context.Context, create *StockMovement) (*StockMovement, error)
	ListStockMovements(ctx context.Context, find *FindStockMovement) ([]*StockMovement, error)

	// Dialog sessions.
	StartDialogSession(ctx context.Context, start *StartDialogSession) (*DialogSession, error)
	FindActiveDialogSession(ctx context.Context, userID, chatID string) (*DialogSession, error)
	UpdateDialogSession(ctx context.Context, update *UpdateDialogSession) (*DialogSession, error)
	DeactivateDialogSessions(ctx context.Context, deactivate *DeactivateDialogSessions) error
}

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// CreateTireBatch creates a batch, assigning an ID when none is set.
func (s *Store) CreateTireBatch(ctx context.Context, create *TireBatch) (*TireBatch, error) {
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	return s.driver.CreateTireBatch(ctx, create)
}

func (s *Store) GetTireBatch(ctx context.Context, id string) (*TireBatch, error) {
	return s.driver.GetTireBatch(ctx, id)
}

func (s *Store) ListTireBatches(ctx context.Context, find *FindTireBatch) ([]*TireBatch, error) {
	return s.driver.ListTireBatches(ctx, find)
}

func (s *Store) CountTireBatches(ctx context.Context, find *FindTireBatch) (int, error) {
	return s.driver.CountTireBatches(ctx, find)
}

func (s *Store) UpdateTireBatch(ctx context.Context, update *UpdateTireBatch) (*TireBatch, error) {
	return s.driver.UpdateTireBatch(ctx, update)
}

func (s *Store) DeleteTireBatch(ctx context.Context, id string) error {
	return s.driver.DeleteTireBatch(ctx, id)
}

// CreateTirePhoto creates a photo, assigning an ID when none is set.
func (s *Store) CreateTirePhoto(ctx context.Context, create *TirePhoto) (*TirePhoto, error) {
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	return s.driver.CreateTirePhoto(ctx, create)
}

func (s *Store) GetTirePhoto(ctx context.Context, id string) (*TirePhoto, error) {
	return s.driver.GetTirePhoto(ctx, id)
}

func (s *Store) ListTirePhotos(ctx context.Context, find *FindTirePhoto) ([]*TirePhoto, error) {
	return s.driver.ListTirePhotos(ctx, find)
}

func (s *Store) HasMainTirePhoto(ctx context.Context, batchID string) (bool, error) {
	return s.driver.HasMainTirePhoto(ctx, batchID)
}

func (s *Store) SetMainTirePhoto(ctx context.Context, id string) (*TirePhoto, error) {
	return s.driver.SetMainTirePhoto(ctx, id)
}

func (s *Store) DeleteTirePhoto(ctx context.Context, id string) error {
	return s.driver.DeleteTirePhoto(ctx, id)
}

// CreateStockMovement posts a ledger entry and adjusts the batch availability
// in the same transaction. Returns ErrInsufficientStock when an outbound
// movement would overdraw the batch.
func (s *Store) CreateStockMovement(ctx context.Context, create *StockMovement) (*StockMovement, error) {
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	return s.driver.CreateStockMovement(ctx, create)
}

func (s *Store) ListStockMovements(ctx context.Context, find *FindStockMovement) ([]*StockMovement, error) {
	return s.driver.ListStockMovements(ctx, find)
}

// StartDialogSession atomically deactivates the prior active session(s) for
// the (user, chat) pair and creates the new one.
func (s *Store) StartDialogSession(ctx context.Context, start *StartDialogSession) (*DialogSession, error) {
	return s.driver.StartDialogSession(ctx, start)
}

// FindActiveDialogSession returns the active session for a (user, chat) pair,
// or nil when there is none.
func (s *Store) FindActiveDialogSession(ctx context.Context, userID, chatID string) (*DialogSession, error) {
	return s.driver.FindActiveDialogSession(ctx, userID, chatID)
}

func (s *Store) UpdateDialogSession(ctx context.Context, update *UpdateDialogSession) (*DialogSession, error) {
	return s.driver.UpdateDialogSession(ctx, update)
}

func (s *Store) DeactivateDialogSessions(ctx context.Context, deactivate *DeactivateDialogSessions) error {
	return s.driver.DeactivateDialogSessions(ctx, deactivate)
}

// NewSessionUID returns a new unique identifier for a dialog session.
func NewSessionUID() string {
	return shortuuid.New()
}
