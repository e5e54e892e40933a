package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/oponexis/tirebot/internal/profile"
	"github.com/oponexis/tirebot/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a SQLite database at the DSN given by the profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// WAL journal mode prevents reader/writer locking issues; busy_timeout
	// covers the webhook handler and the admin API writing concurrently.
	// With the `modernc.org/sqlite` driver each pragma must be prefixed
	// with `_pragma=`.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// A single connection is optimal for SQLite with WAL.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := DB{db: sqliteDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the schema when it does not exist yet. The partial unique
// indexes realize two invariants at write time: at most one active dialog
// session per (user, chat) pair, and at most one main photo per batch.
func (d *DB) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS tire_batch (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	rim_diameter INTEGER,
	width INTEGER,
	height INTEGER,
	season TEXT,
	brand TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	quantity_total INTEGER NOT NULL,
	quantity_available INTEGER NOT NULL,
	price_per_set REAL,
	price_per_tire REAL,
	production_year INTEGER,
	location_code TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	owner_name TEXT NOT NULL DEFAULT '',
	owner_phone TEXT NOT NULL DEFAULT '',
	photo_needs_update INTEGER NOT NULL DEFAULT 0,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tire_batch_type_created ON tire_batch (type, created_ts DESC);

CREATE TABLE IF NOT EXISTS tire_photo (
	id TEXT PRIMARY KEY,
	batch_id TEXT NOT NULL REFERENCES tire_batch (id) ON DELETE CASCADE,
	url TEXT NOT NULL,
	is_main INTEGER NOT NULL DEFAULT 0,
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tire_photo_batch ON tire_photo (batch_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_tire_photo_main ON tire_photo (batch_id) WHERE is_main = 1;

CREATE TABLE IF NOT EXISTS stock_movement (
	id TEXT PRIMARY KEY,
	batch_id TEXT NOT NULL REFERENCES tire_batch (id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	amount INTEGER NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stock_movement_batch ON stock_movement (batch_id);

CREATE TABLE IF NOT EXISTS dialog_session (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	chat_id TEXT NOT NULL,
	mode TEXT NOT NULL,
	step INTEGER NOT NULL,
	data TEXT NOT NULL DEFAULT '{}',
	is_active INTEGER NOT NULL DEFAULT 1,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_dialog_session_active ON dialog_session (user_id, chat_id) WHERE is_active = 1;
CREATE INDEX IF NOT EXISTS idx_dialog_session_user ON dialog_session (user_id, chat_id);
`
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to migrate schema")
	}
	return nil
}

var _ store.Driver = (*DB)(nil)
