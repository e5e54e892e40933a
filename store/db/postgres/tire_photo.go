package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/oponexis/tirebot/store"
)

func (d *DB) CreateTirePhoto(ctx context.Context, create *store.TirePhoto) (*store.TirePhoto, error) {
	stmt := `
		INSERT INTO tire_photo (id, batch_id, url, is_main, created_ts)
		VALUES ($1, $2, $3, $4, $5)
	`
	now := time.Now().Unix()
	_, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.BatchID,
		create.URL,
		create.IsMain,
		now,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tire photo")
	}
	create.CreatedTs = now
	return create, nil
}

func (d *DB) GetTirePhoto(ctx context.Context, id string) (*store.TirePhoto, error) {
	photos, err := d.ListTirePhotos(ctx, &store.FindTirePhoto{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, nil
	}
	return photos[0], nil
}

func (d *DB) ListTirePhotos(ctx context.Context, find *store.FindTirePhoto) ([]*store.TirePhoto, error) {
	where, args := []string{"TRUE"}, []any{}

	if find.ID != nil {
		args = append(args, *find.ID)
		where = append(where, "id = "+placeholder(len(args)))
	}
	if find.BatchID != nil {
		args = append(args, *find.BatchID)
		where = append(where, "batch_id = "+placeholder(len(args)))
	}
	if find.IsMain != nil {
		args = append(args, *find.IsMain)
		where = append(where, "is_main = "+placeholder(len(args)))
	}

	// Main photo first, then newest first.
	query := `SELECT id, batch_id, url, is_main, created_ts FROM tire_photo
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY is_main DESC, created_ts DESC`
	if find.Limit != nil {
		args = append(args, *find.Limit)
		query += " LIMIT " + placeholder(len(args))
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tire photos")
	}
	defer rows.Close()

	var photos []*store.TirePhoto
	for rows.Next() {
		var photo store.TirePhoto
		if err := rows.Scan(
			&photo.ID,
			&photo.BatchID,
			&photo.URL,
			&photo.IsMain,
			&photo.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan tire photo")
		}
		photos = append(photos, &photo)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return photos, nil
}

func (d *DB) HasMainTirePhoto(ctx context.Context, batchID string) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM tire_photo WHERE batch_id = $1 AND is_main)",
		batchID,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check main tire photo")
	}
	return exists, nil
}

// SetMainTirePhoto promotes one photo to main, demoting every other photo of
// the same batch inside one transaction so the single-main invariant holds.
func (d *DB) SetMainTirePhoto(ctx context.Context, id string) (*store.TirePhoto, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin tx")
	}
	defer tx.Rollback()

	var batchID string
	if err := tx.QueryRowContext(ctx, "SELECT batch_id FROM tire_photo WHERE id = $1", id).Scan(&batchID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find tire photo")
	}

	if _, err := tx.ExecContext(ctx, "UPDATE tire_photo SET is_main = FALSE WHERE batch_id = $1", batchID); err != nil {
		return nil, errors.Wrap(err, "failed to demote tire photos")
	}
	if _, err := tx.ExecContext(ctx, "UPDATE tire_photo SET is_main = TRUE WHERE id = $1", id); err != nil {
		return nil, errors.Wrap(err, "failed to promote tire photo")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit tx")
	}

	return d.GetTirePhoto(ctx, id)
}

// DeleteTirePhoto removes a photo. When the main photo is deleted and other
// photos remain, the newest remaining one is promoted; when none remain, the
// batch is flagged as needing fresh pictures.
func (d *DB) DeleteTirePhoto(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin tx")
	}
	defer tx.Rollback()

	var batchID string
	var wasMain bool
	if err := tx.QueryRowContext(ctx, "SELECT batch_id, is_main FROM tire_photo WHERE id = $1", id).Scan(&batchID, &wasMain); err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return errors.Wrap(err, "failed to find tire photo")
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM tire_photo WHERE id = $1", id); err != nil {
		return errors.Wrap(err, "failed to delete tire photo")
	}

	var remaining string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM tire_photo WHERE batch_id = $1 ORDER BY created_ts DESC LIMIT 1",
		batchID,
	).Scan(&remaining)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx,
			"UPDATE tire_batch SET photo_needs_update = TRUE WHERE id = $1", batchID,
		); err != nil {
			return errors.Wrap(err, "failed to flag batch photos")
		}
	case err != nil:
		return errors.Wrap(err, "failed to find remaining tire photos")
	case wasMain:
		if _, err := tx.ExecContext(ctx,
			"UPDATE tire_photo SET is_main = (id = $1) WHERE batch_id = $2", remaining, batchID,
		); err != nil {
			return errors.Wrap(err, "failed to promote remaining tire photo")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit tx")
}
