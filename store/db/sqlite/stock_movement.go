package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/oponexis/tirebot/store"
)

// CreateStockMovement posts a ledger entry and adjusts the batch availability
// in the same transaction. Outbound movements that would overdraw the batch
// fail with store.ErrInsufficientStock and leave nothing behind.
func (d *DB) CreateStockMovement(ctx context.Context, create *store.StockMovement) (*store.StockMovement, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin tx")
	}
	defer tx.Rollback()

	var available int
	if err := tx.QueryRowContext(ctx,
		"SELECT quantity_available FROM tire_batch WHERE id = ?", create.BatchID,
	).Scan(&available); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, errors.Wrap(err, "failed to find batch")
	}

	newAvailable := available
	if create.Type == store.MovementTypeIn {
		newAvailable = available + create.Amount
	} else if create.Type.Outbound() {
		newAvailable = available - create.Amount
		if newAvailable < 0 {
			return nil, store.ErrInsufficientStock
		}
	}

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO stock_movement (id, batch_id, type, amount, reason, created_ts) VALUES (?, ?, ?, ?, ?, ?)",
		create.ID, create.BatchID, string(create.Type), create.Amount, create.Reason, now,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create stock movement")
	}

	// OUT and SCRAP shrink the physical stack, so its pictures go stale.
	photoNeedsUpdate := create.Type == store.MovementTypeOut || create.Type == store.MovementTypeScrap
	if _, err := tx.ExecContext(ctx,
		"UPDATE tire_batch SET quantity_available = ?, photo_needs_update = photo_needs_update OR ?, updated_ts = ? WHERE id = ?",
		newAvailable, photoNeedsUpdate, now, create.BatchID,
	); err != nil {
		return nil, errors.Wrap(err, "failed to adjust batch availability")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit tx")
	}

	create.CreatedTs = now
	return create, nil
}

func (d *DB) ListStockMovements(ctx context.Context, find *store.FindStockMovement) ([]*store.StockMovement, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.BatchID != nil {
		where, args = append(where, "batch_id = ?"), append(args, *find.BatchID)
	}

	query := `SELECT id, batch_id, type, amount, reason, created_ts FROM stock_movement
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stock movements")
	}
	defer rows.Close()

	var movements []*store.StockMovement
	for rows.Next() {
		var movement store.StockMovement
		if err := rows.Scan(
			&movement.ID,
			&movement.BatchID,
			&movement.Type,
			&movement.Amount,
			&movement.Reason,
			&movement.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan stock movement")
		}
		movements = append(movements, &movement)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return movements, nil
}
