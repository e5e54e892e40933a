package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/oponexis/tirebot/store"
)

func (d *DB) CreateTireBatch(ctx context.Context, create *store.TireBatch) (*store.TireBatch, error) {
	stmt := `
		INSERT INTO tire_batch (
			id, type, rim_diameter, width, height, season, brand, model,
			quantity_total, quantity_available, price_per_set, price_per_tire,
			production_year, location_code, notes, owner_name, owner_phone,
			photo_needs_update, created_ts, updated_ts
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().Unix()
	_, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		string(create.Type),
		create.RimDiameter,
		create.Width,
		create.Height,
		seasonArg(create.Season),
		create.Brand,
		create.Model,
		create.QuantityTotal,
		create.QuantityAvailable,
		create.PricePerSet,
		create.PricePerTire,
		create.ProductionYear,
		create.LocationCode,
		create.Notes,
		create.OwnerName,
		create.OwnerPhone,
		create.PhotoNeedsUpdate,
		now,
		now,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tire batch")
	}
	create.CreatedTs = now
	create.UpdatedTs = now
	return create, nil
}

func (d *DB) GetTireBatch(ctx context.Context, id string) (*store.TireBatch, error) {
	batches, err := d.ListTireBatches(ctx, &store.FindTireBatch{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, nil
	}
	return batches[0], nil
}

// buildTireBatchWhere translates the tiered predicate into SQL. Every set
// field is ANDed; TextQuery and Tokens each become one OR group.
func buildTireBatchWhere(find *store.FindTireBatch) ([]string, []any) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "b.id = ?"), append(args, *find.ID)
	}
	if find.Type != nil {
		where, args = append(where, "b.type = ?"), append(args, string(*find.Type))
	}
	if find.RimDiameter != nil {
		where, args = append(where, "b.rim_diameter = ?"), append(args, *find.RimDiameter)
	}
	if find.Width != nil {
		where, args = append(where, "b.width = ?"), append(args, *find.Width)
	}
	if find.Height != nil {
		where, args = append(where, "b.height = ?"), append(args, *find.Height)
	}
	if find.Season != nil {
		where, args = append(where, "b.season = ?"), append(args, string(*find.Season))
	}
	if find.TextQuery != nil {
		or := make([]string, 0, 4)
		for _, col := range []string{"b.brand", "b.model", "b.notes", "b.location_code"} {
			or = append(or, fmt.Sprintf("LOWER(%s) LIKE '%%' || LOWER(?) || '%%'", col))
			args = append(args, *find.TextQuery)
		}
		where = append(where, "("+strings.Join(or, " OR ")+")")
	}
	if len(find.Tokens) > 0 {
		or := []string{}
		for _, token := range find.Tokens {
			if token.Number != nil {
				for _, col := range []string{"b.rim_diameter", "b.width", "b.height", "b.production_year"} {
					or = append(or, col+" = ?")
					args = append(args, *token.Number)
				}
			} else if token.Text != "" {
				for _, col := range []string{"b.brand", "b.model", "b.notes", "b.location_code"} {
					or = append(or, fmt.Sprintf("LOWER(%s) LIKE '%%' || LOWER(?) || '%%'", col))
					args = append(args, token.Text)
				}
			}
		}
		if len(or) > 0 {
			where = append(where, "("+strings.Join(or, " OR ")+")")
		}
	}

	return where, args
}

func (d *DB) ListTireBatches(ctx context.Context, find *store.FindTireBatch) ([]*store.TireBatch, error) {
	where, args := buildTireBatchWhere(find)

	fields := `
		b.id, b.type, b.rim_diameter, b.width, b.height, b.season, b.brand, b.model,
		b.quantity_total, b.quantity_available, b.price_per_set, b.price_per_tire,
		b.production_year, b.location_code, b.notes, b.owner_name, b.owner_phone,
		b.photo_needs_update, b.created_ts, b.updated_ts`
	join := ""
	if find.WithMainPhoto {
		fields += ", COALESCE(p.url, '')"
		join = " LEFT JOIN tire_photo p ON p.batch_id = b.id AND p.is_main = 1"
	}

	query := "SELECT" + fields + " FROM tire_batch b" + join +
		" WHERE " + strings.Join(where, " AND ") +
		" ORDER BY b.created_ts DESC"
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
		if find.Offset != nil {
			query += " OFFSET ?"
			args = append(args, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tire batches")
	}
	defer rows.Close()

	var batches []*store.TireBatch
	for rows.Next() {
		batch, err := scanTireBatch(rows, find.WithMainPhoto)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return batches, nil
}

func (d *DB) CountTireBatches(ctx context.Context, find *store.FindTireBatch) (int, error) {
	where, args := buildTireBatchWhere(find)

	query := "SELECT COUNT(*) FROM tire_batch b WHERE " + strings.Join(where, " AND ")
	var count int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count tire batches")
	}
	return count, nil
}

func (d *DB) UpdateTireBatch(ctx context.Context, update *store.UpdateTireBatch) (*store.TireBatch, error) {
	set, args := []string{}, []any{}

	if update.Type != nil {
		set, args = append(set, "type = ?"), append(args, string(*update.Type))
	}
	if update.RimDiameter != nil {
		set, args = append(set, "rim_diameter = ?"), append(args, *update.RimDiameter)
	}
	if update.Width != nil {
		set, args = append(set, "width = ?"), append(args, *update.Width)
	}
	if update.Height != nil {
		set, args = append(set, "height = ?"), append(args, *update.Height)
	}
	if update.Season != nil {
		set, args = append(set, "season = ?"), append(args, string(*update.Season))
	}
	if update.Brand != nil {
		set, args = append(set, "brand = ?"), append(args, *update.Brand)
	}
	if update.Model != nil {
		set, args = append(set, "model = ?"), append(args, *update.Model)
	}
	if update.QuantityTotal != nil {
		set, args = append(set, "quantity_total = ?"), append(args, *update.QuantityTotal)
	}
	if update.QuantityAvailable != nil {
		set, args = append(set, "quantity_available = ?"), append(args, *update.QuantityAvailable)
	}
	if update.PricePerSet != nil {
		set, args = append(set, "price_per_set = ?"), append(args, *update.PricePerSet)
	}
	if update.PricePerTire != nil {
		set, args = append(set, "price_per_tire = ?"), append(args, *update.PricePerTire)
	}
	if update.ProductionYear != nil {
		set, args = append(set, "production_year = ?"), append(args, *update.ProductionYear)
	}
	if update.LocationCode != nil {
		set, args = append(set, "location_code = ?"), append(args, *update.LocationCode)
	}
	if update.Notes != nil {
		set, args = append(set, "notes = ?"), append(args, *update.Notes)
	}
	if update.OwnerName != nil {
		set, args = append(set, "owner_name = ?"), append(args, *update.OwnerName)
	}
	if update.OwnerPhone != nil {
		set, args = append(set, "owner_phone = ?"), append(args, *update.OwnerPhone)
	}
	if update.PhotoNeedsUpdate != nil {
		set, args = append(set, "photo_needs_update = ?"), append(args, *update.PhotoNeedsUpdate)
	}

	set, args = append(set, "updated_ts = ?"), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := "UPDATE tire_batch SET " + strings.Join(set, ", ") + " WHERE id = ?"
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update tire batch")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, sql.ErrNoRows
	}

	return d.GetTireBatch(ctx, update.ID)
}

func (d *DB) DeleteTireBatch(ctx context.Context, id string) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM tire_batch WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "failed to delete tire batch")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func seasonArg(season *store.Season) any {
	if season == nil {
		return nil
	}
	return string(*season)
}

func scanTireBatch(rows *sql.Rows, withMainPhoto bool) (*store.TireBatch, error) {
	var batch store.TireBatch
	var rimDiameter, width, height, productionYear sql.NullInt64
	var season sql.NullString
	var pricePerSet, pricePerTire sql.NullFloat64

	dest := []any{
		&batch.ID,
		&batch.Type,
		&rimDiameter,
		&width,
		&height,
		&season,
		&batch.Brand,
		&batch.Model,
		&batch.QuantityTotal,
		&batch.QuantityAvailable,
		&pricePerSet,
		&pricePerTire,
		&productionYear,
		&batch.LocationCode,
		&batch.Notes,
		&batch.OwnerName,
		&batch.OwnerPhone,
		&batch.PhotoNeedsUpdate,
		&batch.CreatedTs,
		&batch.UpdatedTs,
	}
	if withMainPhoto {
		dest = append(dest, &batch.MainPhotoURL)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, errors.Wrap(err, "failed to scan tire batch")
	}

	if rimDiameter.Valid {
		v := int(rimDiameter.Int64)
		batch.RimDiameter = &v
	}
	if width.Valid {
		v := int(width.Int64)
		batch.Width = &v
	}
	if height.Valid {
		v := int(height.Int64)
		batch.Height = &v
	}
	if season.Valid {
		v := store.Season(season.String)
		batch.Season = &v
	}
	if pricePerSet.Valid {
		batch.PricePerSet = &pricePerSet.Float64
	}
	if pricePerTire.Valid {
		batch.PricePerTire = &pricePerTire.Float64
	}
	if productionYear.Valid {
		v := int(productionYear.Int64)
		batch.ProductionYear = &v
	}

	return &batch, nil
}
