package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/oponexis/tirebot/store"
)

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (d *DB) CreateTireBatch(ctx context.Context, create *store.TireBatch) (*store.TireBatch, error) {
	stmt := `
		INSERT INTO tire_batch (
			id, type, rim_diameter, width, height, season, brand, model,
			quantity_total, quantity_available, price_per_set, price_per_tire,
			production_year, location_code, notes, owner_name, owner_phone,
			photo_needs_update, created_ts, updated_ts
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
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
	where, args := []string{"TRUE"}, []any{}

	if find.ID != nil {
		args = append(args, *find.ID)
		where = append(where, "b.id = "+placeholder(len(args)))
	}
	if find.Type != nil {
		args = append(args, string(*find.Type))
		where = append(where, "b.type = "+placeholder(len(args)))
	}
	if find.RimDiameter != nil {
		args = append(args, *find.RimDiameter)
		where = append(where, "b.rim_diameter = "+placeholder(len(args)))
	}
	if find.Width != nil {
		args = append(args, *find.Width)
		where = append(where, "b.width = "+placeholder(len(args)))
	}
	if find.Height != nil {
		args = append(args, *find.Height)
		where = append(where, "b.height = "+placeholder(len(args)))
	}
	if find.Season != nil {
		args = append(args, string(*find.Season))
		where = append(where, "b.season = "+placeholder(len(args)))
	}
	if find.TextQuery != nil {
		or := make([]string, 0, 4)
		for _, col := range []string{"b.brand", "b.model", "b.notes", "b.location_code"} {
			args = append(args, *find.TextQuery)
			or = append(or, col+" ILIKE '%' || "+placeholder(len(args))+" || '%'")
		}
		where = append(where, "("+strings.Join(or, " OR ")+")")
	}
	if len(find.Tokens) > 0 {
		or := []string{}
		for _, token := range find.Tokens {
			if token.Number != nil {
				for _, col := range []string{"b.rim_diameter", "b.width", "b.height", "b.production_year"} {
					args = append(args, *token.Number)
					or = append(or, col+" = "+placeholder(len(args)))
				}
			} else if token.Text != "" {
				for _, col := range []string{"b.brand", "b.model", "b.notes", "b.location_code"} {
					args = append(args, token.Text)
					or = append(or, col+" ILIKE '%' || "+placeholder(len(args))+" || '%'")
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
		join = " LEFT JOIN tire_photo p ON p.batch_id = b.id AND p.is_main"
	}

	query := "SELECT" + fields + " FROM tire_batch b" + join +
		" WHERE " + strings.Join(where, " AND ") +
		" ORDER BY b.created_ts DESC"
	if find.Limit != nil {
		args = append(args, *find.Limit)
		query += " LIMIT " + placeholder(len(args))
		if find.Offset != nil {
			args = append(args, *find.Offset)
			query += " OFFSET " + placeholder(len(args))
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
		args = append(args, string(*update.Type))
		set = append(set, "type = "+placeholder(len(args)))
	}
	if update.RimDiameter != nil {
		args = append(args, *update.RimDiameter)
		set = append(set, "rim_diameter = "+placeholder(len(args)))
	}
	if update.Width != nil {
		args = append(args, *update.Width)
		set = append(set, "width = "+placeholder(len(args)))
	}
	if update.Height != nil {
		args = append(args, *update.Height)
		set = append(set, "height = "+placeholder(len(args)))
	}
	if update.Season != nil {
		args = append(args, string(*update.Season))
		set = append(set, "season = "+placeholder(len(args)))
	}
	if update.Brand != nil {
		args = append(args, *update.Brand)
		set = append(set, "brand = "+placeholder(len(args)))
	}
	if update.Model != nil {
		args = append(args, *update.Model)
		set = append(set, "model = "+placeholder(len(args)))
	}
	if update.QuantityTotal != nil {
		args = append(args, *update.QuantityTotal)
		set = append(set, "quantity_total = "+placeholder(len(args)))
	}
	if update.QuantityAvailable != nil {
		args = append(args, *update.QuantityAvailable)
		set = append(set, "quantity_available = "+placeholder(len(args)))
	}
	if update.PricePerSet != nil {
		args = append(args, *update.PricePerSet)
		set = append(set, "price_per_set = "+placeholder(len(args)))
	}
	if update.PricePerTire != nil {
		args = append(args, *update.PricePerTire)
		set = append(set, "price_per_tire = "+placeholder(len(args)))
	}
	if update.ProductionYear != nil {
		args = append(args, *update.ProductionYear)
		set = append(set, "production_year = "+placeholder(len(args)))
	}
	if update.LocationCode != nil {
		args = append(args, *update.LocationCode)
		set = append(set, "location_code = "+placeholder(len(args)))
	}
	if update.Notes != nil {
		args = append(args, *update.Notes)
		set = append(set, "notes = "+placeholder(len(args)))
	}
	if update.OwnerName != nil {
		args = append(args, *update.OwnerName)
		set = append(set, "owner_name = "+placeholder(len(args)))
	}
	if update.OwnerPhone != nil {
		args = append(args, *update.OwnerPhone)
		set = append(set, "owner_phone = "+placeholder(len(args)))
	}
	if update.PhotoNeedsUpdate != nil {
		args = append(args, *update.PhotoNeedsUpdate)
		set = append(set, "photo_needs_update = "+placeholder(len(args)))
	}

	args = append(args, time.Now().Unix())
	set = append(set, "updated_ts = "+placeholder(len(args)))
	args = append(args, update.ID)

	stmt := "UPDATE tire_batch SET " + strings.Join(set, ", ") + " WHERE id = " + placeholder(len(args))
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
	result, err := d.db.ExecContext(ctx, "DELETE FROM tire_batch WHERE id = $1", id)
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
