package repository

import (
	"context"
	"database/sql"

	"github.com/skladhub/sklad-backend/internal/model"
)

func (r *PostgresRepo) ListParts(ctx context.Context, page, pageSize int, search string) ([]model.Part, int, error) {
	var total int
	countQuery := `SELECT count(*) FROM parts`
	listQuery := `
		SELECT id, name, sku, qty, min_qty, price, category_id, analog_group_id, created_at, updated_at
		FROM parts
	`
	args := []interface{}{}
	if search != "" {
		countQuery += ` WHERE name ILIKE $1 OR sku ILIKE $1`
		listQuery += ` WHERE name ILIKE $1 OR sku ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery += ` ORDER BY id`
	if search != "" {
		listQuery += ` LIMIT $2 OFFSET $3`
	} else {
		listQuery += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.DB.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	parts := []model.Part{}
	for rows.Next() {
		var p model.Part
		var categoryID, analogGroupID sql.NullInt64
		if err := rows.Scan(
			&p.ID, &p.Name, &p.SKU, &p.Qty, &p.MinQty, &p.Price,
			&categoryID, &analogGroupID, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		if categoryID.Valid {
			p.CategoryID = &categoryID.Int64
		}
		if analogGroupID.Valid {
			p.AnalogGroupID = &analogGroupID.Int64
		}
		parts = append(parts, p)
	}
	return parts, total, rows.Err()
}

func (r *PostgresRepo) GetPart(ctx context.Context, id int64) (*model.Part, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name, sku, qty, min_qty, price, category_id, analog_group_id, created_at, updated_at
		FROM parts WHERE id = $1
	`, id)

	var p model.Part
	var categoryID, analogGroupID sql.NullInt64
	if err := row.Scan(
		&p.ID, &p.Name, &p.SKU, &p.Qty, &p.MinQty, &p.Price,
		&categoryID, &analogGroupID, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.Int64
	}
	if analogGroupID.Valid {
		p.AnalogGroupID = &analogGroupID.Int64
	}
	return &p, nil
}

func (r *PostgresRepo) CreatePart(ctx context.Context, p *model.Part) error {
	return r.DB.QueryRowContext(ctx, `
		INSERT INTO parts (name, sku, qty, min_qty, price, category_id, analog_group_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at
	`, p.Name, p.SKU, p.Qty, p.MinQty, p.Price, p.CategoryID, p.AnalogGroupID).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PostgresRepo) UpdatePart(ctx context.Context, p *model.Part) error {
	return r.DB.QueryRowContext(ctx, `
		UPDATE parts SET
			name = $2, sku = $3, qty = $4, min_qty = $5, price = $6,
			category_id = $7, analog_group_id = $8, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.SKU, p.Qty, p.MinQty, p.Price, p.CategoryID, p.AnalogGroupID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *PostgresRepo) DeletePart(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM parts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepo) ListReplacementsByPart(ctx context.Context, partID int64) ([]model.Replacement, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, date, equipment_id, part_id, qty, reason
		FROM replacements WHERE part_id = $1
		ORDER BY date DESC
	`, partID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Replacement{}
	for rows.Next() {
		var rep model.Replacement
		var reason sql.NullString
		if err := rows.Scan(&rep.ID, &rep.Date, &rep.EquipmentID, &rep.PartID, &rep.Qty, &reason); err != nil {
			return nil, err
		}
		if reason.Valid {
			rep.Reason = &reason.String
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}
