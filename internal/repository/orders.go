package repository

import (
	"context"
	"database/sql"

	"github.com/skladhub/sklad-backend/internal/model"
)

func (r *PostgresRepo) ListOrders(ctx context.Context, page, pageSize int, status string) ([]model.Order, int, error) {
	var total int
	countQuery := `SELECT count(*) FROM orders`
	listQuery := `
		SELECT id, counterparty_id, invoice_no, invoice_date, delivery_date,
		       delivery_address, status, driver_notified, comment, created_at, updated_at
		FROM orders
	`
	args := []interface{}{}
	if status != "" {
		countQuery += ` WHERE status = $1`
		listQuery += ` WHERE status = $1`
		args = append(args, status)
	}
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery += ` ORDER BY id DESC`
	if status != "" {
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

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	return orders, total, rows.Err()
}

func (r *PostgresRepo) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, counterparty_id, invoice_no, invoice_date, delivery_date,
		       delivery_address, status, driver_notified, comment, created_at, updated_at
		FROM orders WHERE id = $1
	`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	items, err := r.listOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *PostgresRepo) CreateOrder(ctx context.Context, o *model.Order) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (counterparty_id, invoice_no, invoice_date, delivery_date,
		                    delivery_address, status, driver_notified, comment)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, status, created_at, updated_at
	`, o.CounterpartyID, o.InvoiceNo, o.InvoiceDate, o.DeliveryDate,
		o.DeliveryAddress, defaultString(o.Status, "created"), o.DriverNotified, o.Comment).
		Scan(&o.ID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, part_id, name, sku, qty, price)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id
		`, item.OrderID, item.PartID, item.Name, item.SKU, item.Qty, item.Price).
			Scan(&item.ID)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PostgresRepo) UpdateOrder(ctx context.Context, o *model.Order) error {
	return r.DB.QueryRowContext(ctx, `
		UPDATE orders SET
			counterparty_id = $2, invoice_no = $3, invoice_date = $4, delivery_date = $5,
			delivery_address = $6, status = $7, driver_notified = $8, comment = $9,
			updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, o.ID, o.CounterpartyID, o.InvoiceNo, o.InvoiceDate, o.DeliveryDate,
		o.DeliveryAddress, o.Status, o.DriverNotified, o.Comment).
		Scan(&o.CreatedAt, &o.UpdatedAt)
}

func (r *PostgresRepo) DeleteOrder(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
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

func (r *PostgresRepo) listOrderItems(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, order_id, part_id, name, sku, qty, price
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		var it model.OrderItem
		var partID sql.NullInt64
		var sku sql.NullString
		if err := rows.Scan(&it.ID, &it.OrderID, &partID, &it.Name, &sku, &it.Qty, &it.Price); err != nil {
			return nil, err
		}
		if partID.Valid {
			it.PartID = &partID.Int64
		}
		if sku.Valid {
			it.SKU = &sku.String
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	var invoiceNo, deliveryAddress, comment sql.NullString
	if err := row.Scan(
		&o.ID, &o.CounterpartyID, &invoiceNo, &o.InvoiceDate, &o.DeliveryDate,
		&deliveryAddress, &o.Status, &o.DriverNotified, &comment, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if invoiceNo.Valid {
		o.InvoiceNo = &invoiceNo.String
	}
	if deliveryAddress.Valid {
		o.DeliveryAddress = &deliveryAddress.String
	}
	if comment.Valid {
		o.Comment = &comment.String
	}
	return &o, nil
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
