package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/skladhub/sklad-backend/internal/model"
)

func (r *PostgresRepo) ListKnives(ctx context.Context) ([]model.KnifeTracking, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT part_id, status, sharp_state, installation_state,
		       last_sharpen_date, work_started_at, last_interval_days, total_sharpenings
		FROM knife_tracking ORDER BY part_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	knives := []model.KnifeTracking{}
	for rows.Next() {
		var k model.KnifeTracking
		var lastSharpen, workStarted sql.NullTime
		var interval sql.NullInt64
		if err := rows.Scan(
			&k.PartID, &k.Status, &k.SharpState, &k.InstallationState,
			&lastSharpen, &workStarted, &interval, &k.TotalSharpenings,
		); err != nil {
			return nil, err
		}
		if lastSharpen.Valid {
			k.LastSharpenDate = &lastSharpen.Time
		}
		if workStarted.Valid {
			k.WorkStartedAt = &workStarted.Time
		}
		if interval.Valid {
			days := int(interval.Int64)
			k.LastIntervalDays = &days
		}
		knives = append(knives, k)
	}
	return knives, rows.Err()
}

// SharpenKnife appends a sharpening log entry and bumps the tracking counters
// in one transaction.
func (r *PostgresRepo) SharpenKnife(ctx context.Context, partID int64, date time.Time, comment *string) (*model.KnifeSharpenLog, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE knife_tracking SET
			status = 'sharpened',
			sharp_state = 'sharp',
			last_interval_days = CASE WHEN last_sharpen_date IS NOT NULL
				THEN ($2::date - last_sharpen_date) ELSE last_interval_days END,
			last_sharpen_date = $2,
			total_sharpenings = total_sharpenings + 1,
			updated_at = now()
		WHERE part_id = $1
	`, partID, date)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, sql.ErrNoRows
	}

	entry := &model.KnifeSharpenLog{PartID: partID, Date: date, Comment: comment}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO knife_sharpen_log (part_id, date, comment)
		VALUES ($1,$2,$3)
		RETURNING id
	`, partID, date, comment).Scan(&entry.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *PostgresRepo) ListSharpenLog(ctx context.Context, partID int64) ([]model.KnifeSharpenLog, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, part_id, date, comment
		FROM knife_sharpen_log WHERE part_id = $1 ORDER BY date DESC, id DESC
	`, partID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.KnifeSharpenLog{}
	for rows.Next() {
		var e model.KnifeSharpenLog
		var comment sql.NullString
		if err := rows.Scan(&e.ID, &e.PartID, &e.Date, &comment); err != nil {
			return nil, err
		}
		if comment.Valid {
			e.Comment = &comment.String
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
