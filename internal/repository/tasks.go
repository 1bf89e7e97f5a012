package repository

import (
	"context"
	"database/sql"

	"github.com/skladhub/sklad-backend/internal/model"
)

func (r *PostgresRepo) ListTasks(ctx context.Context, page, pageSize int, status string) ([]model.Task, int, error) {
	var total int
	countQuery := `SELECT count(*) FROM tasks`
	listQuery := `
		SELECT id, title, description, priority, due_date, assignee_id, equipment_id,
		       status, is_replacement, created_at, updated_at
		FROM tasks
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

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, total, rows.Err()
}

func (r *PostgresRepo) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, title, description, priority, due_date, assignee_id, equipment_id,
		       status, is_replacement, created_at, updated_at
		FROM tasks WHERE id = $1
	`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, err
	}

	parts, err := r.listTaskParts(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Parts = parts
	return t, nil
}

func (r *PostgresRepo) CreateTask(ctx context.Context, t *model.Task) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO tasks (title, description, priority, due_date, assignee_id,
		                   equipment_id, status, is_replacement)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, priority, status, created_at, updated_at
	`, t.Title, t.Description, defaultString(t.Priority, "medium"), t.DueDate,
		t.AssigneeID, t.EquipmentID, defaultString(t.Status, "open"), t.IsReplacement).
		Scan(&t.ID, &t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range t.Parts {
		tp := &t.Parts[i]
		tp.TaskID = t.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO task_parts (task_id, equipment_part_id, part_id, qty)
			VALUES ($1,$2,$3,$4)
			RETURNING id
		`, tp.TaskID, tp.EquipmentPartID, tp.PartID, tp.Qty).Scan(&tp.ID)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PostgresRepo) UpdateTask(ctx context.Context, t *model.Task) error {
	return r.DB.QueryRowContext(ctx, `
		UPDATE tasks SET
			title = $2, description = $3, priority = $4, due_date = $5,
			assignee_id = $6, equipment_id = $7, status = $8, is_replacement = $9,
			updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, t.ID, t.Title, t.Description, t.Priority, t.DueDate,
		t.AssigneeID, t.EquipmentID, t.Status, t.IsReplacement).
		Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *PostgresRepo) DeleteTask(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
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

func (r *PostgresRepo) listTaskParts(ctx context.Context, taskID int64) ([]model.TaskPart, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, task_id, equipment_part_id, part_id, qty
		FROM task_parts WHERE task_id = $1 ORDER BY id
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parts := []model.TaskPart{}
	for rows.Next() {
		var tp model.TaskPart
		if err := rows.Scan(&tp.ID, &tp.TaskID, &tp.EquipmentPartID, &tp.PartID, &tp.Qty); err != nil {
			return nil, err
		}
		parts = append(parts, tp)
	}
	return parts, rows.Err()
}

func scanTask(row rowScanner) (*model.Task, error) {
	var t model.Task
	var description sql.NullString
	var dueDate sql.NullTime
	var assigneeID, equipmentID sql.NullInt64
	if err := row.Scan(
		&t.ID, &t.Title, &description, &t.Priority, &dueDate, &assigneeID, &equipmentID,
		&t.Status, &t.IsReplacement, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if description.Valid {
		t.Description = &description.String
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	if assigneeID.Valid {
		t.AssigneeID = &assigneeID.Int64
	}
	if equipmentID.Valid {
		t.EquipmentID = &equipmentID.Int64
	}
	return &t, nil
}
