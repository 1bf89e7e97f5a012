package repository

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/skladhub/sklad-backend/internal/model"
)

type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(dsn string) (*PostgresRepo, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "ping postgres")
	}

	return &PostgresRepo{DB: db}, nil
}

// RunMigrations bootstraps the full schema. Every statement is idempotent so
// the server can run it on every start.
func (r *PostgresRepo) RunMigrations(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS admins (
			id SERIAL PRIMARY KEY,
			username VARCHAR(100) UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS part_categories (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS part_analog_groups (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255),
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS parts (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			sku VARCHAR(255) NOT NULL,
			qty INTEGER NOT NULL DEFAULT 0,
			min_qty INTEGER NOT NULL DEFAULT 0,
			price NUMERIC(10,2) NOT NULL DEFAULT 0,
			category_id INTEGER REFERENCES part_categories(id) ON DELETE SET NULL,
			analog_group_id INTEGER REFERENCES part_analog_groups(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now(),
			CONSTRAINT uq_parts_name_sku UNIQUE (name, sku)
		);`,
		`CREATE INDEX IF NOT EXISTS ix_parts_category_id ON parts(category_id);`,
		`CREATE TABLE IF NOT EXISTS equipment_categories (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS equipment (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			sku VARCHAR(255),
			category_id INTEGER NOT NULL REFERENCES equipment_categories(id) ON DELETE RESTRICT,
			parent_id INTEGER REFERENCES equipment(id) ON DELETE CASCADE,
			comment TEXT,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS equipment_parts (
			id SERIAL PRIMARY KEY,
			equipment_id INTEGER NOT NULL REFERENCES equipment(id) ON DELETE RESTRICT,
			part_id INTEGER NOT NULL REFERENCES parts(id) ON DELETE RESTRICT,
			installed_qty INTEGER NOT NULL DEFAULT 1,
			comment TEXT,
			last_replacement_override TEXT,
			requires_replacement BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now(),
			CONSTRAINT uq_equipment_parts_equipment_part UNIQUE (equipment_id, part_id)
		);`,
		`CREATE TABLE IF NOT EXISTS counterparties (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			address TEXT,
			contact_person VARCHAR(255),
			phone VARCHAR(100),
			email VARCHAR(255),
			note TEXT,
			driver_note TEXT,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS counterparty_addresses (
			id SERIAL PRIMARY KEY,
			counterparty_id INTEGER NOT NULL REFERENCES counterparties(id) ON DELETE CASCADE,
			address TEXT NOT NULL,
			is_default BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS orders (
			id SERIAL PRIMARY KEY,
			counterparty_id INTEGER NOT NULL REFERENCES counterparties(id) ON DELETE RESTRICT,
			invoice_no VARCHAR(255),
			invoice_date DATE NOT NULL,
			delivery_date DATE NOT NULL,
			delivery_address TEXT,
			status VARCHAR(50) NOT NULL DEFAULT 'created',
			driver_notified BOOLEAN NOT NULL DEFAULT false,
			comment TEXT,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id SERIAL PRIMARY KEY,
			order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			part_id INTEGER REFERENCES parts(id) ON DELETE SET NULL,
			name VARCHAR(255) NOT NULL,
			sku VARCHAR(255),
			qty INTEGER NOT NULL DEFAULT 1,
			price NUMERIC(10,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS replacements (
			id SERIAL PRIMARY KEY,
			date DATE NOT NULL,
			equipment_id INTEGER NOT NULL REFERENCES equipment(id) ON DELETE RESTRICT,
			part_id INTEGER NOT NULL REFERENCES parts(id) ON DELETE RESTRICT,
			qty INTEGER NOT NULL DEFAULT 1,
			reason TEXT,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS colleagues (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id SERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			priority VARCHAR(20) NOT NULL DEFAULT 'medium',
			due_date DATE,
			assignee_id INTEGER REFERENCES colleagues(id) ON DELETE SET NULL,
			equipment_id INTEGER REFERENCES equipment(id) ON DELETE SET NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'open',
			is_replacement BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS ix_tasks_status_priority_due_date ON tasks(status, priority, due_date);`,
		`CREATE TABLE IF NOT EXISTS task_parts (
			id SERIAL PRIMARY KEY,
			task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			equipment_part_id INTEGER NOT NULL REFERENCES equipment_parts(id) ON DELETE CASCADE,
			part_id INTEGER NOT NULL REFERENCES parts(id) ON DELETE RESTRICT,
			qty INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS knife_tracking (
			part_id INTEGER PRIMARY KEY REFERENCES parts(id) ON DELETE RESTRICT,
			status VARCHAR(20) NOT NULL DEFAULT 'sharpened',
			sharp_state VARCHAR(20) NOT NULL DEFAULT 'sharp',
			installation_state VARCHAR(20) NOT NULL DEFAULT 'removed',
			last_sharpen_date DATE,
			work_started_at TIMESTAMPTZ,
			last_interval_days INTEGER,
			total_sharpenings INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS knife_status_log (
			id SERIAL PRIMARY KEY,
			part_id INTEGER NOT NULL REFERENCES knife_tracking(part_id) ON DELETE CASCADE,
			changed_at TIMESTAMPTZ NOT NULL,
			from_status VARCHAR(20),
			to_status VARCHAR(20) NOT NULL,
			comment TEXT,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS knife_sharpen_log (
			id SERIAL PRIMARY KEY,
			part_id INTEGER NOT NULL REFERENCES knife_tracking(part_id) ON DELETE CASCADE,
			date DATE NOT NULL,
			comment TEXT,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS periodic_tasks (
			id SERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			equipment_id INTEGER REFERENCES equipment(id) ON DELETE SET NULL,
			equipment_part_id INTEGER REFERENCES equipment_parts(id) ON DELETE SET NULL,
			period_days INTEGER NOT NULL,
			last_completed_date DATE,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key VARCHAR(255) PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, q := range queries {
		if _, err := r.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepo) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at
		 FROM admins WHERE username = $1 LIMIT 1`, username)

	var a model.Admin
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresRepo) UpsertAdmin(ctx context.Context, username, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO admins (username, password_hash) VALUES ($1,$2)
		ON CONFLICT (username) DO UPDATE SET password_hash = $2
	`, username, passwordHash)
	return err
}
