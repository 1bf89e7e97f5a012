package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/skladhub/sklad-backend/internal/config"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed load config:", err)
	}

	// Connect database
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Fatal("Failed connect DB:", err)
	}
	defer db.Close()

	// Test DB connection
	if err := db.Ping(); err != nil {
		log.Fatal("DB unreachable:", err)
	}

	// Ensure table "admins" exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS admins (
			id SERIAL PRIMARY KEY,
			username VARCHAR(100) UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now()
		)
	`)
	if err != nil {
		log.Fatal("Failed ensure admins table:", err)
	}

	// Hash password
	hash, _ := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)

	// Upsert admin
	_, err = db.Exec(`
		INSERT INTO admins (username, password_hash) VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET password_hash = $2
	`, cfg.AdminUsername, string(hash))
	if err != nil {
		log.Fatal("Failed upsert admin:", err)
	}

	fmt.Println("Admin created successfully!")
	fmt.Println("Username:", cfg.AdminUsername)
}
