package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/nabilmamin/mern-auth-portal/config"
	"github.com/nabilmamin/mern-auth-portal/pkg/helpers"
)

// Seeds a pre-verified demo account for local development so the login flow
// can be exercised without going through email verification.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@example.com"
	password := "password123"
	name := "Demo User"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (name, email, password_hash, is_verified)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (lower(email)) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name, email, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", id, email, password)
}
