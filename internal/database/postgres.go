package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/keyworddriven/loginharness/internal/config"
	_ "github.com/lib/pq"
)

// Connect opens and verifies a connection to the run history database
func Connect(cfg *config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// History writes happen once per suite; keep the pool small
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
