package config

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

func InitDB(databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		`CREATE TABLE IF NOT EXISTS items (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name VARCHAR(500) NOT NULL,
			upc VARCHAR(50),
			sku VARCHAR(100),
			category VARCHAR(100),
			image_url TEXT,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS price_history (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			item_id UUID NOT NULL REFERENCES items(id) ON DELETE CASCADE,
			marketplace VARCHAR(50) NOT NULL,
			price NUMERIC(10,2) NOT NULL,
			condition VARCHAR(50),
			sold_date TIMESTAMPTZ,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_items_name_lower ON items(LOWER(name))`,
		`CREATE INDEX IF NOT EXISTS idx_items_upc ON items(upc)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_item_id ON price_history(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_marketplace ON price_history(marketplace)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_recorded_at ON price_history(recorded_at)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
