package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Connect opens and pings a Postgres database.
func Connect(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// Migrations are applied in order and must stay idempotent.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS predictions (
		id BIGSERIAL PRIMARY KEY,
		kind VARCHAR(20) NOT NULL,
		fixture_id BIGINT,
		league_id INTEGER NOT NULL,
		season INTEGER NOT NULL,
		home_team_id INTEGER NOT NULL,
		home_team_name TEXT NOT NULL DEFAULT '',
		away_team_id INTEGER NOT NULL,
		away_team_name TEXT NOT NULL DEFAULT '',
		home_score DOUBLE PRECISION NOT NULL,
		away_score DOUBLE PRECISION NOT NULL,
		home_probability DOUBLE PRECISION NOT NULL,
		away_probability DOUBLE PRECISION NOT NULL,
		is_draw BOOLEAN NOT NULL,
		winner VARCHAR(10),
		home_features JSONB NOT NULL,
		away_features JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_fixture_id ON predictions(fixture_id)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_home_team_id ON predictions(home_team_id)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_away_team_id ON predictions(away_team_id)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at)`,
}

// Migrate creates the schema.
func Migrate(db *sql.DB) error {
	for _, migration := range Migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
