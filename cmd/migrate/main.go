package main

import (
	"os"

	"football-trends/database"
	"football-trends/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatalf("DATABASE_URL environment variable is not set")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	logger.Println("Connected to database successfully")

	for i, migration := range database.Migrations {
		logger.Printf("Running migration %d/%d", i+1, len(database.Migrations))
		if _, err := db.Exec(migration); err != nil {
			logger.Fatalf("Migration %d failed: %v", i+1, err)
		}
	}

	logger.Println("All migrations completed successfully!")
}
