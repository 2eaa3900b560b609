package main

import (
	"context"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gprspc/adapters/postgres"
	"gprspc/domain/core"
	"gprspc/internal/migration"
)

// Applies the schema, or with "purge <session-id>" deletes a session's stored log.
func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "purge" {
		databaseURL = args[0]
		args = args[1:]
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate [database_url] [purge <session-id>]")
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema at version %s", runner.Version())

	if len(args) == 2 && args[0] == "purge" {
		id, err := core.ParseID(args[1])
		if err != nil {
			log.Fatalf("Invalid session id %q: %v", args[1], err)
		}
		repo := postgres.NewEliminationLogRepository(db)
		if err := repo.DeleteLog(ctx, id); err != nil {
			log.Fatalf("Failed to purge log of session %s: %v", args[1], err)
		}
		log.Printf("Purged stored elimination log of session %s", args[1])
	}
}
