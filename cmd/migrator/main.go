package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"tahuri-backend/database"
	"tahuri-backend/logger"
	"tahuri-backend/logger/sl"
)

func main() {
	_ = godotenv.Load()

	var dbURL, direction, table string
	flag.StringVar(&dbURL, "db", os.Getenv("DATABASE_URL"), "postgres connection url")
	flag.StringVar(&direction, "migration-type", database.MigrationUp, "migration type: up or down")
	flag.StringVar(&table, "migrations-table", "schema_migrations", "name of migrations table")
	flag.Parse()

	log := logger.New(os.Getenv("ENVIRONMENT"), os.Stderr)

	if dbURL == "" {
		log.Error("database url is required (-db or DATABASE_URL)")
		os.Exit(2)
	}

	changed, err := database.Migrate(dbURL, direction, table)
	if err != nil {
		log.Error("migration failed", slog.String("direction", direction), sl.Err(err))
		os.Exit(1)
	}
	if !changed {
		log.Info("no migrations to apply")
		return
	}
	log.Info("migrations applied", slog.String("direction", direction))
}
