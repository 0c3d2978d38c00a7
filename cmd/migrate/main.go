package main

import (
	"database/sql"
	"flag"
	"fmt"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-events/internal/config"
	"ms-events/internal/database/migrations"
	"ms-events/internal/logger"
)

// Applies or rolls back the SQL migrations without starting the service.
func main() {
	down := flag.Bool("down", false, "roll back all migrations instead of applying them")
	flag.Parse()

	_ = godotenv.Load()

	log := logger.NewLogger()
	defer log.Close()

	cfg := config.Load()

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, cfg.App.MigrationsDir, log)
	if *down {
		if err := runner.Down(); err != nil {
			log.Fatal("MIGRATE", fmt.Sprintf("Rollback failed: %v", err))
		}
		log.Info("MIGRATE", "Rollback complete")
		return
	}

	if err := runner.Up(); err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("Migrations failed: %v", err))
	}
	log.Info("MIGRATE", "Migrations complete")
}
