package main

import (
	"flag"

	"household/internal/config"
	"household/internal/db"
	"household/internal/logger"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding the migration files")
	down := flag.Bool("down", false, "roll migrations back instead of applying them")
	steps := flag.Int("steps", 0, "number of migrations to apply or roll back, 0 for all")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	defer database.Close()

	if err := db.Migrate(database, *dir, *down, *steps, log); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
}
