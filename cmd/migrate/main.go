package main

import (
	"errors"
	"flag"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/mitzori/order-tracking/internal/config"
	"github.com/mitzori/order-tracking/internal/logger"
)

func main() {
	log := logger.New()
	defer func() {
		_ = log.Sync()
	}()

	path := flag.String("path", "migrations", "path to the migrations directory")
	flag.Parse()

	direction := flag.Arg(0)
	if direction != "up" && direction != "down" {
		log.Fatal("usage: migrate [-path dir] up|down")
	}

	cfg := config.Load()

	m, err := migrate.New("file://"+*path, cfg.Database.URL())
	if err != nil {
		log.Fatal("failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("no migrations to apply")
		return
	}
	if err != nil {
		log.Fatal("migration failed", zap.String("direction", direction), zap.Error(err))
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Info("schema is empty")
		return
	}
	if err != nil {
		log.Fatal("failed to read migration version", zap.Error(err))
	}
	log.Info("migrations applied",
		zap.String("direction", direction),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
}
