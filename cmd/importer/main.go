package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/mitzori/order-tracking/internal/config"
	"github.com/mitzori/order-tracking/internal/db"
	"github.com/mitzori/order-tracking/internal/importer"
	"github.com/mitzori/order-tracking/internal/logger"
	"github.com/mitzori/order-tracking/internal/repository/postgresql"
	"github.com/mitzori/order-tracking/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.New()
	defer func() {
		_ = log.Sync()
	}()

	flag.Parse()
	path := flag.Arg(0)
	if path == "" {
		log.Fatal("usage: importer <export.csv>")
	}

	cfg := config.Load()

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}
	defer database.GetPool().Close()

	orderRepo := postgresql.NewOrderRepo(database)
	historyRepo := postgresql.NewHistoryRepo(database)
	stg := storage.NewTrackingStorage(database, orderRepo, historyRepo, nil)

	imp := importer.New(stg, log)

	summary, err := imp.ImportFile(ctx, path)
	if err != nil {
		log.Fatal("import failed", zap.Error(err))
	}

	table := tablewriter.NewTable(os.Stdout)
	table.Header("Created", "Skipped", "Total")
	_ = table.Append([]string{
		strconv.Itoa(summary.Created),
		strconv.Itoa(summary.Skipped),
		strconv.Itoa(summary.Total),
	})
	_ = table.Render()
}
