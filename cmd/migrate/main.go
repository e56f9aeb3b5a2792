package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/creditledger/backend/internal/infrastructure/config"
	"github.com/creditledger/backend/internal/infrastructure/logger"
	"github.com/creditledger/backend/internal/infrastructure/persistence"
	"github.com/creditledger/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	switch command {
	case "up":
		log.Info("Running schema migration")
		if err := db.DB.AutoMigrate(
			&models.CustomerModel{},
			&models.CreditGrantModel{},
			&models.InvoiceModel{},
			&models.CreditMemoModel{},
			&models.DamageReportModel{},
		); err != nil {
			log.Fatal("Schema migration failed", zap.Error(err))
		}
		log.Info("Schema migration completed")

	case "status":
		migrator := db.DB.Migrator()
		tables := map[string]interface{}{
			"customers":      &models.CustomerModel{},
			"credit_grants":  &models.CreditGrantModel{},
			"invoices":       &models.InvoiceModel{},
			"credit_memos":   &models.CreditMemoModel{},
			"damage_reports": &models.DamageReportModel{},
		}
		for name, model := range tables {
			if migrator.HasTable(model) {
				log.Info("Table exists", zap.String("table", name))
			} else {
				log.Warn("Table missing", zap.String("table", name))
			}
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: migrate [flags] <command>

Commands:
  up       Create or update the database schema
  status   Report which tables exist

Flags:
  -log-level string   Log level (debug, info, warn, error) (default "info")`)
}
