// Command seed populates a postgres environment with demo accounts and a
// small ledger history. It is idempotent and safe to run more than once.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/peerpay/peerpay-backend/internal/adapter/auth"
	"github.com/peerpay/peerpay-backend/internal/adapter/repository/postgres"
	"github.com/peerpay/peerpay-backend/internal/config"
	"github.com/peerpay/peerpay-backend/internal/usecase/seeder"
	"github.com/peerpay/peerpay-backend/internal/usecase/transfer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := postgres.NewDB(cfg.Database.ConnString(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure schema", zap.Error(err))
	}

	accounts := postgres.NewAccountRepository(db)
	transactions := postgres.NewTransactionRepository(db)
	ledger := postgres.NewLedgerStore(db)

	engine := transfer.NewService(accounts, transactions, ledger, transfer.Limits{
		MinAmount: cfg.Transfer.MinAmount,
		MaxAmount: cfg.Transfer.MaxAmount,
	}, cfg.Transfer.ExecTimeout)

	demoSeeder := seeder.NewSeeder(accounts, engine, auth.NewPasswordHasher(), cfg.Transfer.StartingBalance, logger)
	if err := demoSeeder.Seed(ctx); err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}

	logger.Info("seeding complete")
}
