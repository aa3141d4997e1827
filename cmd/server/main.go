package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/peerpay/peerpay-backend/internal/adapter/auth"
	"github.com/peerpay/peerpay-backend/internal/adapter/httpapi"
	"github.com/peerpay/peerpay-backend/internal/adapter/repository/memory"
	"github.com/peerpay/peerpay-backend/internal/adapter/repository/postgres"
	"github.com/peerpay/peerpay-backend/internal/config"
	"github.com/peerpay/peerpay-backend/internal/domain"
	"github.com/peerpay/peerpay-backend/internal/usecase/account"
	"github.com/peerpay/peerpay-backend/internal/usecase/seeder"
	"github.com/peerpay/peerpay-backend/internal/usecase/transfer"
)

func main() {
	// 1. Load configuration from the environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Server.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// 2. Initialize the ledger store
	stores, cleanup, err := buildStores(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}
	defer cleanup()

	// 3. Initialize services (use cases)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	passwords := auth.NewPasswordHasher()

	accountService := account.NewService(stores.accounts, tokens, passwords, cfg.Transfer.StartingBalance)
	transferService := transfer.NewService(stores.accounts, stores.transactions, stores.ledger, transfer.Limits{
		MinAmount: cfg.Transfer.MinAmount,
		MaxAmount: cfg.Transfer.MaxAmount,
	}, cfg.Transfer.ExecTimeout)

	// The in-memory store starts empty on every boot, so seed it here.
	// Postgres environments seed explicitly via cmd/seed.
	if cfg.Database.Driver == "memory" {
		demoSeeder := seeder.NewSeeder(stores.accounts, transferService, passwords, cfg.Transfer.StartingBalance, logger)
		if err := demoSeeder.Seed(context.Background()); err != nil {
			logger.Fatal("failed to seed demo data", zap.Error(err))
		}
	}

	// 4. Start the HTTP server
	handler := httpapi.NewHandler(accountService, transferService, stores.accounts, logger)
	router := httpapi.NewRouter(handler, tokens, logger, cfg.Server)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port), zap.String("driver", cfg.Database.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// storeSet groups the three store-facing dependencies of the services.
type storeSet struct {
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	ledger       domain.LedgerStore
}

func buildStores(cfg *config.Config, logger *zap.Logger) (*storeSet, func(), error) {
	switch cfg.Database.Driver {
	case "memory":
		store := memory.NewStore()
		return &storeSet{
			accounts:     store,
			transactions: store.Transactions(),
			ledger:       store,
		}, func() {}, nil

	case "postgres":
		db, err := postgres.NewDB(cfg.Database.ConnString(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureSchema(context.Background()); err != nil {
			db.Close()
			return nil, nil, err
		}
		cleanup := func() {
			if err := db.Close(); err != nil {
				logger.Warn("failed to close database", zap.Error(err))
			}
		}
		return &storeSet{
			accounts:     postgres.NewAccountRepository(db),
			transactions: postgres.NewTransactionRepository(db),
			ledger:       postgres.NewLedgerStore(db),
		}, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(server *http.Server, logger *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}
