package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	assetregistry "bazaar/contexts/custody/asset-registry"
	ethereumadapter "bazaar/contexts/custody/asset-registry/adapters/ethereum"
	feepolicy "bazaar/contexts/trading/fee-policy"
	feepostgres "bazaar/contexts/trading/fee-policy/adapters/postgres"
	marketplaceledger "bazaar/contexts/trading/marketplace-ledger"
	ledgermemory "bazaar/contexts/trading/marketplace-ledger/adapters/memory"
	ledgerpostgres "bazaar/contexts/trading/marketplace-ledger/adapters/postgres"
	redisadapter "bazaar/contexts/trading/marketplace-ledger/adapters/redis"
	"bazaar/contexts/trading/marketplace-ledger/application"
	workerapp "bazaar/contexts/trading/marketplace-ledger/application/workers"
	"bazaar/contexts/trading/marketplace-ledger/ports"
	"bazaar/internal/platform/config"
	"bazaar/internal/platform/db"
	"bazaar/internal/platform/httpserver"
	"bazaar/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	var pg *db.Postgres
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		models := append(ledgerpostgres.Models(), feepostgres.Models()...)
		if err := pg.Migrate(models...); err != nil {
			_ = pg.Close()
			return nil, err
		}
	}

	registryModule := assetregistry.NewInMemoryModule(cfg.RegistryAdmin, logger)

	// Custody port: on-chain ERC1155 when an RPC endpoint is configured,
	// otherwise the in-process registry acting under the escrow identity.
	var custody ports.AssetRegistry
	if strings.TrimSpace(cfg.ChainRPCURL) != "" {
		chain, err := ethereumadapter.New(ctx, cfg.ChainRPCURL, cfg.ChainOperatorPK, logger)
		if err != nil {
			return nil, err
		}
		custody = chain
	} else {
		custody = assetregistry.OperatorClient{
			Service:  registryModule.Service,
			Operator: cfg.CustodyAccount,
		}
	}

	var feeModule feepolicy.Module
	if pg != nil {
		feeModule = feepolicy.NewModule(feepolicy.Dependencies{
			Store:         feepostgres.NewRepository(pg.DB, cfg.InitialListingFee, logger),
			Administrator: cfg.MarketAdmin,
			Logger:        logger,
		})
	} else {
		feeModule = feepolicy.NewInMemoryModule(cfg.MarketAdmin, cfg.InitialListingFee, logger)
	}

	overpayment := application.OverpaymentRefund
	if cfg.ForfeitOverpay {
		overpayment = application.OverpaymentForfeit
	}

	var marketModule marketplaceledger.Module
	if pg != nil {
		repo := ledgerpostgres.NewRepository(pg.DB, logger)

		// The payment ledger is an in-process account book with no durable
		// backend yet; balances do not survive a restart.
		logger.Warn("payment ledger is in-process and volatile",
			"event", "bootstrap_volatile_payment_ledger",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)

		var idempotency ports.IdempotencyStore = repo
		if strings.TrimSpace(cfg.RedisAddr) != "" {
			store, err := redisadapter.NewIdempotencyStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				_ = pg.Close()
				return nil, err
			}
			idempotency = store
		}

		marketModule = marketplaceledger.NewModule(marketplaceledger.Dependencies{
			Repository:     repo,
			Registry:       custody,
			Payments:       ledgermemory.NewPaymentLedger(),
			Fees:           feeModule.Service,
			Idempotency:    idempotency,
			Clock:          ledgerpostgres.SystemClock{},
			IDGenerator:    ledgerpostgres.UUIDGenerator{},
			CustodyAccount: cfg.CustodyAccount,
			FeeCollector:   cfg.FeeCollector,
			Overpayment:    overpayment,
			IdempotencyTTL: 7 * 24 * time.Hour,
			Logger:         logger,
		})
	} else {
		marketModule = marketplaceledger.NewInMemoryModule(
			custody,
			feeModule.Service,
			cfg.CustodyAccount,
			cfg.FeeCollector,
			logger,
		)
		marketModule.Service.Overpayment = overpayment
	}

	server := httpserver.New(marketModule, feeModule, registryModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := ledgerpostgres.NewRepository(pg.DB, logger)
	bus := messaging.NewBus(logger)

	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: bus,
			Clock:     ledgerpostgres.SystemClock{},
			Topic:     "marketplace.listings",
			BatchSize: 100,
			Logger:    logger,
		},
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
