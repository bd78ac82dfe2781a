package marketplaceledger

import (
	"log/slog"
	"time"

	httpadapter "bazaar/contexts/trading/marketplace-ledger/adapters/http"
	"bazaar/contexts/trading/marketplace-ledger/adapters/memory"
	"bazaar/contexts/trading/marketplace-ledger/application"
	"bazaar/contexts/trading/marketplace-ledger/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Service  *application.Service
	Store    *memory.Store
	Payments *memory.PaymentLedger
}

type Dependencies struct {
	Repository     ports.Repository
	Registry       ports.AssetRegistry
	Payments       ports.PaymentLedger
	Fees           ports.FeePolicy
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	CustodyAccount string
	FeeCollector   string
	Overpayment    application.OverpaymentPolicy
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := &application.Service{
		Repo:           deps.Repository,
		Registry:       deps.Registry,
		Payments:       deps.Payments,
		Fees:           deps.Fees,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGen:          deps.IDGenerator,
		CustodyAccount: deps.CustodyAccount,
		FeeCollector:   deps.FeeCollector,
		Overpayment:    deps.Overpayment,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule wires the ledger against in-memory stores and an
// in-memory payment ledger. Custody and fee collaborators still come from
// their own contexts.
func NewInMemoryModule(
	registry ports.AssetRegistry,
	fees ports.FeePolicy,
	custodyAccount string,
	feeCollector string,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	payments := memory.NewPaymentLedger()
	module := NewModule(Dependencies{
		Repository:     store,
		Registry:       registry,
		Payments:       payments,
		Fees:           fees,
		Idempotency:    store,
		Clock:          store,
		IDGenerator:    store,
		CustodyAccount: custodyAccount,
		FeeCollector:   feeCollector,
		Overpayment:    application.OverpaymentRefund,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	module.Payments = payments
	return module
}
