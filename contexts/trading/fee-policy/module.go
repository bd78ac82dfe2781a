package feepolicy

import (
	"log/slog"

	httpadapter "bazaar/contexts/trading/fee-policy/adapters/http"
	"bazaar/contexts/trading/fee-policy/adapters/memory"
	"bazaar/contexts/trading/fee-policy/application"
	"bazaar/contexts/trading/fee-policy/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Store         ports.PolicyStore
	Administrator string
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Store:         deps.Store,
		Administrator: deps.Administrator,
		Logger:        deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(administrator string, initialFee uint64, logger *slog.Logger) Module {
	store := memory.NewStore(initialFee)
	module := NewModule(Dependencies{
		Store:         store,
		Administrator: administrator,
		Logger:        logger,
	})
	module.Store = store
	return module
}
