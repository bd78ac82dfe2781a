package assetregistry

import (
	"context"
	"log/slog"

	httpadapter "bazaar/contexts/custody/asset-registry/adapters/http"
	"bazaar/contexts/custody/asset-registry/adapters/memory"
	"bazaar/contexts/custody/asset-registry/application"
	"bazaar/contexts/custody/asset-registry/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Store         ports.BalanceStore
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

func NewInMemoryModule(administrator string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Store:         store,
		Administrator: administrator,
		Logger:        logger,
	})
	module.Store = store
	return module
}

// OperatorClient fixes the operator identity on registry transfers so the
// marketplace ledger can consume this module through its custody port.
type OperatorClient struct {
	Service  application.Service
	Operator string
}

func (c OperatorClient) BalanceOf(
	ctx context.Context,
	assetContract string,
	holder string,
	assetID uint64,
) (uint64, error) {
	return c.Service.BalanceOf(ctx, assetContract, holder, assetID)
}

func (c OperatorClient) Transfer(
	ctx context.Context,
	assetContract string,
	from string,
	to string,
	assetID uint64,
	quantity uint64,
) error {
	// Escrow pulls run under the operator identity and require the seller's
	// prior approval; custody disbursements are owner moves (operator==from).
	return c.Service.Transfer(ctx, assetContract, c.Operator, from, to, assetID, quantity)
}
