package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	assetregistry "bazaar/contexts/custody/asset-registry"
	feepolicy "bazaar/contexts/trading/fee-policy"
	marketplaceledger "bazaar/contexts/trading/marketplace-ledger"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "bazaar/internal/platform/httpserver/docs"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	addr        string
	marketplace marketplaceledger.Module
	feePolicy   feepolicy.Module
	registry    assetregistry.Module
}

func New(
	marketplace marketplaceledger.Module,
	feePolicyModule feepolicy.Module,
	registryModule assetregistry.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		addr:        addr,
		marketplace: marketplace,
		feePolicy:   feePolicyModule,
		registry:    registryModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for in-process test servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /v1/listings", s.handleListListings)
	s.mux.HandleFunc("POST /v1/listings", s.handleCreateListing)
	s.mux.HandleFunc("GET /v1/listings/{listing_id}", s.handleGetListing)
	s.mux.HandleFunc("POST /v1/listings/{listing_id}/purchase", s.handlePurchaseListing)
	s.mux.HandleFunc("POST /v1/listings/{listing_id}/cancel", s.handleCancelListing)

	s.mux.HandleFunc("GET /v1/policy/listing-fee", s.handleGetListingFee)
	s.mux.HandleFunc("PUT /v1/policy/listing-fee", s.handleSetListingFee)

	s.mux.HandleFunc("POST /v1/registry/mint", s.handleRegistryMint)
	s.mux.HandleFunc("POST /v1/registry/approvals", s.handleRegistrySetApproval)
	s.mux.HandleFunc(
		"GET /v1/registry/contracts/{contract}/holders/{holder}/assets/{asset_id}/balance",
		s.handleRegistryBalance,
	)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
