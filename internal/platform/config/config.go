package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName   string
	HTTPPort      string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ChainRPCURL     string
	ChainOperatorPK string

	MarketAdmin       string
	RegistryAdmin     string
	CustodyAccount    string
	FeeCollector      string
	InitialListingFee uint64
	ForfeitOverpay    bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "bazaar"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	admin := os.Getenv("MARKET_ADMIN")
	if admin == "" {
		admin = "market-admin"
	}
	registryAdmin := os.Getenv("REGISTRY_ADMIN")
	if registryAdmin == "" {
		registryAdmin = admin
	}
	custody := os.Getenv("CUSTODY_ACCOUNT")
	if custody == "" {
		custody = "marketplace-escrow"
	}
	collector := os.Getenv("FEE_COLLECTOR")
	if collector == "" {
		collector = admin
	}

	return Config{
		ServiceName:   service,
		HTTPPort:      port,
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		ChainRPCURL:     os.Getenv("CHAIN_RPC_URL"),
		ChainOperatorPK: os.Getenv("CHAIN_OPERATOR_PK"),

		MarketAdmin:       admin,
		RegistryAdmin:     registryAdmin,
		CustodyAccount:    custody,
		FeeCollector:      collector,
		InitialListingFee: envUint("LISTING_FEE", 0),
		ForfeitOverpay:    envBool("FORFEIT_OVERPAYMENT", false),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envUint(name string, fallback uint64) uint64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}
