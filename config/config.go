// Package config loads runtime configuration from environment variables.
package config

import (
	"os"
	"strconv"
)

// Config carries everything the daemon needs to wire itself up.
type Config struct {
	OwnerAddress     string
	SaleControllerID string
	SaleRate         int64

	DatabasePath     string
	ListenAddr       string
	LogLevel         string
	ColoredLogs      bool
	EnforceWhitelist bool

	EthereumRPC    string
	DepositAddress string
	PollIntervalMs int
}

// Load reads the environment, falling back to development defaults.
func Load() *Config {
	return &Config{
		OwnerAddress:     getEnv("OWNER_ADDRESS", "0x0000000000000000000000000000000000000001"),
		SaleControllerID: getEnv("SALE_CONTROLLER_ID", "mainsale-controller"),
		SaleRate:         int64(getEnvInt("SALE_RATE", 40000)),
		DatabasePath:     getEnv("DATABASE_PATH", "./data/tokensale.db"),
		ListenAddr:       getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ColoredLogs:      getEnvBool("ENABLE_COLORED_LOGS", true),
		EnforceWhitelist: getEnvBool("ENFORCE_WHITELIST", false),
		EthereumRPC:      getEnv("ETHEREUM_RPC", ""),
		DepositAddress:   getEnv("DEPOSIT_ADDRESS", ""),
		PollIntervalMs:   getEnvInt("POLL_INTERVAL_MS", 15000),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
