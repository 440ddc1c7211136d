package params

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Engine struct {
	// DefaultOrderExpiry is how long an order may rest before the expiry
	// sweeper cancels it.
	DefaultOrderExpiry time.Duration
	// ExpirySweepInterval is how often the sweeper scans for expired orders.
	ExpirySweepInterval time.Duration
	// PriceCheckInterval paces the periodic conditional-order re-check
	// against the last known prices.
	PriceCheckInterval time.Duration
}

type Storage struct {
	// Path selects the pebble-backed stores; empty means in-memory only.
	Path string
}

type Config struct {
	Engine  Engine
	Storage Storage
	LogFile string
}

func Default() Config {
	return Config{
		Engine: Engine{
			DefaultOrderExpiry:  5 * time.Minute,
			ExpirySweepInterval: 1 * time.Second,
			PriceCheckInterval:  10 * time.Second,
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment
// variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("ORDER_EXPIRY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Engine.DefaultOrderExpiry = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("EXPIRY_SWEEP_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Engine.ExpirySweepInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("PRICE_CHECK_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Engine.PriceCheckInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	return cfg
}
