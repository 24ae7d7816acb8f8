package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type CoinGecko struct {
	Enabled              bool   `json:"enabled"`
	Endpoint             string `json:"endpoint"`
	Currency             string `json:"currency"`
	MaxDays              int    `json:"max_days"`
	MaxRequestsPerMinute int    `json:"max_requests_per_minute"`
	Burst                int    `json:"burst"`
}

type AlphaVantage struct {
	Enabled               bool   `json:"enabled"`
	APIKey                string `json:"api_key"`
	Endpoint              string `json:"endpoint"`
	MaxDays               int    `json:"max_days"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec"`
	Burst                 int    `json:"burst"`
}

type Yahoo struct {
	Endpoint  string            `json:"endpoint"`
	SymbolMap map[string]string `json:"symbol_map"`
}

type Benchmarks struct {
	AggregatorURL string `json:"aggregator_url"`
	DefaultMonths int    `json:"default_months"`
}

type Config struct {
	Server       Server       `json:"server"`
	CoinGecko    CoinGecko    `json:"coingecko"`
	AlphaVantage AlphaVantage `json:"alphavantage"`
	Yahoo        Yahoo        `json:"yahoo"`
	Benchmarks   Benchmarks   `json:"benchmarks"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		CoinGecko: CoinGecko{
			Enabled:              true,
			Endpoint:             "https://api.coingecko.com/api/v3",
			Currency:             "eur",
			MaxDays:              365,
			MaxRequestsPerMinute: 10,
			Burst:                5,
		},
		AlphaVantage: AlphaVantage{
			Enabled:  true,
			Endpoint: "https://www.alphavantage.co",
			MaxDays:  1825,
			// free tier allows 5 requests per minute
			MaxRequestsPerMinute: 5,
			Burst:                1,
		},
		Yahoo: Yahoo{
			Endpoint: "https://query1.finance.yahoo.com/v8/finance/chart",
			SymbolMap: map[string]string{
				"SPX500": "^GSPC",
				"SPX":    "^GSPC",
				"SP500":  "^GSPC",
			},
		},
		Benchmarks: Benchmarks{DefaultMonths: 12},
	}
}

// Load reads JSON config from path. If path is empty or file does not
// exist, it returns defaults. Environment variables override select
// fields for secrecy.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Server.RequestTimeoutSec = x
		}
	}

	if v := os.Getenv("COINGECKO_ENABLED"); v != "" {
		cfg.CoinGecko.Enabled = parseBool(v, cfg.CoinGecko.Enabled)
	}
	if v := os.Getenv("COINGECKO_ENDPOINT"); v != "" {
		cfg.CoinGecko.Endpoint = v
	}
	if v := os.Getenv("COINGECKO_CURRENCY"); v != "" {
		cfg.CoinGecko.Currency = v
	}
	if v := os.Getenv("COINGECKO_MAX_DAYS"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.CoinGecko.MaxDays = x
		}
	}
	if v := os.Getenv("COINGECKO_MAX_RPM"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.CoinGecko.MaxRequestsPerMinute = x
		}
	}
	if v := os.Getenv("COINGECKO_BURST"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.CoinGecko.Burst = x
		}
	}

	if v := os.Getenv("ALPHAVANTAGE_ENABLED"); v != "" {
		cfg.AlphaVantage.Enabled = parseBool(v, cfg.AlphaVantage.Enabled)
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_ENDPOINT"); v != "" {
		cfg.AlphaVantage.Endpoint = v
	}
	if v := os.Getenv("ALPHAVANTAGE_MAX_DAYS"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.AlphaVantage.MaxDays = x
		}
	}
	if v := os.Getenv("ALPHAVANTAGE_MAX_RPM"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.AlphaVantage.MaxRequestsPerMinute = x
		}
	}
	if v := os.Getenv("ALPHAVANTAGE_MIN_INTERVAL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.AlphaVantage.MinRequestIntervalSec = x
		}
	}
	if v := os.Getenv("ALPHAVANTAGE_BURST"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.AlphaVantage.Burst = x
		}
	}

	if v := os.Getenv("YAHOO_ENDPOINT"); v != "" {
		cfg.Yahoo.Endpoint = v
	}
	if v := os.Getenv("BENCHMARK_AGGREGATOR_URL"); v != "" {
		cfg.Benchmarks.AggregatorURL = v
	}
	if v := os.Getenv("BENCHMARK_DEFAULT_MONTHS"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Benchmarks.DefaultMonths = x
		}
	}
}

func parseBool(v string, def bool) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	}
	return def
}
