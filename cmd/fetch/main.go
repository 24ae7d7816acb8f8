package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"historydata/internal/cache"
	"historydata/internal/config"
	"historydata/internal/fetcher"
	"historydata/internal/history"
	"historydata/internal/httpx"
	"historydata/internal/provider"
	"historydata/internal/provider/alphavantage"
	"historydata/internal/provider/coingecko"
	"historydata/internal/provider/ratelimit"
	"historydata/internal/provider/yahoochart"
	"historydata/internal/symbols"
	"historydata/internal/synthetic"
)

func main() {
	_ = godotenv.Load()

	var symbolsCSV string
	var class string
	var timeframe string
	var timeout int
	var configPath string

	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "BTC"), "comma-separated symbols")
	flag.StringVar(&class, "class", getenv("ASSET_CLASS", "crypto"), "asset class: crypto, stock or etf")
	flag.StringVar(&timeframe, "timeframe", getenv("TIMEFRAME", "1M"), "timeframe: 1D,1W,1M,3M,6M,1Y,ALL")
	flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "request timeout seconds")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.Parse()

	log := logrus.New()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if timeout != 0 {
		cfg.Server.RequestTimeoutSec = timeout
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	yahoo := yahoochart.New(yahoochart.Config{
		BaseURL:   cfg.Yahoo.Endpoint,
		SymbolMap: cfg.Yahoo.SymbolMap,
	}, httpClient)

	var sources []fetcher.Source
	if cfg.CoinGecko.Enabled {
		gecko := coingecko.New(coingecko.Config{
			BaseURL:  cfg.CoinGecko.Endpoint,
			Currency: cfg.CoinGecko.Currency,
			MaxDays:  cfg.CoinGecko.MaxDays,
		}, httpClient)
		var hist provider.History = gecko
		if cfg.CoinGecko.MaxRequestsPerMinute > 0 {
			rate := float64(cfg.CoinGecko.MaxRequestsPerMinute) / 60.0
			burst := cfg.CoinGecko.Burst
			if burst <= 0 {
				burst = 1
			}
			hist = &ratelimit.TokenBucketProvider{P: hist, TB: ratelimit.NewTokenBucket(rate, burst)}
		}
		sources = append(sources, fetcher.Source{
			Class:   symbols.Crypto,
			Resolve: func(s string) string { return symbols.Resolve(symbols.Crypto, s) },
			History: hist,
			Prices:  gecko,
			Band:    synthetic.Crypto,
		})
	}
	av, err := alphavantage.NewClient(
		cfg.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(cfg.AlphaVantage.Endpoint),
		alphavantage.WithHTTPClient(httpClient.HTTP),
		alphavantage.WithHeader(http.Header{
			"User-Agent": []string{"history-data/1.0"},
		}),
	)
	if err != nil {
		log.Fatalf("alphavantage client: %v", err)
	}
	var avHist provider.History = av
	if cfg.AlphaVantage.MinRequestIntervalSec > 0 {
		interval := time.Duration(cfg.AlphaVantage.MinRequestIntervalSec) * time.Second
		avHist = &ratelimit.MinInterval{P: avHist, Interval: interval}
	}
	usable := func(days int) bool {
		return cfg.AlphaVantage.Enabled && av.Available() && days <= cfg.AlphaVantage.MaxDays
	}
	for _, c := range []symbols.AssetClass{symbols.Stock, symbols.ETF} {
		c := c
		sources = append(sources, fetcher.Source{
			Class:   c,
			Resolve: func(s string) string { return symbols.Resolve(c, s) },
			History: avHist,
			Prices:  yahoo,
			Band:    synthetic.Equity,
			Usable:  usable,
		})
	}

	f := fetcher.New(cache.New(), log, sources...)

	syms := splitCSV(symbolsCSV)
	if len(syms) == 0 {
		log.Fatal("no symbols provided")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	out := make(map[string]history.Series, len(syms))
	for _, sym := range syms {
		series := f.Fetch(ctx, symbols.AssetClass(class), sym, history.Timeframe(timeframe))
		log.Infof("%s: %d points (%s)", sym, len(series.Points), series.Source)
		out[sym] = series
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var x int
		_, _ = fmt.Sscanf(v, "%d", &x)
		if x != 0 {
			return x
		}
	}
	return def
}
