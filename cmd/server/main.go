package main

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"historydata/internal/benchmark"
	"historydata/internal/cache"
	"historydata/internal/config"
	"historydata/internal/fetcher"
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

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	port := cfg.Server.Port

	if cfg.AlphaVantage.Enabled && cfg.AlphaVantage.APIKey == "" {
		log.Warn("alphavantage.enabled=true but ALPHAVANTAGE_API_KEY not set; equity history will use fallback data")
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	httpClient.UserAgent = "history-data/1.0"

	store := cache.New()
	f := fetcher.New(store, log, buildSources(cfg, httpClient, log)...)

	yahoo := yahoochart.New(yahoochart.Config{
		BaseURL:   cfg.Yahoo.Endpoint,
		SymbolMap: cfg.Yahoo.SymbolMap,
	}, httpClient)
	var agg benchmark.Aggregator
	if cfg.Benchmarks.AggregatorURL != "" {
		agg = benchmark.NewAggregatorClient(cfg.Benchmarks.AggregatorURL, httpClient)
	}
	benchmarks := benchmark.NewLoader(agg, yahoo, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleHistory(w, r, f)
	})
	mux.HandleFunc("/api/benchmarks", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleBenchmarks(w, r, benchmarks, cfg.Benchmarks.DefaultMonths)
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           withJSONHeaders(withGzip(recoverPanic(limitBody(mux)))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Infof("server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// buildSources wires one fetcher.Source per asset class from config.
// ETFs share the equity stack; only the requested class label differs.
func buildSources(cfg config.Config, httpClient *httpx.Client, log logrus.FieldLogger) []fetcher.Source {
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

	yahoo := yahoochart.New(yahoochart.Config{
		BaseURL:   cfg.Yahoo.Endpoint,
		SymbolMap: cfg.Yahoo.SymbolMap,
	}, httpClient)

	av, err := alphavantage.NewClient(
		cfg.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(cfg.AlphaVantage.Endpoint),
		alphavantage.WithHTTPClient(httpClient.HTTP),
		alphavantage.WithHeader(http.Header{
			"User-Agent": []string{"history-data/1.0"},
		}),
	)
	if err != nil {
		log.WithError(err).Warn("alphavantage client init failed; equity history disabled")
		return sources
	}
	var avHist provider.History = av
	if cfg.AlphaVantage.MaxRequestsPerMinute > 0 {
		rate := float64(cfg.AlphaVantage.MaxRequestsPerMinute) / 60.0
		burst := cfg.AlphaVantage.Burst
		if burst <= 0 {
			burst = 1
		}
		avHist = &ratelimit.TokenBucketProvider{P: avHist, TB: ratelimit.NewTokenBucket(rate, burst)}
	} else if cfg.AlphaVantage.MinRequestIntervalSec > 0 {
		interval := time.Duration(cfg.AlphaVantage.MinRequestIntervalSec) * time.Second
		avHist = &ratelimit.MinInterval{P: avHist, Interval: interval}
	}
	// Skip the keyed provider entirely when unconfigured or when the
	// requested range exceeds its practical limit.
	usable := func(days int) bool {
		return cfg.AlphaVantage.Enabled && av.Available() && days <= cfg.AlphaVantage.MaxDays
	}
	for _, class := range []symbols.AssetClass{symbols.Stock, symbols.ETF} {
		class := class
		sources = append(sources, fetcher.Source{
			Class:   class,
			Resolve: func(s string) string { return symbols.Resolve(class, s) },
			History: avHist,
			Prices:  yahoo,
			Band:    synthetic.Equity,
			Usable:  usable,
		})
	}
	return sources
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Basic CORS for browser usage; adjust as needed.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		// Prefer best speed to reduce CPU usage since payloads are JSON
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
		next.ServeHTTP(gw, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// limitBody caps request body size to avoid memory abuse.
func limitBody(next http.Handler) http.Handler {
	const maxBody = 1 << 20 // 1MB
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}
		next.ServeHTTP(w, r)
	})
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
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
