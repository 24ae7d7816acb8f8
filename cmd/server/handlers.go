package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"historydata/internal/benchmark"
	"historydata/internal/fetcher"
	"historydata/internal/history"
	"historydata/internal/symbols"
)

type historyResponse struct {
	Symbol    string            `json:"symbol"`
	Timeframe history.Timeframe `json:"timeframe"`
	Source    string            `json:"source"`
	Points    []history.Point   `json:"points"`
}

func handleHistory(w http.ResponseWriter, r *http.Request, f *fetcher.Fetcher) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "missing symbol query param", http.StatusBadRequest)
		return
	}
	class := symbols.AssetClass(r.URL.Query().Get("class"))
	if class == "" {
		class = symbols.Stock
	}
	tf := history.Timeframe(r.URL.Query().Get("timeframe"))

	writeHistory(w, r.Context(), f, class, symbol, tf)
}

func writeHistory(w http.ResponseWriter, rctx context.Context, f *fetcher.Fetcher, class symbols.AssetClass, symbol string, tf history.Timeframe) {
	ctx, cancel := context.WithTimeout(rctx, 15*time.Second)
	defer cancel()

	series := f.Fetch(ctx, class, symbol, tf)
	resp := historyResponse{
		Symbol:    symbol,
		Timeframe: tf,
		Source:    series.Source,
		Points:    series.Points,
	}
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func handleBenchmarks(w http.ResponseWriter, r *http.Request, l *benchmark.Loader, defaultMonths int) {
	ids := splitCSV(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		http.Error(w, "missing ids query param", http.StatusBadRequest)
		return
	}
	months := defaultMonths
	if v := r.URL.Query().Get("months"); v != "" {
		x, err := strconv.Atoi(v)
		if err != nil || x <= 0 {
			http.Error(w, "invalid months query param", http.StatusBadRequest)
			return
		}
		months = x
	}
	custom := splitCSV(r.URL.Query().Get("custom"))

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	res := l.Load(ctx, ids, months, custom)
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(res)
}
