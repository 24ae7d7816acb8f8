// Package benchmark loads index comparison series. It tries the
// server-side aggregation service first and falls back to fetching
// each benchmark directly from the chart provider, rebasing every
// series so its first value is 100.
package benchmark

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Series is one benchmark's rebased monthly values.
type Series struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// Aggregator is the server-side aggregation tier.
type Aggregator interface {
	Series(ctx context.Context, ids []string, months int, customSymbols []string) ([]Series, error)
}

// DirectProvider is the client-side fallback tier.
type DirectProvider interface {
	MonthlyCloses(ctx context.Context, symbol string, months int) ([]float64, error)
}

// Benchmark names a known index and the ticker its direct provider
// understands.
type Benchmark struct {
	ID     string
	Label  string
	Symbol string
}

// Known is the default benchmark registry. Ids not present here are
// fetched with the id used as the ticker verbatim.
var Known = []Benchmark{
	{ID: "sp500", Label: "S&P 500", Symbol: "^GSPC"},
	{ID: "nasdaq100", Label: "Nasdaq 100", Symbol: "^NDX"},
	{ID: "msciworld", Label: "MSCI World", Symbol: "URTH"},
	{ID: "dax", Label: "DAX", Symbol: "^GDAXI"},
	{ID: "stoxx600", Label: "STOXX Europe 600", Symbol: "^STOXX"},
	{ID: "gold", Label: "Gold", Symbol: "GC=F"},
	{ID: "btc", Label: "Bitcoin", Symbol: "BTC-EUR"},
}

// Result carries whatever series loaded plus a user-facing message for
// anything that failed. A failed benchmark never aborts the others.
type Result struct {
	Series  []Series `json:"series"`
	Warning string   `json:"warning,omitempty"`
}

// Loader runs the two tiers. Concurrent direct fetches for the same
// (symbol, months) pair are coalesced.
type Loader struct {
	agg      Aggregator // may be nil when no aggregation service is configured
	direct   DirectProvider
	log      logrus.FieldLogger
	registry map[string]Benchmark

	sf singleflight.Group
}

func NewLoader(agg Aggregator, direct DirectProvider, log logrus.FieldLogger) *Loader {
	registry := make(map[string]Benchmark, len(Known))
	for _, b := range Known {
		registry[b.ID] = b
	}
	return &Loader{agg: agg, direct: direct, log: log, registry: registry}
}

// Load returns rebased series for the requested benchmark ids plus any
// custom symbols, each fitted to months values.
func (l *Loader) Load(ctx context.Context, ids []string, months int, customSymbols []string) Result {
	if months <= 0 {
		months = 12
	}

	if l.agg != nil {
		series, err := l.agg.Series(ctx, ids, months, customSymbols)
		if err != nil {
			l.log.WithError(err).Warn("benchmark aggregation service failed, falling back to direct fetch")
		} else if len(series) > 0 {
			for i := range series {
				series[i].Data = Rebase(Fit(series[i].Data, months))
			}
			return Result{Series: series}
		}
	}

	var out []Series
	var failed []string
	load := func(id, label, symbol string) {
		closes, err := l.monthly(ctx, symbol, months)
		if err != nil {
			l.log.WithError(err).WithField("benchmark", id).Warn("direct benchmark fetch failed")
			failed = append(failed, id)
			return
		}
		out = append(out, Series{ID: id, Label: label, Data: Rebase(Fit(closes, months))})
	}
	for _, id := range ids {
		if b, ok := l.registry[id]; ok {
			load(b.ID, b.Label, b.Symbol)
			continue
		}
		load(id, id, id)
	}
	for _, sym := range customSymbols {
		load(sym, sym, sym)
	}

	res := Result{Series: out}
	if len(failed) > 0 {
		res.Warning = fmt.Sprintf("no data for: %s", strings.Join(failed, ", "))
	}
	return res
}

func (l *Loader) monthly(ctx context.Context, symbol string, months int) ([]float64, error) {
	key := fmt.Sprintf("%s:%d", symbol, months)
	v, err, _ := l.sf.Do(key, func() (any, error) {
		return l.direct.MonthlyCloses(ctx, symbol, months)
	})
	if err != nil {
		return nil, err
	}
	return v.([]float64), nil
}

// Rebase normalizes a series so its first value is exactly 100,
// allowing relative comparison between series of different absolute
// scale. Empty series and series starting at zero pass through
// unchanged.
func Rebase(data []float64) []float64 {
	if len(data) == 0 || data[0] == 0 {
		return data
	}
	base := data[0]
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = v / base * 100
	}
	return out
}

// Fit pads or truncates a series to exactly months values. Truncation
// keeps the most recent values; padding repeats the first value on the
// left so a rebased series still starts at 100.
func Fit(data []float64, months int) []float64 {
	if months <= 0 || len(data) == months {
		return data
	}
	if len(data) > months {
		return data[len(data)-months:]
	}
	out := make([]float64, 0, months)
	var first float64
	if len(data) > 0 {
		first = data[0]
	}
	for i := len(data); i < months; i++ {
		out = append(out, first)
	}
	return append(out, data...)
}
