// Package fetcher sequences resolver, cache, provider and fallback for
// one (symbol, timeframe) request. One generic routine serves every
// asset class; classes differ only in the capability set they plug in.
package fetcher

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"historydata/internal/cache"
	"historydata/internal/history"
	"historydata/internal/provider"
	"historydata/internal/symbols"
	"historydata/internal/synthetic"
)

// TTL tiers: real provider data is trusted for an hour; fabricated
// series carry less confidence and are retried sooner.
const (
	RealTTL      = time.Hour
	SyntheticTTL = 30 * time.Minute
)

// Source bundles the capabilities the orchestrator needs for one asset
// class: symbol resolution, a history provider, a current-price lookup
// for the fallback path, and the volatility band fabricated series may
// swing within.
type Source struct {
	Class   symbols.AssetClass
	Resolve func(symbol string) string
	History provider.History
	Prices  provider.PriceLookup
	Band    synthetic.Band

	// Usable reports whether the history provider can serve a request
	// of the given day range; nil means always. Equities use this to
	// skip a paid provider that is unconfigured or out of range.
	Usable func(days int) bool
}

// Fetcher owns the cache and the per-class sources. The cache is an
// explicit dependency so its lifetime is visible to the caller.
type Fetcher struct {
	cache   *cache.Store
	log     logrus.FieldLogger
	sources map[symbols.AssetClass]Source
}

func New(store *cache.Store, log logrus.FieldLogger, sources ...Source) *Fetcher {
	byClass := make(map[symbols.AssetClass]Source, len(sources))
	for _, s := range sources {
		byClass[s.Class] = s
	}
	return &Fetcher{cache: store, log: log, sources: byClass}
}

// Fetch returns the historical series for a symbol. It never returns
// an error: provider failures are logged and fall back to a fabricated
// series, and the only unrecoverable case (no current price either)
// yields an empty series.
//
// Terminal states, in order: valid cache hit; real data cached for
// RealTTL; synthetic data cached for SyntheticTTL; empty series.
func (f *Fetcher) Fetch(ctx context.Context, class symbols.AssetClass, symbol string, tf history.Timeframe) history.Series {
	src, ok := f.sources[class]
	if !ok {
		f.log.WithField("class", class).Warn("no source for asset class")
		return history.Empty()
	}

	key := cache.Key(class, symbol, tf)
	if entry, ok := f.cache.Get(key); ok && entry.Valid(time.Now()) {
		return entry.Series
	}

	days := tf.Days()
	id := src.Resolve(symbol)
	log := f.log.WithFields(logrus.Fields{"class": class, "symbol": symbol, "id": id, "timeframe": tf})

	if src.Usable == nil || src.Usable(days) {
		points, err := src.History.FetchHistory(ctx, id, days)
		switch {
		case err != nil:
			log.WithError(err).Warn("history provider failed, trying fallback")
		case len(points) > 0:
			history.Relabel(points, symbol)
			series := history.Series{Points: points, Source: src.History.Name()}
			f.cache.Set(key, series, RealTTL)
			return series
		}
	}

	price, err := src.Prices.CurrentPrice(ctx, id)
	if err != nil {
		log.WithError(err).Warn("current price lookup failed")
		return history.Empty()
	}
	if price == nil {
		log.Warn("no current price, returning empty series")
		return history.Empty()
	}

	points := synthetic.Generate(*price, days, src.Band)
	history.Relabel(points, symbol)
	series := history.Series{Points: points, Source: history.SourceSynthetic}
	f.cache.Set(key, series, SyntheticTTL)
	return series
}
