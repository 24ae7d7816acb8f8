package provider

import (
	"context"

	"historydata/internal/history"
)

// History is the normalized contract all history providers implement:
// a point series for a provider-specific id over the last N days.
// Implementations return points in ascending time order with Change
// already computed, and signal "no data" with an error rather than an
// empty slice.
type History interface {
	Name() string
	FetchHistory(ctx context.Context, id string, days int) ([]history.Point, error)
}

// PriceLookup returns the current price for a provider-specific id.
// A nil price with a nil error means the provider has no data for the
// id; callers treat that as the hard "no data" case.
type PriceLookup interface {
	CurrentPrice(ctx context.Context, id string) (*float64, error)
}
