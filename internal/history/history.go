package history

import "time"

// Point is one sample of an asset's value over time.
// Value mirrors Price; both fields are kept so the JSON shape stays
// compatible with dashboard consumers that read either name.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change"`
	Volume    float64   `json:"volume,omitempty"`
	Label     string    `json:"label"`
}

// SourceSynthetic marks series fabricated by the fallback generator
// rather than obtained from a real provider.
const SourceSynthetic = "synthetic"

// Series is an ordered run of points plus the provenance of the data.
type Series struct {
	Points []Point `json:"points"`
	Source string  `json:"source"`
}

// Synthetic reports whether the series was fabricated locally.
func (s Series) Synthetic() bool { return s.Source == SourceSynthetic }

// Empty returns a series with no points. It is the shape callers see
// for the single unrecoverable outcome; UI layers render it as "no
// data" rather than an error.
func Empty() Series { return Series{Points: []Point{}} }

// ComputeChanges fills Change on each point from its predecessor.
// Change is the percentage move versus the previous point's price and
// is derived only from the two adjacent points; the first point is
// always 0. Points must already be in ascending time order.
func ComputeChanges(points []Point) {
	for i := range points {
		if i == 0 || points[i-1].Price == 0 {
			points[i].Change = 0
			continue
		}
		points[i].Change = (points[i].Price - points[i-1].Price) / points[i-1].Price * 100
	}
}

// Relabel stamps the display symbol onto every point. Providers return
// unlabeled points; the orchestrator applies the user-facing symbol.
func Relabel(points []Point, label string) {
	for i := range points {
		points[i].Label = label
	}
}
