// Package synthetic fabricates plausible historical series when no
// real provider data is obtainable. The output is a presentation
// heuristic, not a statistical model: it exists so charts have
// something to draw, and it must stay marked as synthetic all the way
// to the caller (history.Series.Source).
package synthetic

import (
	"math/rand/v2"
	"time"

	"historydata/internal/history"
)

// Band bounds the relative perturbation applied per fabricated point.
// Width is the maximum swing away from the current price at the far
// end of the series.
type Band struct {
	Width float64
}

// Crypto swings wider than equities; both are plausibility knobs, not
// measured volatilities.
var (
	Crypto = Band{Width: 0.10}
	Equity = Band{Width: 0.04}
)

// Generate fabricates days+1 points, oldest first, ending today at
// currentPrice. The perturbation is scaled down linearly as points
// approach today, so the newest point converges to the real current
// price. Change is computed point-to-point exactly like the real-data
// path.
func Generate(currentPrice float64, days int, band Band) []history.Point {
	if days < 0 {
		days = 0
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	points := make([]history.Point, 0, days+1)
	for i := 0; i <= days; i++ {
		daysAgo := days - i
		scale := 0.0
		if days > 0 {
			scale = float64(daysAgo) / float64(days)
		}
		perturb := (rand.Float64()*2 - 1) * band.Width * scale
		price := currentPrice * (1 + perturb)
		points = append(points, history.Point{
			Timestamp: today.AddDate(0, 0, -daysAgo),
			Value:     price,
			Price:     price,
		})
	}
	history.ComputeChanges(points)
	return points
}
