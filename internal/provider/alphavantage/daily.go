package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"sort"
	"strconv"
	"time"

	"historydata/internal/history"
)

// compactLimit is the number of rows the compact outputsize returns;
// longer ranges need the full dump.
const compactLimit = 100

func (c *Client) Name() string { return "alphavantage" }

// dailyBar is one row of the "Time Series (Daily)" map.
type dailyBar struct {
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type dailyResponse struct {
	Series map[string]dailyBar `json:"Time Series (Daily)"`
	Note   string              `json:"Note"`
	Error  string              `json:"Error Message"`
}

// FetchHistory retrieves daily close points for an equity symbol over
// the last N days, oldest first, with Change computed.
func (c *Client) FetchHistory(ctx context.Context, symbol string, days int) ([]history.Point, error) {
	if !c.keyed {
		return nil, fmt.Errorf("alphavantage: no api key configured")
	}

	query := maps.Clone(c.query)
	query.Add("function", "TIME_SERIES_DAILY")
	query.Add("symbol", symbol)
	if days > compactLimit {
		query.Add("outputsize", "full")
	} else {
		query.Add("outputsize", "compact")
	}

	u := fmt.Sprintf("%s/query?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break
	case http.StatusForbidden:
		return nil, fmt.Errorf("unauthorized")
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited")
	default:
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body dailyResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding daily response: %w", err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("provider error: %s", body.Error)
	}
	// The API reports throttling as a 200 with a Note and no series.
	if len(body.Series) == 0 {
		if body.Note != "" {
			return nil, fmt.Errorf("provider note: %s", body.Note)
		}
		return nil, fmt.Errorf("no daily series for %q", symbol)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days).Truncate(24 * time.Hour)
	points := make([]history.Point, 0, len(body.Series))
	for date, bar := range body.Series {
		ts, err := time.ParseInLocation("2006-01-02", date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("decoding date %q: %w", date, err)
		}
		if ts.Before(cutoff) {
			continue
		}
		closePrice, err := strconv.ParseFloat(bar.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("decoding close %q: %w", bar.Close, err)
		}
		volume, _ := strconv.ParseFloat(bar.Volume, 64)
		points = append(points, history.Point{
			Timestamp: ts,
			Value:     closePrice,
			Price:     closePrice,
			Volume:    volume,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
	history.ComputeChanges(points)
	return points, nil
}
