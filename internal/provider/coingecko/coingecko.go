package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"historydata/internal/history"
	"historydata/internal/httpx"
)

// Config controls the CoinGecko provider behavior.
type Config struct {
	Name     string
	BaseURL  string
	Currency string // vs_currency, default "eur"
	MaxDays  int    // provider range cap; requests beyond it are clamped
}

// Provider fetches daily price history and current prices for crypto
// coin ids from the CoinGecko public API.
type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "coingecko"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.Currency == "" {
		cfg.Currency = "eur"
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = 365
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

// marketChart mirrors /coins/{id}/market_chart: prices is a list of
// [timestampMs, price] pairs.
type marketChart struct {
	Prices [][2]float64 `json:"prices"`
}

// FetchHistory returns up to days of daily points for a coin id,
// oldest first, with Change computed. The requested range is clamped
// to the provider cap; points outside the wall-clock cutoff are
// dropped after parsing.
func (p *Provider) FetchHistory(ctx context.Context, id string, days int) ([]history.Point, error) {
	if days > p.cfg.MaxDays {
		days = p.cfg.MaxDays
	}
	if days <= 0 {
		days = 1
	}

	u := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=%s&days=%d&interval=daily",
		p.cfg.BaseURL, url.PathEscape(id), url.QueryEscape(p.cfg.Currency), days)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s -> %d", u, resp.StatusCode)
	}

	var chart marketChart
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(chart.Prices) == 0 {
		return nil, fmt.Errorf("%s: no prices for %q", p.cfg.Name, id)
	}

	// Day-window filter works on the wall-clock cutoff date, not on
	// sample count.
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Truncate(24 * time.Hour)
	points := make([]history.Point, 0, len(chart.Prices))
	for _, pair := range chart.Prices {
		ts := time.UnixMilli(int64(pair[0])).UTC()
		if ts.Before(cutoff) {
			continue
		}
		points = append(points, history.Point{
			Timestamp: ts,
			Value:     pair[1],
			Price:     pair[1],
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
	history.ComputeChanges(points)
	return points, nil
}

// CurrentPrice returns the latest price for a coin id, or nil when the
// provider has no entry for it.
func (p *Provider) CurrentPrice(ctx context.Context, id string) (*float64, error) {
	u := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s",
		p.cfg.BaseURL, url.QueryEscape(id), url.QueryEscape(p.cfg.Currency))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s -> %d", u, resp.StatusCode)
	}

	var body map[string]map[string]json.Number
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	quotes, ok := body[strings.ToLower(id)]
	if !ok {
		return nil, nil
	}
	raw, ok := quotes[strings.ToLower(p.cfg.Currency)]
	if !ok {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw.String(), 64)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", raw.String(), err)
	}
	return &v, nil
}
