// Package yahoochart reads the public Yahoo Finance chart endpoint.
// It serves two roles: monthly closes for benchmark indices when the
// aggregation service has nothing, and a keyless current-price lookup
// for equities.
package yahoochart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"historydata/internal/httpx"
)

// Config controls the Yahoo chart provider behavior.
type Config struct {
	Name      string
	BaseURL   string
	SymbolMap map[string]string // maps internal symbols to Yahoo tickers
}

type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "yahoo"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) ticker(symbol string) string {
	if mapped, ok := p.cfg.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// chartResponse is the nested shape of the chart endpoint. Close
// values are pointers because Yahoo emits null for holiday bars.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Adjclose []struct {
					Adjclose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (p *Provider) fetchCloses(ctx context.Context, symbol, interval, rng string) ([]float64, error) {
	u := fmt.Sprintf("%s/%s?interval=%s&range=%s",
		p.cfg.BaseURL, url.PathEscape(p.ticker(symbol)), interval, rng)
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

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%s: %s", p.cfg.Name, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: no data for %q", p.cfg.Name, symbol)
	}

	result := chart.Chart.Result[0]
	// Prefer adjusted closes; fall back to raw quote closes.
	var raw []*float64
	if len(result.Indicators.Adjclose) > 0 && len(result.Indicators.Adjclose[0].Adjclose) > 0 {
		raw = result.Indicators.Adjclose[0].Adjclose
	} else if len(result.Indicators.Quote) > 0 {
		raw = result.Indicators.Quote[0].Close
	}

	closes := make([]float64, 0, len(raw))
	for _, v := range raw {
		if v == nil {
			continue
		}
		closes = append(closes, *v)
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("%s: empty series for %q", p.cfg.Name, symbol)
	}
	return closes, nil
}

// MonthlyCloses returns up to months of monthly closing values for a
// symbol, oldest first.
func (p *Provider) MonthlyCloses(ctx context.Context, symbol string, months int) ([]float64, error) {
	rng := "5y"
	if months <= 12 {
		rng = "1y"
	} else if months <= 36 {
		rng = "3y"
	}
	closes, err := p.fetchCloses(ctx, symbol, "1mo", rng)
	if err != nil {
		return nil, err
	}
	if len(closes) > months {
		closes = closes[len(closes)-months:]
	}
	return closes, nil
}

// CurrentPrice returns the latest close for a symbol, or nil when the
// chart has no data.
func (p *Provider) CurrentPrice(ctx context.Context, symbol string) (*float64, error) {
	closes, err := p.fetchCloses(ctx, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}
	v := closes[len(closes)-1]
	return &v, nil
}
