package benchmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"historydata/internal/httpx"
)

// AggregatorClient calls the benchmark aggregation service over HTTP.
type AggregatorClient struct {
	url    string
	client *httpx.Client
}

func NewAggregatorClient(url string, hc *httpx.Client) *AggregatorClient {
	return &AggregatorClient{url: url, client: hc}
}

type aggRequest struct {
	IDs           []string `json:"ids"`
	Months        int      `json:"months"`
	CustomSymbols []string `json:"customSymbols"`
}

type aggResponse struct {
	Series []Series `json:"series"`
}

// Series posts the benchmark request and returns whatever series the
// service produced. An empty result is not an error; the loader then
// falls through to the direct tier.
func (a *AggregatorClient) Series(ctx context.Context, ids []string, months int, customSymbols []string) ([]Series, error) {
	payload, err := json.Marshal(aggRequest{IDs: ids, Months: months, CustomSymbols: customSymbols})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return nil, fmt.Errorf("POST %s -> %d: %s", a.url, resp.StatusCode, string(b))
	}

	var body aggResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return body.Series, nil
}
