package coingecko

import (
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"historydata/internal/httpx"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Currency: "eur"}, httpx.New(5*time.Second))
}

func chartBody(days int, price float64) string {
	// Noon samples keep every point inside the day-granular cutoff.
	base := time.Now().UTC().Truncate(24 * time.Hour).Add(12 * time.Hour)
	body := `{"prices":[`
	for i := days; i >= 0; i-- {
		if i != days {
			body += ","
		}
		ts := base.AddDate(0, 0, -i).UnixMilli()
		body += fmt.Sprintf("[%d,%g]", ts, price+float64(days-i))
	}
	return body + `]}`
}

func TestFetchHistory_ParsesAndComputesChange(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin/market_chart" {
			t.Fatalf("path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("vs_currency") != "eur" || q.Get("days") != "30" || q.Get("interval") != "daily" {
			t.Fatalf("query: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, chartBody(30, 50000))
	})

	points, err := p.FetchHistory(t.Context(), "bitcoin", 30)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(points) != 31 {
		t.Fatalf("want 31 points, got %d", len(points))
	}
	if points[0].Change != 0 {
		t.Fatalf("first change: %f", points[0].Change)
	}
	want := (points[1].Price - points[0].Price) / points[0].Price * 100
	if math.Abs(points[1].Change-want) > 1e-9 {
		t.Fatalf("change[1]: want %f, got %f", want, points[1].Change)
	}
	for i := 1; i < len(points); i++ {
		if !points[i-1].Timestamp.Before(points[i].Timestamp) {
			t.Fatalf("not ascending at %d", i)
		}
	}
}

func TestFetchHistory_FiltersPointsOutsideWindow(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		// 90 days of data for a 30 day request
		fmt.Fprint(w, chartBody(90, 100))
	})

	points, err := p.FetchHistory(t.Context(), "bitcoin", 30)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(points) != 31 {
		t.Fatalf("want 31 points inside window, got %d", len(points))
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -30).Truncate(24 * time.Hour)
	for i, pt := range points {
		if pt.Timestamp.Before(cutoff) {
			t.Fatalf("point %d before cutoff: %s", i, pt.Timestamp)
		}
	}
}

func TestFetchHistory_ClampsToMaxDays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("days"); got != "365" {
			t.Fatalf("days not clamped: %s", got)
		}
		fmt.Fprint(w, chartBody(5, 100))
	}))
	t.Cleanup(srv.Close)
	p := New(Config{BaseURL: srv.URL, MaxDays: 365}, httpx.New(5*time.Second))

	if _, err := p.FetchHistory(t.Context(), "bitcoin", 1825); err != nil {
		t.Fatalf("fetch: %v", err)
	}
}

func TestFetchHistory_EmptyPricesIsError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"prices":[]}`)
	})
	if _, err := p.FetchHistory(t.Context(), "nosuchcoin", 30); err == nil {
		t.Fatal("want error for empty prices")
	}
}

func TestFetchHistory_Non2xxIsError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	if _, err := p.FetchHistory(t.Context(), "bitcoin", 30); err == nil {
		t.Fatal("want error for 429")
	}
}

func TestCurrentPrice(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/price" {
			t.Fatalf("path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"bitcoin":{"eur":58123.45}}`)
	})

	price, err := p.CurrentPrice(t.Context(), "bitcoin")
	if err != nil {
		t.Fatalf("current price: %v", err)
	}
	if price == nil || *price != 58123.45 {
		t.Fatalf("price: %v", price)
	}
}

func TestCurrentPrice_MissingIdIsNilNotError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	price, err := p.CurrentPrice(t.Context(), "nosuchcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != nil {
		t.Fatalf("want nil price, got %v", *price)
	}
}
