package yahoochart

import (
	"fmt"
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
	return New(Config{BaseURL: srv.URL, SymbolMap: map[string]string{"SP500": "^GSPC"}}, httpx.New(5*time.Second))
}

const adjcloseChart = `{"chart":{"result":[{
  "timestamp":[1700000000,1702592000,1705184000],
  "indicators":{
    "adjclose":[{"adjclose":[4500.1,null,4700.3]}],
    "quote":[{"close":[4500.0,4600.0,4700.0]}]
  }}],"error":null}}`

const quoteOnlyChart = `{"chart":{"result":[{
  "timestamp":[1700000000,1702592000],
  "indicators":{"quote":[{"close":[100.5,null]}]}}],"error":null}}`

func TestMonthlyCloses_PrefersAdjcloseAndSkipsNulls(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/%5EGSPC" && r.URL.Path != "/^GSPC" {
			t.Fatalf("path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("interval") != "1mo" || q.Get("range") != "1y" {
			t.Fatalf("query: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, adjcloseChart)
	})

	closes, err := p.MonthlyCloses(t.Context(), "SP500", 12)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if len(closes) != 2 || closes[0] != 4500.1 || closes[1] != 4700.3 {
		t.Fatalf("closes: %v", closes)
	}
}

func TestMonthlyCloses_FallsBackToQuoteCloses(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quoteOnlyChart)
	})
	closes, err := p.MonthlyCloses(t.Context(), "AAPL", 12)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if len(closes) != 1 || closes[0] != 100.5 {
		t.Fatalf("closes: %v", closes)
	}
}

func TestMonthlyCloses_RangeSelection(t *testing.T) {
	var gotRange string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.URL.Query().Get("range")
		fmt.Fprint(w, quoteOnlyChart)
	})

	cases := []struct {
		months int
		want   string
	}{
		{6, "1y"},
		{12, "1y"},
		{24, "3y"},
		{36, "3y"},
		{60, "5y"},
	}
	for _, c := range cases {
		if _, err := p.MonthlyCloses(t.Context(), "AAPL", c.months); err != nil {
			t.Fatalf("months=%d: %v", c.months, err)
		}
		if gotRange != c.want {
			t.Fatalf("months=%d: range %q, want %q", c.months, gotRange, c.want)
		}
	}
}

func TestMonthlyCloses_TruncatesToMonths(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, adjcloseChart)
	})
	closes, err := p.MonthlyCloses(t.Context(), "SP500", 1)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if len(closes) != 1 || closes[0] != 4700.3 {
		t.Fatalf("want most recent close only: %v", closes)
	}
}

func TestMonthlyCloses_APIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	})
	if _, err := p.MonthlyCloses(t.Context(), "NOPE", 12); err == nil {
		t.Fatal("want error from chart error payload")
	}
}

func TestCurrentPrice_LastClose(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("interval") != "1d" || q.Get("range") != "1d" {
			t.Fatalf("query: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, adjcloseChart)
	})
	price, err := p.CurrentPrice(t.Context(), "SP500")
	if err != nil {
		t.Fatalf("current price: %v", err)
	}
	if price == nil || *price != 4700.3 {
		t.Fatalf("price: %v", price)
	}
}
