package alphavantage_test

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"historydata/internal/provider/alphavantage"
)

// dailyBody builds a "Time Series (Daily)" payload with one bar per
// day ending today.
func dailyBody(days int, start float64) string {
	buf := &bytes.Buffer{}
	buf.WriteString(`{"Time Series (Daily)":{`)
	now := time.Now().UTC()
	for i := 0; i < days; i++ {
		if i > 0 {
			buf.WriteString(",")
		}
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		fmt.Fprintf(buf, `%q:{"4. close":"%.2f","5. volume":"%d"}`, date, start+float64(i), 1000+i)
	}
	buf.WriteString("}}")
	return buf.String()
}

func mockedClient(t *testing.T, status int, body string) *alphavantage.Client {
	t.Helper()
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(bytes.NewBufferString(body)),
			}, nil
		}).
		AnyTimes()

	client, err := alphavantage.NewClient("test", alphavantage.WithHTTPClient(httpClient))
	require.NoError(t, err)
	return client
}

func TestFetchHistory_ParsesDailySeries(t *testing.T) {
	t.Parallel()

	client := mockedClient(t, http.StatusOK, dailyBody(10, 150))

	points, err := client.FetchHistory(t.Context(), "AAPL", 30)
	require.NoError(t, err)
	require.Len(t, points, 10)

	// Oldest first, change from adjacent closes, volume carried over.
	for i := 1; i < len(points); i++ {
		require.True(t, points[i-1].Timestamp.Before(points[i].Timestamp), "points not ascending at %d", i)
	}
	require.Zero(t, points[0].Change)
	want := (points[1].Price - points[0].Price) / points[0].Price * 100
	require.InDelta(t, want, points[1].Change, 1e-9)
	require.NotZero(t, points[0].Volume)
}

func TestFetchHistory_CutoffFiltersOldBars(t *testing.T) {
	t.Parallel()

	client := mockedClient(t, http.StatusOK, dailyBody(40, 100))

	points, err := client.FetchHistory(t.Context(), "AAPL", 7)
	require.NoError(t, err)
	cutoff := time.Now().UTC().AddDate(0, 0, -7).Truncate(24 * time.Hour)
	require.Len(t, points, 8)
	for _, p := range points {
		require.False(t, p.Timestamp.Before(cutoff), "point before cutoff: %s", p.Timestamp)
	}
}

func TestFetchHistory_ThrottleNoteIsError(t *testing.T) {
	t.Parallel()

	client := mockedClient(t, http.StatusOK, `{"Note":"Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`)

	_, err := client.FetchHistory(t.Context(), "AAPL", 30)
	require.Error(t, err)
	require.Contains(t, err.Error(), "note")
}

func TestFetchHistory_ErrorMessageIsError(t *testing.T) {
	t.Parallel()

	client := mockedClient(t, http.StatusOK, `{"Error Message":"Invalid API call."}`)

	_, err := client.FetchHistory(t.Context(), "NOPE", 30)
	require.Error(t, err)
}

func TestFetchHistory_RateLimitedStatus(t *testing.T) {
	t.Parallel()

	client := mockedClient(t, http.StatusTooManyRequests, ``)

	_, err := client.FetchHistory(t.Context(), "AAPL", 30)
	require.ErrorContains(t, err, "rate limited")
}
