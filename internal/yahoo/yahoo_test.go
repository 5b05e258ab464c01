package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
)

const chartBody = `{"chart":{"result":[{"meta":{"currency":"USD","symbol":"AAPL","regularMarketPrice":%s},
"timestamp":[1704153600,1704240000,1704326400],
"indicators":{"quote":[{"close":[185.5,null,184.25]}]}}],"error":null}}`

func newServer(t *testing.T, handler http.HandlerFunc) *FinanceClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFinanceClient(srv.URL, 5*time.Second)
}

func TestQuote_UsesRegularMarketPrice(t *testing.T) {
	var gotPath, gotRange string
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		_, _ = w.Write([]byte(strings.Replace(chartBody, "%s", "190.1", 1)))
	})

	price, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
	assert.Equal(t, "5d", gotRange)
	assert.InDelta(t, 190.1, price.Value, 1e-9)
	assert.Equal(t, "USD", price.Currency)
}

func TestQuote_FallsBackToLastClose(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Replace(chartBody, "%s", "0", 1)))
	})

	price, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 184.25, price.Value, 1e-9)
}

func TestQuote_YahooError(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})

	_, err := client.Quote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not Found")
	assert.ErrorIs(t, err, apperrors.ErrNoPriceData)
}

func TestQuote_EmptyResultIsNoData(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	})

	_, err := client.Quote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, apperrors.ErrNoPriceData)
}

func TestQuote_ServerErrorIsNotNoData(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Internal","description":"upstream"}}}`))
	})

	_, err := client.Quote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.NotErrorIs(t, err, apperrors.ErrNoPriceData)
}

func TestQuote_InvalidJSON(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("Too Many Requests"))
	})

	_, err := client.Quote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.NotErrorIs(t, err, apperrors.ErrNoPriceData)
}

func TestQuote_ContextCanceled(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Replace(chartBody, "%s", "1", 1)))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Quote(ctx, "AAPL")
	require.Error(t, err)
}

func TestHistory_SkipsNullCloses(t *testing.T) {
	var period1, period2 string
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		period1 = r.URL.Query().Get("period1")
		period2 = r.URL.Query().Get("period2")
		_, _ = w.Write([]byte(strings.Replace(chartBody, "%s", "0", 1)))
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)

	points, err := client.History(context.Background(), "^GSPC", start, end)
	require.NoError(t, err)
	assert.Equal(t, "1704067200", period1)
	assert.Equal(t, "1704326400", period2)

	require.Len(t, points, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), points[0].Date)
	assert.InDelta(t, 185.5, points[0].Close, 1e-9)
	assert.InDelta(t, 184.25, points[1].Close, 1e-9)
}

func TestParseCloses_Errors(t *testing.T) {
	one := 1.0

	tests := []struct {
		name   string
		result Result
	}{
		{name: "no timestamps", result: Result{}},
		{name: "no quotes", result: Result{Timestamp: []int64{1}}},
		{
			name: "mismatched lengths",
			result: Result{
				Timestamp:  []int64{1, 2},
				Indicators: IndicatorsContainer{Quote: []Quote{{Close: []*float64{&one}}}},
			},
		},
		{
			name: "all null",
			result: Result{
				Timestamp:  []int64{1},
				Indicators: IndicatorsContainer{Quote: []Quote{{Close: []*float64{nil}}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCloses(tt.result)
			assert.Error(t, err)
		})
	}
}
