package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
)

// DefaultBaseURL is the Yahoo Finance chart endpoint host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// FinanceClient provides methods for fetching financial data from Yahoo Finance API.
// It satisfies quote.Source.
type FinanceClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewFinanceClient creates a new Yahoo Finance client.
// An empty baseURL selects DefaultBaseURL; tests point it at an httptest server.
func NewFinanceClient(baseURL string, timeout time.Duration) *FinanceClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &FinanceClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Quote returns the latest market price of a symbol in the currency Yahoo reports.
// The meta regularMarketPrice is preferred; the last non-null close of the five-day
// range is used when it is missing.
func (c *FinanceClient) Quote(ctx context.Context, symbol string) (model.Price, error) {
	resp, err := c.queryChart(ctx, symbol, url.Values{
		"interval": {"1d"},
		"range":    {"5d"},
	})
	if err != nil {
		return model.Price{}, err
	}

	result := resp.Chart.Result[0]
	price := result.Meta.RegularMarketPrice
	if price <= 0 {
		points, err := ParseCloses(result)
		if err != nil {
			return model.Price{}, err
		}
		price = points[len(points)-1].Close
	}
	if price <= 0 {
		return model.Price{}, fmt.Errorf("no price returned for symbol %s: %w", symbol, apperrors.ErrNoPriceData)
	}

	return model.Price{Value: price, Currency: strings.ToUpper(result.Meta.Currency)}, nil
}

// History fetches daily closes for a symbol within a date range.
//
// Parameters:
//   - symbol: Yahoo symbol (e.g., "AAPL", "BTC-USD", "^GSPC")
//   - start: Beginning of date range (inclusive)
//   - end: End of date range (inclusive)
//
// Returns the closes in ascending date order, or an error if the request fails or
// no data is returned.
func (c *FinanceClient) History(ctx context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error) {
	resp, err := c.queryChart(ctx, symbol, url.Values{
		"interval": {"1d"},
		"period1":  {fmt.Sprint(start.Unix())},
		"period2":  {fmt.Sprint(end.Unix())},
	})
	if err != nil {
		return nil, err
	}
	return ParseCloses(resp.Chart.Result[0])
}

// ParseCloses converts a raw chart result into a close-price series.
// Slots with a null close are skipped.
//
// Returns an error if:
//   - Timestamp data is missing
//   - Close price data is missing
//   - Data arrays have mismatched lengths
//   - Every close is null
func ParseCloses(result Result) ([]model.PricePoint, error) {
	if len(result.Timestamp) == 0 {
		return nil, fmt.Errorf("no price data returned: %w", apperrors.ErrNoPriceData)
	}
	if len(result.Indicators.Quote) == 0 || len(result.Indicators.Quote[0].Close) == 0 {
		return nil, fmt.Errorf("no close prices returned: %w", apperrors.ErrNoPriceData)
	}

	closes := result.Indicators.Quote[0].Close
	if len(closes) != len(result.Timestamp) {
		return nil, fmt.Errorf("mismatched data lengths")
	}

	points := make([]model.PricePoint, 0, len(closes))
	for i, ts := range result.Timestamp {
		if closes[i] == nil {
			continue
		}
		points = append(points, model.PricePoint{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no close prices returned: %w", apperrors.ErrNoPriceData)
	}

	return points, nil
}

// queryChart executes a chart request and checks for API errors.
//
// The method sets required headers:
//   - User-Agent: Mimics a browser to avoid API blocking
//   - Accept: Requests JSON response format
func (c *FinanceClient) queryChart(ctx context.Context, symbol string, params url.Values) (Response, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return Response{}, fmt.Errorf("yahoo %s: status %d: %w", symbol, resp.StatusCode, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return Response{}, fmt.Errorf("yahoo %s: status %d", symbol, resp.StatusCode)
	}
	if response.Chart.Error != nil {
		return response, fmt.Errorf("yahoo error: %s: %s: %w",
			response.Chart.Error.Code, response.Chart.Error.Description, apperrors.ErrNoPriceData)
	}
	if len(response.Chart.Result) == 0 {
		return Response{}, fmt.Errorf("no results returned for symbol %s: %w", symbol, apperrors.ErrNoPriceData)
	}

	return response, nil
}
