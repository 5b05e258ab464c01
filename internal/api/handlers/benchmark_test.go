package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/testutil"
)

func TestBenchmarkHandler_IndexHistory(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	setupHandler := func(t *testing.T) *BenchmarkHandler {
		t.Helper()
		db := testutil.SetupTestDB(t)
		source := testutil.NewMockQuoteSource().WithHistory("^GSPC",
			model.PricePoint{Date: start.AddDate(0, 0, 1), Close: 4700},
			model.PricePoint{Date: start.AddDate(0, 0, 2), Close: 4750},
			model.PricePoint{Date: start.AddDate(0, 0, 20), Close: 4900},
		)
		return NewBenchmarkHandler(testutil.NewTestBenchmarkService(t, db, source))
	}

	newRequest := func(key string, query map[string]string) *http.Request {
		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/benchmark/"+key, query)
		return testutil.NewRequestWithURLParams(req.Method, req.URL.String(), map[string]string{"key": key})
	}

	t.Run("returns closes within the range", func(t *testing.T) {
		handler := setupHandler(t)

		req := newRequest("SP500", map[string]string{"startDate": "2024-01-01", "endDate": "2024-01-03"})
		w := httptest.NewRecorder()

		handler.IndexHistory(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response []model.IndexPoint
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if len(response) != 2 {
			t.Fatalf("Expected 2 points, got %d", len(response))
		}
		if response[1].Date != "2024-01-03" || response[1].Value != 4750 {
			t.Errorf("Expected 2024-01-03 at 4750, got %+v", response[1])
		}
	})

	t.Run("without endDate runs until today", func(t *testing.T) {
		handler := setupHandler(t)

		req := newRequest("sp500", map[string]string{"startDate": "2024-01-01"})
		w := httptest.NewRecorder()

		handler.IndexHistory(w, req)

		var response []model.IndexPoint
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if len(response) != 3 {
			t.Errorf("Expected 3 points, got %d", len(response))
		}
	})

	tests := []struct {
		name  string
		key   string
		query map[string]string
	}{
		{"missing startDate", "SP500", map[string]string{}},
		{"malformed startDate", "SP500", map[string]string{"startDate": "01/01/2024"}},
		{"malformed endDate", "SP500", map[string]string{"startDate": "2024-01-01", "endDate": "tomorrow"}},
		{"inverted range", "SP500", map[string]string{"startDate": "2024-02-01", "endDate": "2024-01-01"}},
		{"unknown index", "DOWJONES", map[string]string{"startDate": "2024-01-01"}},
	}
	for _, tt := range tests {
		t.Run("returns 400 for "+tt.name, func(t *testing.T) {
			handler := setupHandler(t)

			w := httptest.NewRecorder()
			handler.IndexHistory(w, newRequest(tt.key, tt.query))

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}
