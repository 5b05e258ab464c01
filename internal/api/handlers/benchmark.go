package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api/response"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/service"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/validation"
)

// BenchmarkHandler serves index price history for chart comparison.
type BenchmarkHandler struct {
	benchmarkService *service.BenchmarkService
}

// NewBenchmarkHandler creates a new BenchmarkHandler.
func NewBenchmarkHandler(benchmarkService *service.BenchmarkService) *BenchmarkHandler {
	return &BenchmarkHandler{
		benchmarkService: benchmarkService,
	}
}

// IndexHistory handles GET requests for the daily closes of one index.
// Values are in the index's own currency.
//
// Endpoint: GET /api/benchmark/{key}?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD
// Response: 200 OK with array of IndexPoint
// Error: 400 Bad Request if startDate is missing, a date is malformed, the range is
// inverted or the index is unknown
// Error: 500 Internal Server Error if retrieval fails
func (h *BenchmarkHandler) IndexHistory(w http.ResponseWriter, r *http.Request) {
	key := model.IndexKey(chi.URLParam(r, "key"))

	startStr := r.URL.Query().Get("startDate")
	if startStr == "" {
		response.RespondError(w, http.StatusBadRequest, "startDate is required", nil)
		return
	}
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid startDate", err.Error())
		return
	}

	var end time.Time
	if endStr := r.URL.Query().Get("endDate"); endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid endDate", err.Error())
			return
		}
		// the whole end day is included
		end = end.Add(24*time.Hour - time.Nanosecond)
		if err := validation.ValidateDateRange(start, end); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid date range", err.Error())
			return
		}
	}

	series, err := h.benchmarkService.IndexHistory(r.Context(), key, start, end)
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToGetIndexHistory.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, series)
}
