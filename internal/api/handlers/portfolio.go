package handlers

import (
	"net/http"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api/response"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/service"
)

// PortfolioHandler serves the read side of the portfolio: current valuation,
// snapshot history and benchmark comparison.
type PortfolioHandler struct {
	valuationService *service.ValuationService
	snapshotService  *service.SnapshotService
	benchmarkService *service.BenchmarkService
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(
	valuationService *service.ValuationService,
	snapshotService *service.SnapshotService,
	benchmarkService *service.BenchmarkService,
) *PortfolioHandler {
	return &PortfolioHandler{
		valuationService: valuationService,
		snapshotService:  snapshotService,
		benchmarkService: benchmarkService,
	}
}

// Portfolio handles GET requests for the current holdings and summary.
// Holdings without a price are listed with priceStatus "unpriced" and excluded from the summary.
//
// Endpoint: GET /api/portfolio
// Response: 200 OK with PortfolioData
// Error: 500 Internal Server Error if the ledger cannot be read
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	data, err := h.valuationService.GetPortfolioData(r.Context())
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToGetPortfolioData.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, data)
}

// History handles GET requests for the snapshot series, oldest first.
//
// Endpoint: GET /api/portfolio/history
// Response: 200 OK with array of HistoryPoint
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.snapshotService.GetPortfolioHistory(r.Context())
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToGetPortfolioHistory.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, history)
}

// Benchmarks handles GET requests for what the invested money would be worth in each
// tracked index today.
//
// Endpoint: GET /api/portfolio/benchmarks
// Response: 200 OK with BenchmarkValues
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) Benchmarks(w http.ResponseWriter, r *http.Request) {
	values, err := h.benchmarkService.CurrentBenchmarkValues(r.Context())
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToGetBenchmarks.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, values)
}
