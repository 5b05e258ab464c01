package handlers

import (
	"net/http"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api/request"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api/response"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/service"
)

// SnapshotHandler records portfolio snapshots on behalf of external schedulers.
type SnapshotHandler struct {
	snapshotService *service.SnapshotService
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(snapshotService *service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{
		snapshotService: snapshotService,
	}
}

// CreateSnapshot handles POST requests to store the snapshot of the current 15-minute bucket.
// Without a portfolioValue in the body the current portfolio value is computed.
// Calling it twice in one bucket overwrites the first snapshot.
//
// Endpoint: POST /api/snapshot
// Request Body: CreateSnapshotRequest (optional)
// Response: 200 OK with PortfolioSnapshot
// Error: 400 Bad Request if the body is invalid or the value is negative
// Error: 401 Unauthorized if the API key or time token is missing or invalid (middleware)
// Error: 500 Internal Server Error if the snapshot cannot be stored
func (h *SnapshotHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	req, err := parseOptionalJSON[request.CreateSnapshotRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var snapshot model.PortfolioSnapshot
	if req.PortfolioValue != nil {
		if *req.PortfolioValue < 0 {
			response.RespondError(w, http.StatusBadRequest, "validation failed",
				map[string]string{"portfolioValue": "portfolioValue cannot be negative"})
			return
		}
		snapshot, err = h.snapshotService.CreateSnapshot(r.Context(), *req.PortfolioValue)
	} else {
		snapshot, err = h.snapshotService.CaptureSnapshot(r.Context())
	}
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToCreateSnapshot.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, snapshot)
}
