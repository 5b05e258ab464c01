package request

// CreateSnapshotRequest is the optional body of POST /api/snapshot.
// Without a value the current portfolio value is computed.
type CreateSnapshotRequest struct {
	PortfolioValue *float64 `json:"portfolioValue,omitempty"`
}
