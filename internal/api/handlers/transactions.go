package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api/request"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api/response"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/service"
)

// TransactionHandler handles HTTP requests for transaction and asset endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the transactionService.
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler with the provided service dependency.
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// AllTransactions handles GET requests to retrieve every transaction, newest first.
//
// Endpoint: GET /api/transaction
// Response: 200 OK with array of TransactionWithAsset
// Error: 500 Internal Server Error if retrieval fails
func (h *TransactionHandler) AllTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.transactionService.GetTransactions(r.Context())
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToRetrieveTransactions.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, transactions)
}

// GetTransaction handles GET requests to retrieve a single transaction by ID.
//
// Endpoint: GET /api/transaction/{uuid}
// Response: 200 OK with TransactionWithAsset
// Error: 400 Bad Request if transaction ID is invalid (validated by middleware)
// Error: 404 Not Found if transaction not found
// Error: 500 Internal Server Error if retrieval fails
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	transaction, err := h.transactionService.GetTransaction(r.Context(), transactionID)
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToRetrieveTransaction.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction)
}

// CreateTransaction handles POST requests to create a new transaction.
// The body is either JSON or a form (url-encoded or multipart) with the same field names.
//
// Endpoint: POST /api/transaction
// Request Body: CreateTransactionRequest
// Response: 201 Created with TransactionWithAsset
// Error: 400 Bad Request if validation fails, the body is invalid or an exchange rate is missing
// Error: 500 Internal Server Error if creation fails
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := parseCreateTransaction(r)
	if err != nil {
		respondParseError(w, r, err)
		return
	}

	transaction, err := h.transactionService.AddTransaction(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err, "failed to create transaction")
		return
	}

	response.RespondJSON(w, http.StatusCreated, transaction)
}

// UpdateTransaction handles PUT requests to update an existing transaction.
// Only the fields present in the body are changed.
//
// Endpoint: PUT /api/transaction/{uuid}
// Request Body: UpdateTransactionRequest (all fields optional)
// Response: 200 OK with updated TransactionWithAsset
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if transaction not found
// Error: 500 Internal Server Error if update fails
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	req, err := parseUpdateTransaction(r)
	if err != nil {
		respondParseError(w, r, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(r.Context(), transactionID, req)
	if err != nil {
		respondServiceError(w, r, err, "failed to update transaction")
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction)
}

// DeleteTransaction handles DELETE requests to remove a transaction.
// An asset left without transactions is removed with it.
//
// Endpoint: DELETE /api/transaction/{uuid}
// Response: 204 No Content
// Error: 404 Not Found if transaction not found
// Error: 500 Internal Server Error if deletion fails
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	if err := h.transactionService.DeleteTransaction(r.Context(), transactionID); err != nil {
		respondServiceError(w, r, err, "failed to delete transaction")
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// AllAssets handles GET requests to list every asset ordered by ticker.
//
// Endpoint: GET /api/asset
// Response: 200 OK with array of Asset
// Error: 500 Internal Server Error if retrieval fails
func (h *TransactionHandler) AllAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.transactionService.GetAssets(r.Context())
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToRetrieveAssets.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, assets)
}

func parseCreateTransaction(r *http.Request) (request.CreateTransactionRequest, error) {
	if !isForm(r) {
		return parseJSON[request.CreateTransactionRequest](r)
	}
	if err := parseForm(r); err != nil {
		return request.CreateTransactionRequest{}, err
	}

	f := newFormValues(r)
	req := request.CreateTransactionRequest{
		Ticker:       f.string("ticker"),
		Name:         f.string("name"),
		AssetType:    f.string("assetType"),
		Date:         f.string("date"),
		Type:         f.string("type"),
		Quantity:     f.float("quantity", 0),
		UnitPrice:    f.float("unitPrice", 0),
		Currency:     f.string("currency"),
		ExchangeRate: f.floatPtr("exchangeRate"),
		Fees:         f.float("fees", 0),
	}
	return req, f.err()
}

func parseUpdateTransaction(r *http.Request) (request.UpdateTransactionRequest, error) {
	if !isForm(r) {
		return parseJSON[request.UpdateTransactionRequest](r)
	}
	if err := parseForm(r); err != nil {
		return request.UpdateTransactionRequest{}, err
	}

	f := newFormValues(r)
	req := request.UpdateTransactionRequest{
		Ticker:       f.stringPtr("ticker"),
		Name:         f.stringPtr("name"),
		AssetType:    f.stringPtr("assetType"),
		Date:         f.stringPtr("date"),
		Type:         f.stringPtr("type"),
		Currency:     f.stringPtr("currency"),
		ExchangeRate: f.floatPtr("exchangeRate"),
	}
	if f.has("quantity") {
		v := f.float("quantity", 0)
		req.Quantity = &v
	}
	if f.has("unitPrice") {
		v := f.float("unitPrice", 0)
		req.UnitPrice = &v
	}
	if f.has("fees") {
		v := f.float("fees", 0)
		req.Fees = &v
	}
	return req, f.err()
}
