package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/api/response"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/logging"
	"github.com/ndewijer/Investment-Portfolio-Tracker/internal/validation"
)

const maxFormMemory = 1 << 20

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logrus.WithError(err).Error("failed to encode JSON")
		}
	}
}

// parseJSON decodes the request body into T. Unknown fields are rejected.
func parseJSON[T any](r *http.Request) (T, error) {
	var req T

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid JSON: %w", err)
	}
	return req, nil
}

// parseOptionalJSON is parseJSON for endpoints whose body may be empty.
func parseOptionalJSON[T any](r *http.Request) (T, error) {
	var req T

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, fmt.Errorf("invalid JSON: %w", err)
	}
	return req, nil
}

func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data")
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxFormMemory)
	}
	return r.ParseForm()
}

// formValues reads typed form fields and collects every parse failure as a field error.
type formValues struct {
	r      *http.Request
	errors map[string]string
}

func newFormValues(r *http.Request) *formValues {
	return &formValues{r: r, errors: make(map[string]string)}
}

func (f *formValues) has(key string) bool {
	_, ok := f.r.PostForm[key]
	return ok
}

func (f *formValues) string(key string) string {
	return strings.TrimSpace(f.r.PostForm.Get(key))
}

func (f *formValues) stringPtr(key string) *string {
	if !f.has(key) {
		return nil
	}
	v := f.string(key)
	return &v
}

// float parses a required number; an empty value yields def.
func (f *formValues) float(key string, def float64) float64 {
	v := f.string(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		f.errors[key] = key + " must be a number"
		return def
	}
	return n
}

// floatPtr parses an optional number; absent or empty yields nil.
func (f *formValues) floatPtr(key string) *float64 {
	if f.string(key) == "" {
		return nil
	}
	n := f.float(key, 0)
	return &n
}

func (f *formValues) err() error {
	if len(f.errors) > 0 {
		return &validation.Error{Fields: f.errors}
	}
	return nil
}

// respondParseError reports an unreadable request body as 400. Form fields that
// failed to parse are reported per field.
func respondParseError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		respondServiceError(w, r, err, "invalid request body")
		return
	}
	response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
}

// respondServiceError maps a service error onto an HTTP status. Unexpected errors are
// logged and reported as 500 with message.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var verr *validation.Error

	switch {
	case errors.As(err, &verr):
		response.RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, apperrors.ErrTransactionNotFound),
		errors.Is(err, apperrors.ErrAssetNotFound),
		errors.Is(err, apperrors.ErrBenchmarkNotFound),
		errors.Is(err, apperrors.ErrSnapshotNotFound):
		response.RespondError(w, http.StatusNotFound, "not found", err.Error())
	case errors.Is(err, apperrors.ErrExchangeRateRequired),
		errors.Is(err, apperrors.ErrUnknownIndex),
		errors.Is(err, apperrors.ErrInvalidDateRange),
		errors.Is(err, validation.ErrInvalidDateRange),
		errors.Is(err, apperrors.ErrInvalidTransactionID),
		errors.Is(err, validation.ErrInvalidUUID):
		response.RespondError(w, http.StatusBadRequest, "invalid request", err.Error())
	default:
		logging.FromContext(r.Context(), logrus.StandardLogger()).WithError(err).Error(message)
		response.RespondError(w, http.StatusInternalServerError, message, err.Error())
	}
}
