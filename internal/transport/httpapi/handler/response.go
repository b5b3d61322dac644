package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/budgetly/backend/internal/platform/owner"
	apperrors "github.com/budgetly/backend/internal/shared/errors"
	"github.com/budgetly/backend/pkg/money"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// MessageResponse acknowledges a request that has no resource to return
type MessageResponse struct {
	Message string `json:"message"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithAppError maps an application error to its HTTP status. Store and
// internal failures only expose their message, never the wrapped cause.
func respondWithAppError(w http.ResponseWriter, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		respondWithJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  apperrors.ErrCodeInternal,
		})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case apperrors.ErrCodeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.ErrCodeUnavailable:
		status = http.StatusServiceUnavailable
	}

	respondWithJSON(w, status, ErrorResponse{Error: appErr.Message, Code: appErr.Code})
}

// requireOwner returns the owner set by the identity middleware, answering 401 when absent
func requireOwner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := owner.FromContext(r.Context())
	if !ok {
		respondWithAppError(w, apperrors.Unauthorized("unauthorized"))
		return 0, false
	}
	return id, true
}

// pathID parses a positive integer URL parameter, answering 400 when malformed
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondWithAppError(w, apperrors.Validation("invalid "+name))
		return 0, false
	}
	return id, true
}

// parseDate parses an optional YYYY-MM-DD value
func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return nil, apperrors.Validation(field + " must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithAppError(w, apperrors.Validation("invalid request body"))
		return false
	}
	return true
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

// Amount is a request amount. It accepts a JSON number or a string, with
// optional thousands separators ("1,500,000").
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	d, err := money.Parse(s)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}
