package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/budgetly/backend/internal/platform/transaction"
	apperrors "github.com/budgetly/backend/internal/shared/errors"
	"github.com/budgetly/backend/pkg/money"
)

// TransactionService reads the general income/expense ledger
type TransactionService interface {
	List(ctx context.Context, ownerID int64, filters transaction.Filters) ([]*transaction.Transaction, error)
	Get(ctx context.Context, ownerID, id int64) (*transaction.Transaction, error)
}

// TransactionHandler handles general ledger HTTP requests
type TransactionHandler struct {
	txService TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(txService TransactionService) *TransactionHandler {
	return &TransactionHandler{txService: txService}
}

// TransactionResponse represents a general ledger row
type TransactionResponse struct {
	ID                int64           `json:"id"`
	Amount            decimal.Decimal `json:"amount"`
	AmountDisplay     string          `json:"amount_display"`
	Type              string          `json:"type"`
	CategoryID        int64           `json:"category_id"`
	CategoryName      string          `json:"category_name"`
	Description       string          `json:"description"`
	Date              string          `json:"date"`
	DebtTransactionID *int64          `json:"debt_transaction_id,omitempty"`
	CreatedAt         string          `json:"created_at"`
}

// TransactionsListResponse represents a page of ledger rows
type TransactionsListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

func toTransactionResponse(tx *transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                tx.ID,
		Amount:            tx.Amount,
		AmountDisplay:     money.Format(tx.Amount),
		Type:              string(tx.Kind),
		CategoryID:        tx.CategoryID,
		CategoryName:      tx.CategoryName,
		Description:       tx.Description,
		Date:              tx.Date.Format(time.DateOnly),
		DebtTransactionID: tx.DebtTransactionID,
		CreatedAt:         tx.CreatedAt.Format(time.RFC3339),
	}
}

// GetTransactions handles GET /transactions?type=&from=&to=&limit=&offset=
func (h *TransactionHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	filters, err := parseFilters(r)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	txs, err := h.txService.List(r.Context(), ownerID, filters)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	resp := TransactionsListResponse{Transactions: make([]TransactionResponse, 0, len(txs))}
	for _, tx := range txs {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(tx))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// GetTransaction handles GET /transactions/{id}
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	tx, err := h.txService.Get(r.Context(), ownerID, id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func parseFilters(r *http.Request) (transaction.Filters, error) {
	query := r.URL.Query()
	var filters transaction.Filters

	if v := query.Get("type"); v != "" {
		k := transaction.Kind(v)
		filters.Kind = &k
	}

	var err error
	from, to := query.Get("from"), query.Get("to")
	if filters.From, err = parseDate("from", &from); err != nil {
		return filters, err
	}
	if filters.To, err = parseDate("to", &to); err != nil {
		return filters, err
	}

	if v := query.Get("limit"); v != "" {
		if filters.Limit, err = strconv.Atoi(v); err != nil {
			return filters, apperrors.Validation("limit must be an integer")
		}
	}
	if v := query.Get("offset"); v != "" {
		if filters.Offset, err = strconv.Atoi(v); err != nil {
			return filters, apperrors.Validation("offset must be an integer")
		}
	}

	return filters, nil
}
