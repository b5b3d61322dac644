package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/budgetly/backend/internal/platform/debt"
)

// DebtTransactionRequest is the body of POST and PUT on a debt's ledger.
// On update an omitted description or date keeps the stored value.
type DebtTransactionRequest struct {
	Amount      Amount  `json:"amount"`
	Type        string  `json:"type"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
}

func (req DebtTransactionRequest) toInput() (debt.TransactionInput, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return debt.TransactionInput{}, err
	}
	return debt.TransactionInput{
		Amount:      req.Amount.Decimal,
		Kind:        debt.Kind(req.Type),
		Description: req.Description,
		Date:        date,
	}, nil
}

// DebtTransactionResponse represents a debt ledger entry
type DebtTransactionResponse struct {
	ID          int64           `json:"id"`
	DebtID      int64           `json:"debt_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// DebtTransactionsListResponse represents a debt's ledger
type DebtTransactionsListResponse struct {
	Transactions []DebtTransactionResponse `json:"transactions"`
}

func toDebtTransactionResponse(dt *debt.DebtTransaction) DebtTransactionResponse {
	return DebtTransactionResponse{
		ID:          dt.ID,
		DebtID:      dt.DebtID,
		Amount:      dt.Amount,
		Type:        string(dt.Kind),
		Description: dt.Description,
		Date:        dt.Date.Format(time.DateOnly),
		CreatedAt:   dt.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   dt.UpdatedAt.Format(time.RFC3339),
	}
}

// AddTransaction handles POST /debts/{id}/transactions
func (h *DebtHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req DebtTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	dt, err := h.debts.AddTransaction(r.Context(), ownerID, debtID, in)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toDebtTransactionResponse(dt))
}

// ListTransactions handles GET /debts/{id}/transactions
func (h *DebtHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	entries, err := h.debts.ListTransactions(r.Context(), ownerID, debtID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	resp := DebtTransactionsListResponse{Transactions: make([]DebtTransactionResponse, 0, len(entries))}
	for _, dt := range entries {
		resp.Transactions = append(resp.Transactions, toDebtTransactionResponse(dt))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// UpdateTransaction handles PUT /debts/{id}/transactions/{txId}
func (h *DebtHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	txID, ok := pathID(w, r, "txId")
	if !ok {
		return
	}

	var req DebtTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	dt, err := h.debts.UpdateTransaction(r.Context(), ownerID, debtID, txID, in)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toDebtTransactionResponse(dt))
}

// DeleteTransaction handles DELETE /debts/{id}/transactions/{txId}
func (h *DebtHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	txID, ok := pathID(w, r, "txId")
	if !ok {
		return
	}

	if err := h.debts.DeleteTransaction(r.Context(), ownerID, debtID, txID); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "debt transaction deleted"})
}
