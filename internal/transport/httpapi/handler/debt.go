package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/budgetly/backend/internal/platform/debt"
	"github.com/budgetly/backend/pkg/money"
)

// DebtService is the debt and debt ledger API the handlers drive
type DebtService interface {
	CreateDebt(ctx context.Context, ownerID int64, in debt.DebtInput) (*debt.Debt, error)
	GetDebt(ctx context.Context, ownerID, debtID int64) (*debt.Debt, error)
	ListDebts(ctx context.Context, ownerID int64) ([]*debt.Summary, error)
	UpdateDebt(ctx context.Context, ownerID, debtID int64, in debt.DebtInput) (*debt.Debt, error)
	DeleteDebt(ctx context.Context, ownerID, debtID int64) error

	AddTransaction(ctx context.Context, ownerID, debtID int64, in debt.TransactionInput) (*debt.DebtTransaction, error)
	UpdateTransaction(ctx context.Context, ownerID, debtID, txID int64, in debt.TransactionInput) (*debt.DebtTransaction, error)
	DeleteTransaction(ctx context.Context, ownerID, debtID, txID int64) error
	ListTransactions(ctx context.Context, ownerID, debtID int64) ([]*debt.DebtTransaction, error)
	GetRemainingAmount(ctx context.Context, ownerID, debtID int64) (decimal.Decimal, error)
}

// LedgerExporter writes a debt's ledger as CSV
type LedgerExporter interface {
	WriteDebtLedger(ctx context.Context, ownerID, debtID int64, w io.Writer) error
}

// DebtHandler handles debt and debt ledger HTTP requests
type DebtHandler struct {
	debts    DebtService
	exporter LedgerExporter
}

// NewDebtHandler creates a new debt handler
func NewDebtHandler(debts DebtService, exporter LedgerExporter) *DebtHandler {
	return &DebtHandler{debts: debts, exporter: exporter}
}

// DebtRequest is the body of POST /debts and PUT /debts/{id}
type DebtRequest struct {
	Name         string           `json:"name"`
	Amount       Amount           `json:"amount"`
	InterestRate *decimal.Decimal `json:"interest_rate,omitempty"`
	DueDate      *string          `json:"due_date,omitempty"`
	Description  string           `json:"description"`
}

func (req DebtRequest) toInput() (debt.DebtInput, error) {
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return debt.DebtInput{}, err
	}
	return debt.DebtInput{
		Name:         req.Name,
		Amount:       req.Amount.Decimal,
		InterestRate: req.InterestRate,
		DueDate:      due,
		Description:  req.Description,
	}, nil
}

// DebtResponse represents a debt. Balances are present when known.
type DebtResponse struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Amount          decimal.Decimal  `json:"amount"`
	InterestRate    *decimal.Decimal `json:"interest_rate,omitempty"`
	DueDate         *string          `json:"due_date,omitempty"`
	Description     string           `json:"description"`
	PaidAmount      *decimal.Decimal `json:"paid_amount,omitempty"`
	RemainingAmount *decimal.Decimal `json:"remaining_amount,omitempty"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
}

// DebtsListResponse represents the response for listing debts
type DebtsListResponse struct {
	Debts []DebtResponse `json:"debts"`
}

// RemainingResponse is the body of GET /debts/{id}/remaining
type RemainingResponse struct {
	DebtID          int64           `json:"debt_id"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Formatted       string          `json:"formatted"`
}

func toDebtResponse(d *debt.Debt) DebtResponse {
	return DebtResponse{
		ID:           d.ID,
		Name:         d.Name,
		Amount:       d.Amount,
		InterestRate: d.InterestRate,
		DueDate:      formatDate(d.DueDate),
		Description:  d.Description,
		CreatedAt:    d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    d.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateDebt handles POST /debts
func (h *DebtHandler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req DebtRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	d, err := h.debts.CreateDebt(r.Context(), ownerID, in)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toDebtResponse(d))
}

// ListDebts handles GET /debts
func (h *DebtHandler) ListDebts(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	summaries, err := h.debts.ListDebts(r.Context(), ownerID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	resp := DebtsListResponse{Debts: make([]DebtResponse, 0, len(summaries))}
	for _, s := range summaries {
		item := toDebtResponse(&s.Debt)
		paid, remaining := s.PaidAmount, s.RemainingAmount
		item.PaidAmount = &paid
		item.RemainingAmount = &remaining
		resp.Debts = append(resp.Debts, item)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// GetDebt handles GET /debts/{id}
func (h *DebtHandler) GetDebt(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	d, err := h.debts.GetDebt(r.Context(), ownerID, debtID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	remaining, err := h.debts.GetRemainingAmount(r.Context(), ownerID, debtID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	resp := toDebtResponse(d)
	paid := d.Amount.Sub(remaining)
	resp.PaidAmount = &paid
	resp.RemainingAmount = &remaining
	respondWithJSON(w, http.StatusOK, resp)
}

// UpdateDebt handles PUT /debts/{id}
func (h *DebtHandler) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req DebtRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	d, err := h.debts.UpdateDebt(r.Context(), ownerID, debtID, in)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toDebtResponse(d))
}

// DeleteDebt handles DELETE /debts/{id}
func (h *DebtHandler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.debts.DeleteDebt(r.Context(), ownerID, debtID); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "debt deleted"})
}

// GetRemaining handles GET /debts/{id}/remaining
func (h *DebtHandler) GetRemaining(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	remaining, err := h.debts.GetRemainingAmount(r.Context(), ownerID, debtID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, RemainingResponse{
		DebtID:          debtID,
		RemainingAmount: remaining,
		Formatted:       money.Format(remaining),
	})
}

// ExportTransactions handles GET /debts/{id}/transactions/export
func (h *DebtHandler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.WriteDebtLedger(r.Context(), ownerID, debtID, &buf); err != nil {
		respondWithAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="debt-%d-transactions.csv"`, debtID))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
