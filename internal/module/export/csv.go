package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/budgetly/backend/internal/platform/debt"
)

// LedgerReader provides the entries of a debt's ledger
type LedgerReader interface {
	ListTransactions(ctx context.Context, ownerID, debtID int64) ([]*debt.DebtTransaction, error)
}

// Row is one CSV line of a debt ledger export
type Row struct {
	ID          int64  `csv:"id"`
	Date        string `csv:"date"`
	Kind        string `csv:"kind"`
	Amount      string `csv:"amount"`
	Description string `csv:"description"`
	CreatedAt   string `csv:"created_at"`
}

// Exporter writes debt ledgers as CSV
type Exporter struct {
	ledger LedgerReader
}

// NewExporter creates a new CSV exporter
func NewExporter(ledger LedgerReader) *Exporter {
	return &Exporter{ledger: ledger}
}

// WriteDebtLedger writes the debt's ledger, newest first, to w. A debt with no
// entries produces the header line only.
func (e *Exporter) WriteDebtLedger(ctx context.Context, ownerID, debtID int64, w io.Writer) error {
	entries, err := e.ledger.ListTransactions(ctx, ownerID, debtID)
	if err != nil {
		return err
	}

	if err := gocsv.Marshal(Rows(entries), w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// Rows converts ledger entries to CSV rows. Amounts are plain decimals so the
// file round-trips through spreadsheets without locale surprises.
func Rows(entries []*debt.DebtTransaction) []*Row {
	rows := make([]*Row, 0, len(entries))
	for _, dt := range entries {
		rows = append(rows, &Row{
			ID:          dt.ID,
			Date:        dt.Date.Format(time.DateOnly),
			Kind:        string(dt.Kind),
			Amount:      dt.Amount.String(),
			Description: dt.Description,
			CreatedAt:   dt.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}
