// Package export renders a user's transaction history as CSV for download.
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"finbot/internal/logging"
	"finbot/internal/models"
)

// TransactionLister is the read capability the exporter needs.
type TransactionLister interface {
	ListTransactions(ctx context.Context, userID int64) ([]models.TransactionRecord, error)
}

// row is one CSV line of the export.
type row struct {
	Date        string `csv:"Date"`
	Type        string `csv:"Type"`
	Category    string `csv:"Category"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
}

// Exporter writes transaction history as CSV.
type Exporter struct {
	lister TransactionLister
	logger logging.Logger
}

// New creates an exporter.
func New(lister TransactionLister, logger logging.Logger) *Exporter {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Exporter{lister: lister, logger: logger}
}

// WriteCSV streams the user's full history to w. An empty history still
// produces the header line.
func (e *Exporter) WriteCSV(ctx context.Context, userID int64, w io.Writer) error {
	records, err := e.lister.ListTransactions(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}

	rows := make([]row, 0, len(records))
	for _, record := range records {
		rows = append(rows, row{
			Date:        record.CreatedAt.UTC().Format(time.DateOnly),
			Type:        record.Kind,
			Category:    record.Category,
			Description: record.Description,
			Amount:      record.Amount.StringFixed(2),
		})
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	e.logger.WithFields(
		logging.Field{Key: logging.FieldUserID, Value: userID},
		logging.Field{Key: logging.FieldCount, Value: len(rows)},
	).Info("Exported transaction history")
	return nil
}
