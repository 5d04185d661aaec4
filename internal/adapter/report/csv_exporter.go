package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"retail-banking-core/internal/core/domain"

	"github.com/google/uuid"
)

// ContentTypeCSV is returned alongside every exported document.
const ContentTypeCSV = "text/csv; charset=utf-8"

var csvHeader = []string{"Date", "Type", "Amount", "Description", "Status", "Sender Account", "Receiver Account"}

// CSVExporter implements ports.ReportExporter. Rows keep the order they are
// given in; amounts are written with two decimals.
type CSVExporter struct{}

// NewCSVExporter creates a new CSVExporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export writes a title row with the period, the column header and one row
// per transaction.
func (e *CSVExporter) Export(ctx context.Context, txns []domain.Transaction, from, to time.Time) ([]byte, string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	title := []string{"Statement", from.UTC().Format(time.DateOnly), to.UTC().Format(time.DateOnly), "", "", "", ""}
	if err := w.Write(title); err != nil {
		return nil, "", fmt.Errorf("write title: %w", err)
	}
	if err := w.Write(csvHeader); err != nil {
		return nil, "", fmt.Errorf("write header: %w", err)
	}

	for i := range txns {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		t := &txns[i]
		row := []string{
			t.CreatedAt.UTC().Format(time.DateTime),
			string(t.Type),
			t.Amount.StringFixed(2),
			t.Description,
			string(t.Status),
			optionalID(t.SenderAccountID),
			optionalID(t.ReceiverAccountID),
		}
		if err := w.Write(row); err != nil {
			return nil, "", fmt.Errorf("write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), ContentTypeCSV, nil
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
