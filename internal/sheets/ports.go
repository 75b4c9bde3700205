// Package sheets defines the spreadsheet export port. Bills are mirrored
// one row per bill, keyed by bill id in the first column.
package sheets

import (
	"context"

	"billminder/internal/core"
)

// Header is the first row of the export sheet.
var Header = []string{"ID", "Name", "Amount", "Due Date", "Category", "Status", "Recurrence", "Version", "Updated"}

// BillExporter mirrors bills into an external sheet.
type BillExporter interface {
	// UpsertBill writes b to its row, appending a row when b is new.
	UpsertBill(ctx context.Context, b core.Bill) error
	// DeleteBill removes the row for id. Missing rows are not an error.
	DeleteBill(ctx context.Context, id int64) error
}

// Status is the human readable paid state shown in the sheet.
func Status(b core.Bill) string {
	if b.Paid {
		return "Paid"
	}
	return "Unpaid"
}
