package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"billminder/internal/core"
	"billminder/internal/sheets"
)

// billRow renders b in the column order of sheets.Header.
func billRow(b core.Bill) []any {
	recurrence := string(b.Recurrence)
	if recurrence == "" {
		recurrence = "none"
	}
	return []any{
		b.ID,
		b.Name,
		b.Amount.String(),
		b.DueDate.String(),
		string(b.Category),
		sheets.Status(b),
		recurrence,
		b.Version,
		b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func headerRow() []any {
	out := make([]any, len(sheets.Header))
	for i, h := range sheets.Header {
		out[i] = h
	}
	return out
}

// findRow returns the 1-based sheet row holding id in column A, or 0.
func findRow(values [][]any, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i + 1
		}
	}
	return 0
}

// nextRow returns the first row after the used range of column A.
func nextRow(values [][]any) int {
	return len(values) + 1
}

func lastColumn() string {
	return string(rune('A' + len(sheets.Header) - 1))
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", sheet, row, lastColumn(), row)
}
