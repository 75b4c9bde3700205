// Package google exports bills to a Google Sheet using a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"billminder/internal/core"
	"billminder/internal/log"
	ports "billminder/internal/sheets"
)

var _ ports.BillExporter = (*Client)(nil)

type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger

	// serialises read-then-write sequences against the sheet
	mu sync.Mutex
}

// New creates a Sheets client authenticated with the configured service
// account credentials.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.Discard()
	}

	credentials, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Bills"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheet:         sheet,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

func newWithService(svc *gsheet.Service, spreadsheetID, sheet string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet, logger: log.Discard()}
}

func (c *Client) idColumn(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) writeRow(ctx context.Context, row int, values []any) error {
	rng := rowRange(c.sheet, row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) UpsertBill(ctx context.Context, b core.Bill) error {
	if b.ID <= 0 {
		return fmt.Errorf("upsert bill: invalid id %d", b.ID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.idColumn(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		if err := c.writeRow(ctx, 1, headerRow()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		ids = [][]any{headerRow()[:1]}
	}

	row := findRow(ids, b.ID)
	if row == 0 {
		row = nextRow(ids)
	}
	if err := c.writeRow(ctx, row, billRow(b)); err != nil {
		return err
	}

	c.logger.DebugContext(ctx, "Bill exported",
		log.FieldBillID, b.ID,
		log.FieldVersion, b.Version,
		"row", row)
	return nil
}

// DeleteBill clears the bill's row; other bills keep their rows.
func (c *Client) DeleteBill(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.idColumn(ctx)
	if err != nil {
		return err
	}
	row := findRow(ids, id)
	if row == 0 {
		c.logger.DebugContext(ctx, "Bill not in sheet, nothing to delete", log.FieldBillID, id)
		return nil
	}

	rng := rowRange(c.sheet, row)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	c.logger.DebugContext(ctx, "Bill removed from sheet", log.FieldBillID, id, "row", row)
	return nil
}
