package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "facturas/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Libro de Registros"); code prefixes year.
	sheetBase string
}

// Ensure interface conformance
var _ ports.LedgerAppender = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_CREDENTIALS_JSON, GOOGLE_CREDENTIALS_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Libro de Registros").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetBase := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetBase == "" {
		sheetBase = "Libro de Registros"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsInline := strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_JSON"))
	credentialsFile := strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_FILE"))
	if credentialsInline == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case credentialsInline != "":
		credentialsJSON = []byte(credentialsInline)
	case credentialsFile != "":
		credentialsJSON, err = os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON, GOOGLE_CREDENTIALS_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// Append writes one ledger row to the year sheet and returns its range
// reference.
func (c *Client) Append(ctx context.Context, row ports.LedgerRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if row.ID == "" {
		return "", errors.New("ledger row without id")
	}

	sheetName := c.ledgerSheetName(row.Date)

	// Find the next empty row by getting the sheet dimensions first
	rng := fmt.Sprintf("%s!A:A", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", sheetName, err)
	}
	nextRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d:J%d", sheetName, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{rowValues(row)}}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s in sheet %s: %w", dataRange, sheetName, err)
	}

	ref := fmt.Sprintf("%s!A%d:J%d", sheetName, nextRow, nextRow)
	slog.InfoContext(ctx, "Ledger row appended",
		"kind", row.Kind,
		"id", row.ID,
		"sheets_ref", ref)
	return ref, nil
}

// ledgerSheetName derives the per-year sheet name from the row date
// ("2025-05-10" lands on "2025 Libro de Registros").
func (c *Client) ledgerSheetName(date string) string {
	if len(date) >= 4 {
		return date[:4] + " " + c.sheetBase
	}
	return c.sheetBase
}

// rowValues flattens a ledger row into the spreadsheet column order:
// date, kind, id, client, description, category, base, VAT, IRPF, total.
// Amounts are written as euros so the sheet can sum them natively.
func rowValues(row ports.LedgerRow) []any {
	return []any{
		row.Date,
		string(row.Kind),
		row.ID,
		row.ClientID,
		row.Description,
		row.Category,
		centsToEuros(row.BaseCents),
		centsToEuros(row.VATCents),
		centsToEuros(row.IRPFCents),
		centsToEuros(row.TotalCents),
	}
}

func centsToEuros(cents int64) float64 {
	return float64(cents) / 100.0
}
