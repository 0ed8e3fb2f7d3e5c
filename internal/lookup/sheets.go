package lookup

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"reportflow/internal/errors"
)

// SheetsOptions locates a two-column entity,category range in a Google spreadsheet
type SheetsOptions struct {
	SpreadsheetID string
	Range         string
	APIKey        string
	// Endpoint overrides the Sheets API base URL
	Endpoint string
}

// LoadSheets fetches the range once and returns it as an in-memory lookup
func LoadSheets(ctx context.Context, opts SheetsOptions) (*Map, error) {
	if opts.SpreadsheetID == "" {
		return nil, errors.NewConfigError("spreadsheet id is required", nil)
	}

	var clientOpts []option.ClientOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	srv, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, errors.NewNetworkError("failed to create sheets client", err)
	}

	resp, err := srv.Spreadsheets.Values.Get(opts.SpreadsheetID, opts.Range).Context(ctx).Do()
	if err != nil {
		return nil, errors.NewNetworkError("failed to read lookup range", err).
			WithContext("spreadsheet_id", opts.SpreadsheetID).
			WithContext("range", opts.Range)
	}

	records := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		rec := make([]string, len(row))
		for i, cell := range row {
			rec[i] = fmt.Sprint(cell)
		}
		records = append(records, rec)
	}

	return fromRecords("sheets:"+opts.SpreadsheetID, records)
}
