// Package sheets implements the Spreadsheet port on the Google Sheets
// API. The schedule worksheet is read and rewritten in full; no
// row-level patches are issued.
package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/agoraslabs/agoras-cli/internal/core/ports/driven"
)

// readRange covers the nine schedule columns.
const readRange = "A:I"

// Ensure Worksheet implements the interface.
var _ driven.Spreadsheet = (*Worksheet)(nil)

// Worksheet is a Google Sheets-backed spreadsheet.
type Worksheet struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

// NewWorksheet creates a worksheet client for the given spreadsheet,
// authenticated through the provided token source.
func NewWorksheet(ctx context.Context, ts oauth2.TokenSource, spreadsheetID string) (*Worksheet, error) {
	svc, err := sheetsapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &Worksheet{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// NewWorksheetWithService creates a worksheet client around an existing
// service. Used by tests with a stub HTTP client.
func NewWorksheetWithService(svc *sheetsapi.Service, spreadsheetID string) *Worksheet {
	return &Worksheet{svc: svc, spreadsheetID: spreadsheetID}
}

// ReadAll returns every row of the worksheet. Row 1 is data, not a
// header. Cells are returned as strings; short rows keep their
// original length.
func (w *Worksheet) ReadAll(ctx context.Context) ([][]string, error) {
	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", w.spreadsheetID, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReplaceAll overwrites the entire worksheet contents with rows in one
// write. This is the point at which schedule state transitions become
// durable.
func (w *Worksheet) ReplaceAll(ctx context.Context, rows [][]string) error {
	if _, err := w.svc.Spreadsheets.Values.Clear(
		w.spreadsheetID, readRange, &sheetsapi.ClearValuesRequest{},
	).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clearing sheet %s: %w", w.spreadsheetID, err)
	}

	// An update with no values is rejected by the API; the clear alone
	// already left the sheet empty.
	if len(rows) == 0 {
		return nil
	}

	vr := &sheetsapi.ValueRange{Values: toValues(rows)}
	if _, err := w.svc.Spreadsheets.Values.Update(
		w.spreadsheetID, "A1", vr,
	).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("writing sheet %s: %w", w.spreadsheetID, err)
	}
	return nil
}

// Append adds rows after the current contents.
func (w *Worksheet) Append(ctx context.Context, rows [][]string) error {
	vr := &sheetsapi.ValueRange{Values: toValues(rows)}
	if _, err := w.svc.Spreadsheets.Values.Append(
		w.spreadsheetID, readRange, vr,
	).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do(); err != nil {
		return fmt.Errorf("appending to sheet %s: %w", w.spreadsheetID, err)
	}
	return nil
}

func toValues(rows [][]string) [][]any {
	values := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}
	return values
}
