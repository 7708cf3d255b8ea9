package export

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/mtlprog/rebalancer/internal/domain"
)

// SheetsWriter implements SheetWriter using the Google Sheets API.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(
		ctx,
		[]byte(credentialsJSON),
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

// Write ensures required sheets exist, clears and rewrites the report sheets,
// then appends the day's row to the History sheet.
func (w *SheetsWriter) Write(ctx context.Context, b domain.Breakdown, plan domain.TradePlan) error {
	if _, err := w.ensureSheets(ctx, sheetBreakdown, sheetHoldings, sheetRebalance); err != nil {
		return err
	}

	_, err := w.svc.Spreadsheets.Values.BatchClear(
		w.spreadsheetID,
		&sheets.BatchClearValuesRequest{
			Ranges: []string{sheetBreakdown + "!A:D", sheetHoldings + "!A:H", sheetRebalance + "!A:I"},
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing sheets: %w", err)
	}

	_, err = w.svc.Spreadsheets.Values.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateValuesRequest{
			ValueInputOption: "USER_ENTERED",
			Data: []*sheets.ValueRange{
				{Range: sheetBreakdown + "!A1", Values: breakdownRows(b)},
				{Range: sheetHoldings + "!A1", Values: holdingsRows(b)},
				{Range: sheetRebalance + "!A1", Values: rebalanceRows(plan)},
			},
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing sheets: %w", err)
	}

	return w.appendHistory(ctx, b)
}

type sheetMeta struct {
	id         int64
	bandingIDs []int64
}

// ensureSheets creates any of the named sheets that do not already exist and
// returns the metadata of all named sheets.
func (w *SheetsWriter) ensureSheets(ctx context.Context, names ...string) (map[string]sheetMeta, error) {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	meta := make(map[string]sheetMeta, len(spreadsheet.Sheets))
	for _, s := range spreadsheet.Sheets {
		m := sheetMeta{id: s.Properties.SheetId}
		for _, br := range s.BandedRanges {
			m.bandingIDs = append(m.bandingIDs, br.BandedRangeId)
		}
		meta[s.Properties.Title] = m
	}

	var requests []*sheets.Request
	for _, name := range names {
		if _, ok := meta[name]; !ok {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			})
		}
	}

	if len(requests) == 0 {
		return meta, nil
	}

	resp, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests},
	).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating sheets: %w", err)
	}

	for _, r := range resp.Replies {
		if r.AddSheet != nil && r.AddSheet.Properties != nil {
			meta[r.AddSheet.Properties.Title] = sheetMeta{id: r.AddSheet.Properties.SheetId}
		}
	}
	return meta, nil
}

func cellFormatReq(sheetID, startRow, endRow, startCol, endCol int64, format *sheets.CellFormat, fields string) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    startRow,
				EndRowIndex:      endRow,
				StartColumnIndex: startCol,
				EndColumnIndex:   endCol,
			},
			Cell:   &sheets.CellData{UserEnteredFormat: format},
			Fields: fields,
		},
	}
}
