package export

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/mtlprog/rebalancer/internal/domain"
)

const sheetHistory = "History"

// historyColumn is one data column of the History sheet: a label's share of the portfolio.
type historyColumn struct {
	dim   domain.Dimension
	label string
}

// historyColumns lists every category label, then every region label, after Date and Total Value.
func historyColumns() []historyColumn {
	var cols []historyColumn
	for _, dim := range []domain.Dimension{domain.DimensionCategory, domain.DimensionRegion} {
		for _, label := range dim.Labels() {
			cols = append(cols, historyColumn{dim: dim, label: label})
		}
	}
	return cols
}

// buildHistoryRows builds the header row and one data row for the History sheet.
// Labels absent from the breakdown are 0.
func buildHistoryRows(b domain.Breakdown, at time.Time) (header []any, data []any) {
	cols := historyColumns()

	header = append([]any{"Date", "Total Value"}, lo.Map(cols, func(c historyColumn, _ int) any {
		return fmt.Sprintf("%s %%", c.label)
	})...)

	data = append([]any{at.UTC().Format("02.01.2006"), b.TotalValue}, lo.Map(cols, func(c historyColumn, _ int) any {
		lv, _ := b.ByDimension(c.dim).Find(c.label)
		return lv.Pct
	})...)

	return header, data
}

// appendHistory writes the header if the sheet is new or empty, then appends one row for this run.
func (w *SheetsWriter) appendHistory(ctx context.Context, b domain.Breakdown) error {
	meta, err := w.ensureSheets(ctx, sheetHistory)
	if err != nil {
		return fmt.Errorf("ensuring %s sheet: %w", sheetHistory, err)
	}

	header, dataRow := buildHistoryRows(b, time.Now())

	existing, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, sheetHistory+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading %s header: %w", sheetHistory, err)
	}

	if len(existing.Values) == 0 {
		_, err = w.svc.Spreadsheets.Values.Update(
			w.spreadsheetID,
			sheetHistory+"!A1",
			&sheets.ValueRange{Values: [][]any{header}},
		).ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("writing %s header: %w", sheetHistory, err)
		}
	}

	_, err = w.svc.Spreadsheets.Values.Append(
		w.spreadsheetID,
		sheetHistory+"!A:A",
		&sheets.ValueRange{Values: [][]any{dataRow}},
	).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending %s row: %w", sheetHistory, err)
	}

	if err := w.applyHistoryFormatting(ctx, meta[sheetHistory], int64(len(header))); err != nil {
		return fmt.Errorf("formatting %s sheet: %w", sheetHistory, err)
	}
	return nil
}

// applyHistoryFormatting styles the header, freezes the date column and header row,
// and formats dates and totals.
func (w *SheetsWriter) applyHistoryFormatting(ctx context.Context, hist sheetMeta, totalCols int64) error {
	lightGreen := &sheets.Color{Red: 0.851, Green: 0.918, Blue: 0.827}

	reqs := []*sheets.Request{
		cellFormatReq(hist.id, 0, 1, 0, totalCols,
			&sheets.CellFormat{
				BackgroundColor:     lightGreen,
				TextFormat:          &sheets.TextFormat{Bold: true, FontSize: 9},
				HorizontalAlignment: "CENTER",
				VerticalAlignment:   "MIDDLE",
				WrapStrategy:        "WRAP",
			},
			"userEnteredFormat(backgroundColor,textFormat,horizontalAlignment,verticalAlignment,wrapStrategy)"),
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: hist.id,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount:    1,
						FrozenColumnCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount,gridProperties.frozenColumnCount",
			},
		},
		cellFormatReq(hist.id, 1, 10000, 0, 1,
			&sheets.CellFormat{NumberFormat: &sheets.NumberFormat{Type: "DATE", Pattern: "d.m.yyyy"}},
			"userEnteredFormat.numberFormat"),
		cellFormatReq(hist.id, 1, 10000, 1, 2,
			&sheets.CellFormat{NumberFormat: &sheets.NumberFormat{Type: "NUMBER", Pattern: "#,##0"}},
			"userEnteredFormat.numberFormat"),
	}

	for _, bid := range hist.bandingIDs {
		reqs = append(reqs, &sheets.Request{
			DeleteBanding: &sheets.DeleteBandingRequest{BandedRangeId: bid},
		})
	}

	_, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: reqs},
	).Context(ctx).Do()
	return err
}
