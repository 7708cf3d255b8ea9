package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/rebalancer/internal/domain"
)

// XLSXWriter renders the breakdown and trade plan as an Excel workbook.
type XLSXWriter struct{}

// Write renders the Breakdown, Holdings and Rebalance sheets to w.
func (XLSXWriter) Write(w io.Writer, b domain.Breakdown, plan domain.TradePlan) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9EAD3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	sheets := []struct {
		name  string
		rows  [][]any
		width float64
	}{
		{sheetBreakdown, breakdownRows(b), 18},
		{sheetHoldings, holdingsRows(b), 16},
		{sheetRebalance, rebalanceRows(plan), 16},
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return fmt.Errorf("renaming default sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", s.name, err)
		}

		if err := writeRows(f, s.name, s.rows); err != nil {
			return err
		}

		lastCol, err := excelize.ColumnNumberToName(len(s.rows[0]))
		if err != nil {
			return fmt.Errorf("resolving last column: %w", err)
		}
		if err := f.SetCellStyle(s.name, "A1", lastCol+"1", headerStyle); err != nil {
			return fmt.Errorf("styling %s header: %w", s.name, err)
		}
		if err := f.SetColWidth(s.name, "A", lastCol, s.width); err != nil {
			return fmt.Errorf("sizing %s columns: %w", s.name, err)
		}
		if err := f.SetPanes(s.name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("freezing %s header: %w", s.name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("resolving cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
