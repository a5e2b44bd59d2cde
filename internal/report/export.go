package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet is one named grid in an exported workbook.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// WriteWorkbook writes sheets as an .xlsx workbook, in order, with a bold
// frozen header row on each.
func WriteWorkbook(w io.Writer, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to export")
	}
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.Name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return fmt.Errorf("add sheet %q: %w", sh.Name, err)
		}

		header := make([]any, len(sh.Header))
		for j, h := range sh.Header {
			header[j] = h
		}
		if err := f.SetSheetRow(sh.Name, "A1", &header); err != nil {
			return fmt.Errorf("sheet %q header: %w", sh.Name, err)
		}
		if len(sh.Header) > 0 {
			last, err := excelize.CoordinatesToCellName(len(sh.Header), 1)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sh.Name, "A1", last, bold); err != nil {
				return err
			}
			if err := f.SetPanes(sh.Name, &excelize.Panes{
				Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
			}); err != nil {
				return err
			}
		}

		for r, row := range sh.Rows {
			axis, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			cells := row
			if err := f.SetSheetRow(sh.Name, axis, &cells); err != nil {
				return fmt.Errorf("sheet %q row %d: %w", sh.Name, r+1, err)
			}
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
