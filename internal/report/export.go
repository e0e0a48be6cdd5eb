package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/supertypeai/sectors-kb/pkg/models"
)

const defaultSheet = "Sheet1"

// WriteWorkbook writes every table of st to w as an XLSX workbook, one sheet
// per table with a bold header row.
func WriteWorkbook(w io.Writer, st *models.SectorTables) error {
	if st == nil {
		return fmt.Errorf("no tables to export")
	}
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for i, t := range AllTables(st) {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Name); err != nil {
				return fmt.Errorf("renaming sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", t.Name, err)
		}
		if err := writeSheet(f, t, header); err != nil {
			return fmt.Errorf("writing sheet %s: %w", t.Name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, t Table, headerStyle int) error {
	if err := f.SetSheetRow(t.Name, "A1", &t.Columns); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(t.Columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.Name, "A1", last+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(t.Name, "A", last, 22); err != nil {
		return err
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(t.Name, cell, &r); err != nil {
			return err
		}
	}
	return nil
}
