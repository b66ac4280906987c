package infra

import (
	"fmt"
	"io"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"

	"github.com/xuri/excelize/v2"
)

// exportColumnWidths follows dto.ExportColumns order.
var exportColumnWidths = []float64{15, 15, 15, 10, 15, 20, 10, 15, 30, 20, 15, 10, 10, 10, 15, 15, 15, 15}

// WriteExportXLSX writes the export rows as a single-sheet workbook with a bold
// header row.
func WriteExportXLSX(w io.Writer, sheet string, rows []dto.ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}

	header := make([]interface{}, len(dto.ExportColumns))
	for i, c := range dto.ExportColumns {
		header[i] = c
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, exportColumnWidths[i]); err != nil {
			return fmt.Errorf("xlsx: column width: %w", err)
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: header: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(dto.ExportColumns))
	if err := f.SetCellStyle(sheet, "A1", last+"1", bold); err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}

	for i, r := range rows {
		values := r.Values()
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("xlsx: row %d: %w", i+2, err)
		}
	}

	return f.Write(w)
}
