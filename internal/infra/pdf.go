package infra

// pdf.go: scheme export rendered as a landscape A4 table using go-pdf/fpdf.
// Same rows and column order as the spreadsheet export.

import (
	"fmt"
	"io"

	"github.com/RatanSinghYadav/scheme-app-api/internal/dto"

	"github.com/go-pdf/fpdf"
)

// pdfColumns is the subset of export columns that fit a landscape page, with
// widths in mm.
var pdfColumns = []struct {
	title string
	width float64
}{
	{"Scheme", 28}, {"Start", 20}, {"End", 20}, {"Sales code", 24},
	{"Description", 40}, {"Code", 22}, {"Item name", 55}, {"Config", 18},
	{"Style", 16}, {"Tax code", 18}, {"Discount", 16},
}

func pdfCells(r dto.ExportRow) []string {
	return []string{
		r.SchemeCode, r.StartingDate, r.EndingDate, r.SalesCode,
		r.SalesDescription, r.Code, r.ItemName, r.ConfigID,
		r.Style, r.TaxChargeCode, r.LineDiscount.StringFixed(2),
	}
}

// WriteExportPDF renders rows as a paginated table with a repeated header.
func WriteExportPDF(w io.Writer, title string, rows []dto.ExportRow) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)

	header := func() {
		pdf.SetFont("Helvetica", "B", 7)
		pdf.SetFillColor(230, 230, 230)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, 6, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 7)
	}

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
		header()
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, r := range rows {
		for i, cell := range pdfCells(r) {
			c := pdfColumns[i]
			align := "L"
			if i == len(pdfColumns)-1 {
				align = "R"
			}
			pdf.CellFormat(c.width, 5, truncate(tr(cell), c.width), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(rows) == 0 {
		pdf.CellFormat(0, 6, "No rows", "", 1, "C", false, 0, "")
	}

	if pdf.Err() {
		return fmt.Errorf("pdf: %w", pdf.Error())
	}
	return pdf.Output(w)
}

// truncate keeps roughly what fits a cell of width mm at 7pt.
func truncate(s string, width float64) string {
	max := int(width / 1.5)
	if len(s) <= max || max < 2 {
		return s
	}
	return s[:max-1] + "."
}
