package report

import (
	"io"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth   = 190.0 // A4 minus default margins, mm
	rowHeight   = 5.0
	cellPadding = 2.0
)

// columnWidths fits every column to its widest cell, then spreads what is left
// of the page over the columns. Tables wider than the page are scaled down.
func columnWidths(pdf *gofpdf.Fpdf, t Table) []float64 {
	widths := make([]float64, len(t.Header))
	pdf.SetFont("Helvetica", "B", 8)
	for i, h := range t.Header {
		widths[i] = pdf.GetStringWidth(h) + cellPadding
	}
	pdf.SetFont("Courier", "", 8)
	for _, row := range t.Rows {
		for i, cell := range row {
			widths[i] = max(widths[i], pdf.GetStringWidth(cell)+cellPadding)
		}
	}

	total := 0.0
	for _, w := range widths {
		total += w
	}
	if total > pageWidth {
		for i := range widths {
			widths[i] *= pageWidth / total
		}
		return widths
	}
	extra := (pageWidth - total) / float64(len(widths))
	for i := range widths {
		widths[i] += extra
	}
	return widths
}

// WritePDF renders the same tables as WriteMarkdown, one section per table.
func WritePDF(w io.Writer, title string, tables []Table) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)

	for _, t := range tables {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, t.Title)
		pdf.Ln(9)

		if len(t.Rows) == 0 {
			pdf.SetFont("Helvetica", "", 9)
			pdf.Cell(0, rowHeight, "No data.")
			pdf.Ln(rowHeight + 4)
			continue
		}

		widths := columnWidths(pdf, t)
		pdf.SetFont("Helvetica", "B", 8)
		for i, h := range t.Header {
			pdf.CellFormat(widths[i], rowHeight+1, h, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Courier", "", 8)
		for _, row := range t.Rows {
			for i, cell := range row {
				pdf.CellFormat(widths[i], rowHeight, cell, "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	return pdf.Output(w)
}
