package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Card is a one-page document made of labelled header fields followed by a
// table, used for printable qualification cards.
type Card struct {
	Title  string
	Fields [][2]string
	Table  Dataset
}

// PDFExporter renders cards into PDF bytes.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with a title, key/value header and table body.
func (e *PDFExporter) Render(card Card) ([]byte, error) {
	if len(card.Table.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if card.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(card.Title)), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	for _, field := range card.Fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 7, tr(field[0]), "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, tr(field[1]), "", 1, "", false, 0, "")
	}
	if len(card.Fields) > 0 {
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(card.Table.Headers))
	for _, header := range card.Table.Headers {
		pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range card.Table.Rows {
		for _, header := range card.Table.Headers {
			pdf.CellFormat(colWidth, 7, tr(row[header]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
