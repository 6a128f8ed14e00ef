package export

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidthLandscape = 277.0
	rowHeight          = 7.0
	fontFamily         = "body"
)

//go:embed fonts/DejaVuSansCondensed.ttf
var defaultRegular []byte

//go:embed fonts/DejaVuSansCondensed-Bold.ttf
var defaultBold []byte

// PDFExporter renders tables into a landscape A4 document.
// Text is written with an embedded TrueType font in UTF-8 mode.
type PDFExporter struct {
	regular  []byte
	bold     []byte
	compress bool
}

// NewPDFExporter constructs a PDF exporter using the bundled DejaVu font.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{regular: defaultRegular, bold: defaultBold, compress: true}
}

// WithFont swaps in a TrueType font, e.g. one carrying Hangul glyphs.
// The same face is used for headers and body text.
func (e *PDFExporter) WithFont(ttf []byte) *PDFExporter {
	if len(ttf) == 0 {
		return e
	}
	e.regular = ttf
	e.bold = ttf
	return e
}

func (e *PDFExporter) newDocument() *gofpdf.Fpdf {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(e.compress)
	pdf.AddUTF8FontFromBytes(fontFamily, "", e.regular)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", e.bold)
	return pdf
}

// Render lays the table out with a repeated header row on every page.
func (e *PDFExporter) Render(t Table) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	pdf := e.newDocument()
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(false, 12)
	widths := columnWidths(t)
	_, pageHeight := pdf.GetPageSize()

	header := func() {
		pdf.SetFont(fontFamily, "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range t.Headers {
			pdf.CellFormat(widths[i], rowHeight+1, fit(pdf, h, widths[i]), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(fontFamily, "", 8)
	}

	pdf.AddPage()
	if t.Title != "" {
		pdf.SetFont(fontFamily, "B", 14)
		pdf.CellFormat(0, 10, t.Title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}
	header()

	for _, row := range t.Rows {
		if pdf.GetY()+rowHeight > pageHeight-12 {
			pdf.AddPage()
			header()
		}
		for i := range t.Headers {
			pdf.CellFormat(widths[i], rowHeight, fit(pdf, cell(row, i), widths[i]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(t Table) []float64 {
	widths := make([]float64, len(t.Headers))
	if len(t.Widths) == 0 {
		for i := range widths {
			widths[i] = pageWidthLandscape / float64(len(widths))
		}
		return widths
	}
	total := 0.0
	for _, w := range t.Widths {
		total += w
	}
	for i, w := range t.Widths {
		widths[i] = pageWidthLandscape * w / total
	}
	return widths
}

// fit shortens text that would overflow its cell, measured in the current font.
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
