package export

import (
	"bytes"

	"github.com/jung-kurt/gofpdf"

	"github.com/confplan/confplan/pkg/errors"
)

// columnWeights widens the free-text programme columns relative to the
// short code columns. Headers not listed get weight 1.
var columnWeights = map[string]float64{
	"title":   3.2,
	"authors": 2.4,
	"topic":   1.8,
	"chair":   1.3,
	"room":    1.1,
}

// PDFExporter renders a dataset as a landscape programme table. Rows that
// carry a "day" column are grouped under per-day headings the way the
// printed programme booklet lays them out.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates the PDF document with an optional title.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, errors.New(errors.ErrValidation, "pdf export needs at least one column")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	// Accented author names arrive as UTF-8; core fonts want cp1252.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 15)
		pdf.CellFormat(0, 9, tr(title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	widths := columnWidths(pdf, data.Headers)
	pdf.SetFillColor(235, 235, 235)

	lastDay := ""
	headerDrawn := false
	fill := false
	for _, row := range data.Rows {
		if day := row["day"]; day != "" && day != lastDay {
			if lastDay != "" {
				pdf.Ln(3)
			}
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 7, "Day "+day, "", 1, "L", false, 0, "")
			lastDay = day
			headerDrawn = false
			fill = false
		}
		if !headerDrawn {
			drawHeaderRow(pdf, data.Headers, widths)
			headerDrawn = true
		}
		pdf.SetFont("Arial", "", 8)
		for i, h := range data.Headers {
			cell := clip(row[h], int(widths[i]/1.6))
			pdf.CellFormat(widths[i], 6, tr(cell), "1", 0, "", fill, 0, "")
		}
		pdf.Ln(-1)
		fill = !fill
	}
	if !headerDrawn {
		drawHeaderRow(pdf, data.Headers, widths)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "render pdf")
	}
	return buf.Bytes(), nil
}

func drawHeaderRow(pdf *gofpdf.Fpdf, headers []string, widths []float64) {
	pdf.SetFont("Arial", "B", 8)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func columnWidths(pdf *gofpdf.Fpdf, headers []string) []float64 {
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageW - left - right

	total := 0.0
	weights := make([]float64, len(headers))
	for i, h := range headers {
		w := columnWeights[h]
		if w == 0 {
			w = 1
		}
		weights[i] = w
		total += w
	}
	widths := make([]float64, len(headers))
	for i, w := range weights {
		widths[i] = usable * w / total
	}
	return widths
}

// clip truncates a cell to roughly what fits the column at 8pt.
func clip(s string, max int) string {
	if max < 4 {
		max = 4
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
