package export

import (
	"bytes"
	"encoding/csv"

	"github.com/confplan/confplan/pkg/errors"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders Dataset records as delimited text. The rest of the
// toolchain (ingest, the source spreadsheets) speaks semicolon-separated
// files, so that is the default delimiter.
type CSVExporter struct {
	Delimiter rune
}

// NewCSVExporter builds an exporter using the semicolon delimiter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{Delimiter: ';'}
}

// Render produces the delimited bytes for the dataset, one record per row
// in header order. Cells missing from a row stay empty.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, errors.New(errors.ErrValidation, "csv export needs at least one column")
	}
	records := make([][]string, 0, len(data.Rows)+1)
	records = append(records, data.Headers)
	for _, row := range data.Rows {
		rec := make([]string, len(data.Headers))
		for i, h := range data.Headers {
			rec[i] = row[h]
		}
		records = append(records, rec)
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	w.Comma = e.Delimiter
	if w.Comma == 0 {
		w.Comma = ';'
	}
	if err := w.WriteAll(records); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "write csv")
	}
	return buf.Bytes(), nil
}
