package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter renders one or more datasets into an Excel workbook, one
// sheet per dataset.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render produces a workbook with the given sheets in order. Sheet names
// must be unique and non-empty.
func (e *XLSXExporter) Render(sheets map[string]Dataset, order []string) ([]byte, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one sheet")
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	for idx, name := range order {
		data, ok := sheets[name]
		if !ok {
			return nil, fmt.Errorf("missing dataset for sheet %q", name)
		}
		if idx == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("add sheet %q: %w", name, err)
			}
		}

		header := make([]any, len(data.Headers))
		for i, h := range data.Headers {
			header[i] = h
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return nil, fmt.Errorf("write header row: %w", err)
		}
		for r, row := range data.Rows {
			record := make([]any, len(data.Headers))
			for i, h := range data.Headers {
				record[i] = row[h]
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, fmt.Errorf("locate row %d: %w", r+2, err)
			}
			if err := f.SetSheetRow(name, cell, &record); err != nil {
				return nil, fmt.Errorf("write row %d: %w", r+2, err)
			}
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
