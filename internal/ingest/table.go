package ingest

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/confplan/confplan/pkg/errors"
)

// table is a decoded delimited file: trimmed header names plus one value
// map per record.
type table struct {
	columns []string
	rows    []map[string]string
}

func readTable(path string, sep rune, configured string) (*table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrNotFound, "read "+path)
	}
	text, _ := DecodeBytes(raw, configured)

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrValidation, "parse "+path)
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrValidation, "empty file: "+path)
	}

	t := &table{}
	for _, c := range records[0] {
		t.columns = append(t.columns, strings.TrimSpace(c))
	}
	for _, rec := range records[1:] {
		row := make(map[string]string, len(t.columns))
		for i, col := range t.columns {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func (t *table) has(col string) bool {
	for _, c := range t.columns {
		if c == col {
			return true
		}
	}
	return false
}

// cell returns the row value with the NULL placeholder scrubbed.
func cell(row map[string]string, col string) string {
	v := row[col]
	if v == "NULL" {
		return ""
	}
	return v
}
