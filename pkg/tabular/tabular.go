// Package tabular reads header-keyed rows from CSV uploads.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("missing header row")

// Row is one data row keyed by header name. Index is the 1-based line
// offset from the header, counting empty lines, so it matches what an
// editor shows. Err is set when the line could not be parsed; Values is then
// empty.
type Row struct {
	Index  int
	Values map[string]string
	Err    error
}

// Get returns the value for column, trimmed.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Values[column])
}

// Blank reports whether every cell in the row is empty.
func (r Row) Blank() bool {
	for _, v := range r.Values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ReadCSV parses a CSV document with a header row. Ragged rows are accepted
// and missing trailing cells read as empty. Rows whose cells are all blank
// are dropped. A malformed line becomes a Row carrying Err and reading
// continues; only header and I/O failures abort.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	headerLine, _ := reader.FieldPos(0)
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			rows = append(rows, Row{
				Index:  parseErr.StartLine - headerLine,
				Values: map[string]string{},
				Err:    parseErr,
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read rows: %w", err)
		}

		line, _ := reader.FieldPos(0)
		row := Row{Index: line - headerLine, Values: make(map[string]string, len(columns))}
		for i, col := range columns {
			if col == "" || i >= len(record) {
				continue
			}
			row.Values[col] = record[i]
		}
		if row.Blank() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
