// Package csvparse turns raw uploaded bytes into header-keyed rows.
//
// The parser does not trust any single encoding. It trial-decodes the file
// with each charset candidate in priority order and accepts the first
// decoding that is both clean (no mojibake signals) and semantically
// plausible (the header names at least one recognizable book-domain
// keyword). Absence of decode errors alone is not enough: CP949 bytes often
// decode "successfully" under the wrong charset into garbage column names.
package csvparse

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"bookcheck/internal/charset"
)

// headerKeywords are the substrings that mark a header as book data.
// Latin keywords match case-insensitively, Korean ones exactly.
var headerKeywords = []string{"제목", "가격", "저자", "isbn", "title", "price", "author"}

// ParseError reports a fatal problem with the uploaded file. No partial
// data is accepted once it is returned.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "csv parse: " + e.Reason
}

// Row is one CSV record keyed by header column name. Rows are immutable
// after parsing; the column set is uniform within a file.
type Row struct {
	values map[string]string
}

// NewRow builds a Row pairing column names with record values positionally.
// Extra record values are dropped; missing ones read as "".
func NewRow(columns, record []string) Row {
	values := make(map[string]string, len(columns))
	for i, col := range columns {
		if i < len(record) {
			values[col] = record[i]
		}
	}
	return Row{values: values}
}

// Get returns the value for a column, or "" when the column is unknown.
func (r Row) Get(column string) string {
	return r.values[column]
}

// Values returns a copy of the row's column-value pairs.
func (r Row) Values() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON renders the row as a plain column-to-value object.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.values)
}

// Result is a successfully parsed file: the header in file order, the rows
// in file order, and the encoding that won the trial loop.
type Result struct {
	Columns  []string
	Rows     []Row
	Encoding string
}

// Parse decodes and parses raw CSV bytes, trying each encoding candidate in
// priority order. The first candidate producing a clean decode, at least one
// data row, and a recognizable header wins; later candidates are not tried.
// If every candidate fails, a ParseError is returned.
func Parse(data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, &ParseError{Reason: "empty file"}
	}

	for _, cand := range charset.Candidates() {
		text, err := cand.Decode(data)
		if err != nil {
			continue
		}
		if !charset.Acceptable(text) {
			continue
		}

		columns, rows, err := parseText(text)
		if err != nil {
			continue
		}
		if len(rows) == 0 || !hasDomainColumn(columns) {
			continue
		}

		return &Result{Columns: columns, Rows: rows, Encoding: cand.Name}, nil
	}

	return nil, &ParseError{Reason: "all encodings failed; check the file format and encoding"}
}

// parseText parses decoded text as comma-delimited records with a header
// row. Blank lines are skipped and every value stays a string; no type
// inference happens at parse time.
func parseText(text string) ([]string, []Row, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = 0 // all records must match the header width

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = strings.TrimSpace(col)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read record: %w", err)
		}

		if isBlank(record) {
			continue
		}

		rows = append(rows, NewRow(columns, record))
	}

	return columns, rows, nil
}

// hasDomainColumn reports whether any column name contains a book-domain
// keyword. Matching is done on the lower-cased column name, which leaves
// Korean keywords untouched and makes Latin keywords case-insensitive.
func hasDomainColumn(columns []string) bool {
	for _, col := range columns {
		lower := strings.ToLower(col)
		for _, kw := range headerKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// isBlank reports whether a record carries no values at all.
func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
