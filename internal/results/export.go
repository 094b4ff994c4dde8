package results

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"bookcheck/internal/normalize"
	"bookcheck/internal/validate"
)

// Export column headers. Original-row values carry the 원본_ prefix and
// remote-record values the API_ prefix so a re-imported file keeps both
// sides apart.
const (
	colVerdict         = "검증결과"
	colErrorMsg        = "오류메시지"
	colOrigTitle       = "원본_도서명"
	colOrigISBN        = "원본_ISBN"
	colOrigPrice       = "원본_가격"
	colOrigAuthor      = "원본_작가명"
	colRemoteTitle     = "API_도서명"
	colRemoteISBN      = "API_ISBN"
	colRemotePrice     = "API_가격"
	colRemoteAuthor    = "API_작가명"
	colRemotePublisher = "API_출판사"
	colRemotePubDate   = "API_출판일"
)

// Verdict labels written to the 검증결과 column.
const (
	verdictValid   = "일치"
	verdictInvalid = "불일치"
)

// ExportColumns returns the export header. Original-field columns appear
// only for mapped fields; remote columns appear only when at least one
// result carries a remote record.
func (s *Store) ExportColumns() []string {
	cols := []string{colVerdict, colErrorMsg}
	if s.mapping.Title != "" {
		cols = append(cols, colOrigTitle)
	}
	if s.mapping.ISBN != "" {
		cols = append(cols, colOrigISBN)
	}
	if s.mapping.Price != "" {
		cols = append(cols, colOrigPrice)
	}
	if s.mapping.Author != "" {
		cols = append(cols, colOrigAuthor)
	}
	if s.anyRecord() {
		cols = append(cols,
			colRemoteTitle, colRemoteISBN, colRemotePrice,
			colRemoteAuthor, colRemotePublisher, colRemotePubDate,
		)
	}
	return cols
}

// ExportRecords flattens every result into one column-keyed map, in input
// order. Original values are copied verbatim; the remote publish date is
// reformatted from YYYYMMDD to YYYY-MM-DD when it is exactly 8 digits.
func (s *Store) ExportRecords() []map[string]string {
	all := s.Results()
	out := make([]map[string]string, 0, len(all))

	for _, r := range all {
		rec := map[string]string{
			colVerdict:  verdictLabel(r),
			colErrorMsg: r.ErrorMsg,
		}
		if s.mapping.Title != "" {
			rec[colOrigTitle] = r.Original.Get(s.mapping.Title)
		}
		if s.mapping.ISBN != "" {
			rec[colOrigISBN] = r.Original.Get(s.mapping.ISBN)
		}
		if s.mapping.Price != "" {
			rec[colOrigPrice] = r.Original.Get(s.mapping.Price)
		}
		if s.mapping.Author != "" {
			rec[colOrigAuthor] = r.Original.Get(s.mapping.Author)
		}
		if r.Record != nil {
			rec[colRemoteTitle] = r.Record.Title
			rec[colRemoteISBN] = r.Record.ISBN
			rec[colRemotePrice] = r.Record.Discount
			rec[colRemoteAuthor] = r.Record.Author
			rec[colRemotePublisher] = r.Record.Publisher
			rec[colRemotePubDate] = normalize.FormatPubDate(r.Record.PubDate)
		}
		out = append(out, rec)
	}
	return out
}

// ExportCSV serializes the run as comma-delimited text with a header row.
func (s *Store) ExportCSV() ([]byte, error) {
	columns := s.ExportColumns()
	records := s.ExportRecords()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("write export header: %w", err)
	}
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = rec[col]
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write export row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush export: %w", err)
	}
	return buf.Bytes(), nil
}

// verdictLabel maps an outcome to its export label. Only two labels are
// admissible: anything other than a clean match exports as 불일치.
func verdictLabel(r validate.Result) string {
	if r.Outcome == validate.OutcomeValid {
		return verdictValid
	}
	return verdictInvalid
}

// anyRecord reports whether any result carries a remote record.
func (s *Store) anyRecord() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.results {
		if r.Record != nil {
			return true
		}
	}
	return false
}
