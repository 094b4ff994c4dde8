package results

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"

	"bookcheck/internal/csvparse"
	"bookcheck/internal/lookup"
	"bookcheck/internal/mapping"
	"bookcheck/internal/validate"
)

var testMapping = mapping.Mapping{Title: "제목", ISBN: "ISBN", Price: "가격", Author: "저자"}

func makeResult(title, isbn, price, author string, outcome validate.Outcome) validate.Result {
	row := csvparse.NewRow(
		[]string{"제목", "ISBN", "가격", "저자"},
		[]string{title, isbn, price, author},
	)
	r := validate.Result{Original: row, Outcome: outcome}
	if outcome == validate.OutcomeValid || outcome == validate.OutcomeMismatch {
		r.Record = &lookup.Record{
			Title:     title,
			ISBN:      isbn,
			Discount:  price,
			Author:    author,
			Publisher: "출판사",
			PubDate:   "20240115",
		}
		r.Details = &validate.MatchDetails{ISBN: true, Price: outcome == validate.OutcomeValid, Author: true}
	}
	if outcome == validate.OutcomeNotFound {
		r.ErrorMsg = "API에서 결과를 찾을 수 없습니다"
	}
	if outcome == validate.OutcomeLookupError {
		r.ErrorMsg = "API 호출 오류: boom"
	}
	return r
}

func seededStore() *Store {
	s := NewStore(testMapping)
	s.Append(makeResult("나 책", "333", "30000", "박", validate.OutcomeValid))
	s.Append(makeResult("가 책", "111", "10000", "김", validate.OutcomeLookupError))
	s.Append(makeResult("다 책", "222", "5000", "이", validate.OutcomeMismatch))
	s.Append(makeResult("가 책", "444", "20000", "최", validate.OutcomeNotFound))
	return s
}

func titles(view []validate.Result) []string {
	var out []string
	for _, r := range view {
		out = append(out, r.Original.Get("제목"))
	}
	return out
}

func TestStore_PreservesInputOrder(t *testing.T) {
	s := seededStore()
	got := titles(s.Results())
	want := []string{"나 책", "가 책", "다 책", "가 책"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Results() order = %v, want %v", got, want)
	}
}

func TestSortedView_Title(t *testing.T) {
	s := seededStore()
	got := titles(s.SortedView(SortByTitle, Ascending))
	want := []string{"가 책", "가 책", "나 책", "다 책"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sorted = %v, want %v", got, want)
	}
	// Ties keep input order: lookup_error "가 책" (ISBN 111) before
	// not_found "가 책" (ISBN 444).
	view := s.SortedView(SortByTitle, Ascending)
	if view[0].Original.Get("ISBN") != "111" || view[1].Original.Get("ISBN") != "444" {
		t.Error("stable sort must keep tied rows in input order")
	}
}

func TestSortedView_PriceNumeric(t *testing.T) {
	s := seededStore()
	view := s.SortedView(SortByPrice, Ascending)
	got := titles(view)
	// 5000 < 10000 < 20000 < 30000; lexicographic order would differ.
	want := []string{"다 책", "가 책", "가 책", "나 책"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("price sort = %v, want %v", got, want)
	}
}

func TestSortedView_StatusRank(t *testing.T) {
	s := seededStore()
	view := s.SortedView(SortByStatus, Descending)
	wantOrder := []validate.Outcome{
		validate.OutcomeValid,
		validate.OutcomeMismatch,
		validate.OutcomeNotFound,
		validate.OutcomeLookupError,
	}
	for i, r := range view {
		if r.Outcome != wantOrder[i] {
			t.Errorf("position %d outcome = %v, want %v", i, r.Outcome, wantOrder[i])
		}
	}
}

func TestSortedView_Deterministic(t *testing.T) {
	s := seededStore()
	first := titles(s.SortedView(SortByTitle, Ascending))
	second := titles(s.SortedView(SortByTitle, Ascending))
	if !reflect.DeepEqual(first, second) {
		t.Error("sorting twice with the same arguments must be identical")
	}
}

func TestSortedView_DoesNotMutateStore(t *testing.T) {
	s := seededStore()
	before := titles(s.Results())
	s.SortedView(SortByTitle, Descending)
	after := titles(s.Results())
	if !reflect.DeepEqual(before, after) {
		t.Error("SortedView must not reorder the underlying store")
	}
}

func TestSortedView_UnsortedReturnsInputOrder(t *testing.T) {
	s := seededStore()
	got := titles(s.SortedView(SortByTitle, Unsorted))
	if !reflect.DeepEqual(got, titles(s.Results())) {
		t.Error("Unsorted direction must return input order")
	}
}

func TestFilteredView(t *testing.T) {
	s := seededStore()

	failed := s.FilteredView(func(o validate.Outcome) bool {
		return o == validate.OutcomeLookupError || o == validate.OutcomeNotFound
	})
	if len(failed) != 2 {
		t.Fatalf("expected 2 failed rows, got %d", len(failed))
	}
	if failed[0].Outcome != validate.OutcomeLookupError {
		t.Error("filtered view must keep input order")
	}

	// Non-mutating.
	if s.Len() != 4 {
		t.Errorf("store length changed to %d", s.Len())
	}
}

func TestCounts(t *testing.T) {
	s := seededStore()
	counts := s.Counts()
	for _, k := range []string{"valid", "mismatch", "not_found", "lookup_error"} {
		if counts[k] != 1 {
			t.Errorf("counts[%s] = %d, want 1", k, counts[k])
		}
	}
}

func TestExportCSV_RoundTrip(t *testing.T) {
	s := seededStore()

	data, err := s.ExportCSV()
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("re-parse export: %v", err)
	}

	// Header plus one row per result, in input order.
	if len(records) != 5 {
		t.Fatalf("expected 5 csv records, got %d", len(records))
	}

	header := records[0]
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[col] = i
	}
	for _, col := range []string{"검증결과", "오류메시지", "원본_도서명", "원본_ISBN", "원본_가격", "원본_작가명", "API_출판일"} {
		if _, ok := idx[col]; !ok {
			t.Errorf("missing export column %q", col)
		}
	}

	// First result is valid: verdict 일치, original values verbatim.
	first := records[1]
	if first[idx["검증결과"]] != "일치" {
		t.Errorf("verdict = %q", first[idx["검증결과"]])
	}
	if first[idx["원본_도서명"]] != "나 책" || first[idx["원본_ISBN"]] != "333" {
		t.Error("original values must be preserved verbatim")
	}
	if first[idx["API_출판일"]] != "2024-01-15" {
		t.Errorf("pubdate = %q, want reformatted", first[idx["API_출판일"]])
	}

	// Lookup error row: verdict 불일치 with its message, remote columns empty.
	second := records[2]
	if second[idx["검증결과"]] != "불일치" {
		t.Errorf("verdict = %q", second[idx["검증결과"]])
	}
	if second[idx["오류메시지"]] == "" {
		t.Error("error message column should carry the row error")
	}
	if second[idx["API_도서명"]] != "" {
		t.Error("remote columns must be empty without a record")
	}
}

func TestExportColumns_NoRecords(t *testing.T) {
	s := NewStore(testMapping)
	s.Append(makeResult("가", "111", "1000", "김", validate.OutcomeLookupError))

	cols := s.ExportColumns()
	for _, col := range cols {
		if col == "API_도서명" {
			t.Error("remote columns must be absent when no result has a record")
		}
	}
}
