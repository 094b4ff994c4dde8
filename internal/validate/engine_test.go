package validate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"bookcheck/internal/csvparse"
	"bookcheck/internal/lookup"
	"bookcheck/internal/mapping"
)

var testMapping = mapping.Mapping{Title: "제목", ISBN: "ISBN", Price: "가격", Author: "저자"}

func testRow(title, isbn, price, author string) csvparse.Row {
	return csvparse.NewRow(
		[]string{"제목", "ISBN", "가격", "저자"},
		[]string{title, isbn, price, author},
	)
}

// fakeClient resolves lookups from a fixed table. A nil entry means not
// found; an entry in errs means the call fails.
type fakeClient struct {
	records map[string]*lookup.Record
	errs    map[string]error
	calls   []string
}

func (f *fakeClient) Lookup(_ context.Context, isbn string) (*lookup.Record, error) {
	f.calls = append(f.calls, isbn)
	if err, ok := f.errs[isbn]; ok {
		return nil, err
	}
	return f.records[isbn], nil
}

func runEngine(t *testing.T, client lookup.Client, rows []csvparse.Row) []Result {
	t.Helper()
	engine := NewEngine(client)
	var results []Result
	if err := engine.Run(context.Background(), rows, testMapping, func(r Result) {
		results = append(results, r)
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return results
}

func TestRun_AllFieldsMatch(t *testing.T) {
	// Scenario: hyphenated CSV ISBN, comma-separated author; the remote
	// record uses clean forms of both.
	client := &fakeClient{records: map[string]*lookup.Record{
		"9788912345671": {
			Title:    "어떤 책",
			ISBN:     "9788912345671",
			Discount: "15000",
			Author:   "Minjun Kim",
		},
	}}
	rows := []csvparse.Row{testRow("어떤 책", "978-89-123-4567-1", "15000", "Kim, Minjun")}

	results := runEngine(t, client, rows)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Outcome != OutcomeValid {
		t.Errorf("outcome = %v, want valid", r.Outcome)
	}
	if r.Details == nil {
		t.Fatal("expected match details")
	}
	if !r.Details.ISBN || !r.Details.Price || !r.Details.Author {
		t.Errorf("details = %+v, want isbn/price/author all true", r.Details)
	}
}

func TestRun_PriceMismatch(t *testing.T) {
	client := &fakeClient{records: map[string]*lookup.Record{
		"9788912345671": {
			Title:    "어떤 책",
			ISBN:     "9788912345671",
			Discount: "14000",
			Author:   "Minjun Kim",
		},
	}}
	rows := []csvparse.Row{testRow("어떤 책", "978-89-123-4567-1", "15000", "Kim, Minjun")}

	results := runEngine(t, client, rows)

	r := results[0]
	if r.Outcome != OutcomeMismatch {
		t.Errorf("outcome = %v, want mismatch", r.Outcome)
	}
	if r.Details.Price {
		t.Error("price should not match")
	}
	if !r.Details.ISBN || !r.Details.Author {
		t.Errorf("details = %+v, want isbn and author true", r.Details)
	}
	if r.Record == nil {
		t.Error("mismatch must still carry the remote record")
	}
}

func TestRun_EmptyISBN(t *testing.T) {
	client := &fakeClient{}
	rows := []csvparse.Row{testRow("어떤 책", "", "15000", "김민준")}

	results := runEngine(t, client, rows)

	r := results[0]
	if r.Outcome != OutcomeLookupError {
		t.Errorf("outcome = %v, want lookup_error", r.Outcome)
	}
	if !strings.Contains(r.ErrorMsg, "ISBN") {
		t.Errorf("error should mention the empty ISBN: %q", r.ErrorMsg)
	}
	if len(client.calls) != 0 {
		t.Errorf("no remote call should be attempted, got %v", client.calls)
	}
	if r.Record != nil || r.Details != nil {
		t.Error("no record or details for an empty-ISBN row")
	}
}

func TestRun_NonDigitISBNTreatedAsEmpty(t *testing.T) {
	client := &fakeClient{}
	rows := []csvparse.Row{testRow("어떤 책", "n/a", "15000", "김민준")}

	results := runEngine(t, client, rows)
	if results[0].Outcome != OutcomeLookupError {
		t.Errorf("outcome = %v, want lookup_error", results[0].Outcome)
	}
}

func TestRun_NotFound(t *testing.T) {
	client := &fakeClient{} // empty table: every lookup returns (nil, nil)
	rows := []csvparse.Row{testRow("어떤 책", "9788900000000", "15000", "김민준")}

	results := runEngine(t, client, rows)

	r := results[0]
	if r.Outcome != OutcomeNotFound {
		t.Errorf("outcome = %v, want not_found", r.Outcome)
	}
	if r.Record != nil || r.Details != nil {
		t.Error("not_found must not carry a record or details")
	}
	if r.ErrorMsg == "" {
		t.Error("not_found should carry a message")
	}
}

func TestRun_LookupErrorIsolatedPerRow(t *testing.T) {
	client := &fakeClient{
		records: map[string]*lookup.Record{
			"222": {Title: "B", ISBN: "222", Discount: "20", Author: "Lee"},
		},
		errs: map[string]error{
			"111": errors.New("API 응답 오류: 500"),
		},
	}
	rows := []csvparse.Row{
		testRow("A", "111", "10", "Kim"),
		testRow("B", "222", "20", "Lee"),
	}

	results := runEngine(t, client, rows)

	if len(results) != 2 {
		t.Fatalf("run must continue past a failed row, got %d results", len(results))
	}
	if results[0].Outcome != OutcomeLookupError {
		t.Errorf("row 0 outcome = %v", results[0].Outcome)
	}
	if !strings.Contains(results[0].ErrorMsg, "500") {
		t.Errorf("error should contain the status: %q", results[0].ErrorMsg)
	}
	if results[1].Outcome != OutcomeValid {
		t.Errorf("row 1 outcome = %v, want valid", results[1].Outcome)
	}
}

func TestRun_OrderPreserved(t *testing.T) {
	client := &fakeClient{}
	var rows []csvparse.Row
	for i := 0; i < 25; i++ {
		rows = append(rows, testRow(fmt.Sprintf("book-%d", i), fmt.Sprintf("97889%08d", i), "100", "Kim"))
	}

	results := runEngine(t, client, rows)

	if len(results) != len(rows) {
		t.Fatalf("got %d results for %d rows", len(results), len(rows))
	}
	for i, r := range results {
		want := fmt.Sprintf("book-%d", i)
		if got := r.Original.Get("제목"); got != want {
			t.Fatalf("result %d is for %q, want %q", i, got, want)
		}
	}
}

func TestRun_ProgressMonotonicReaches100(t *testing.T) {
	client := &fakeClient{errs: map[string]error{"300": errors.New("boom")}}
	rows := []csvparse.Row{
		testRow("A", "100", "1", "a"),
		testRow("B", "200", "2", "b"),
		testRow("C", "300", "3", "c"),
	}

	engine := NewEngine(client)
	var updates []Progress
	engine.OnProgress = func(p Progress) { updates = append(updates, p) }

	if err := engine.Run(context.Background(), rows, testMapping, func(Result) {}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(updates) != 3 {
		t.Fatalf("expected 3 progress updates, got %d", len(updates))
	}
	last := 0
	for _, p := range updates {
		if p.Percent < last {
			t.Errorf("progress went backwards: %d after %d", p.Percent, last)
		}
		last = p.Percent
	}
	if updates[len(updates)-1].Percent != 100 {
		t.Errorf("final percent = %d, want 100 even with failed rows", updates[len(updates)-1].Percent)
	}
}

func TestRun_TitleNeverGates(t *testing.T) {
	client := &fakeClient{records: map[string]*lookup.Record{
		"9788912345671": {
			Title:    "완전히 다른 제목",
			ISBN:     "9788912345671",
			Discount: "15000",
			Author:   "김민준",
		},
	}}
	rows := []csvparse.Row{testRow("어떤 책", "9788912345671", "15000", "김민준")}

	results := runEngine(t, client, rows)

	r := results[0]
	if r.Details.Title {
		t.Error("titles should not match")
	}
	if r.Outcome != OutcomeValid {
		t.Errorf("outcome = %v; title must not gate validity", r.Outcome)
	}
}

func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &fakeClient{}
	var rows []csvparse.Row
	for i := 0; i < 10; i++ {
		rows = append(rows, testRow("t", fmt.Sprintf("1%02d", i), "1", "a"))
	}

	engine := NewEngine(client)
	var emitted int
	err := engine.Run(ctx, rows, testMapping, func(Result) {
		emitted++
		if emitted == 3 {
			cancel()
		}
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if emitted != 3 {
		t.Errorf("emitted = %d, want run stopped at cancellation point", emitted)
	}
}

func TestOutcome_RankOrdering(t *testing.T) {
	if !(OutcomeValid.Rank() > OutcomeMismatch.Rank() &&
		OutcomeMismatch.Rank() > OutcomeNotFound.Rank() &&
		OutcomeNotFound.Rank() > OutcomeLookupError.Rank()) {
		t.Error("outcome rank order must be valid > mismatch > not_found > lookup_error")
	}
}

func TestParseOutcome(t *testing.T) {
	for _, o := range []Outcome{OutcomeValid, OutcomeMismatch, OutcomeNotFound, OutcomeLookupError} {
		got, ok := ParseOutcome(o.String())
		if !ok || got != o {
			t.Errorf("ParseOutcome(%q) = %v, %v", o.String(), got, ok)
		}
	}
	if _, ok := ParseOutcome("bogus"); ok {
		t.Error("bogus identifier should not parse")
	}
}
