// Package validate drives the per-row validation pipeline: normalize the
// row's ISBN, look it up remotely, compare the returned record against the
// row, and classify the result.
//
// Rows are processed strictly sequentially. Each row's lookup completes
// before the next row begins, which bounds outstanding load on the external
// API to one in-flight request and keeps emitted results in input order
// with no reordering step. The only suspension point per row is the lookup
// call; all comparison logic is synchronous.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"bookcheck/internal/csvparse"
	"bookcheck/internal/lookup"
	"bookcheck/internal/mapping"
	"bookcheck/internal/normalize"
)

// MatchDetails records the per-field comparison verdicts when a remote
// record was obtained. Title is informational only and never gates the
// outcome. The price verdict keeps the historical "discount" wire name.
type MatchDetails struct {
	Title  bool `json:"title"`
	ISBN   bool `json:"isbn"`
	Price  bool `json:"discount"`
	Author bool `json:"author"`
}

// Result is the classification of one input row. Created exactly once per
// row, in row order, and never mutated afterwards.
type Result struct {
	Original csvparse.Row   `json:"original"`
	Outcome  Outcome        `json:"outcome"`
	Record   *lookup.Record `json:"record,omitempty"`
	Details  *MatchDetails  `json:"match_details,omitempty"`
	ErrorMsg string         `json:"error,omitempty"`
}

// Progress reports engine advancement after each row. Percent is
// round(100*Completed/Total), monotonically non-decreasing, and reaches 100
// exactly when the last result has been emitted.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// Engine validates rows against a remote lookup client.
type Engine struct {
	client lookup.Client

	// OnProgress, when set, is called after each row's result is emitted.
	OnProgress func(Progress)
}

// NewEngine builds an engine using the given lookup client.
func NewEngine(client lookup.Client) *Engine {
	return &Engine{client: client}
}

// Run validates every row in input order, calling emit once per row with
// its result. Per-row failures never abort the run: lookup errors and
// missing ISBNs are recorded on the row's result and the engine proceeds
// unconditionally. Run stops early only when ctx is cancelled, returning
// the context's error; emitted results up to that point remain valid.
func (e *Engine) Run(ctx context.Context, rows []csvparse.Row, m mapping.Mapping, emit func(Result)) error {
	total := len(rows)

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := e.validateRow(ctx, row, m)
		emit(result)

		if e.OnProgress != nil {
			e.OnProgress(Progress{
				Completed: i + 1,
				Total:     total,
				Percent:   int(math.Round(100 * float64(i+1) / float64(total))),
			})
		}
	}

	return nil
}

// validateRow runs the per-row state machine: empty-ISBN short circuit,
// lookup, then field comparison.
func (e *Engine) validateRow(ctx context.Context, row csvparse.Row, m mapping.Mapping) Result {
	isbn := normalize.CleanISBN(row.Get(m.ISBN))
	if isbn == "" {
		return Result{
			Original: row,
			Outcome:  OutcomeLookupError,
			ErrorMsg: "ISBN 값이 비어있습니다",
		}
	}

	record, err := e.client.Lookup(ctx, isbn)
	if err != nil {
		slog.Warn("lookup failed", "isbn", isbn, "error", err)
		return Result{
			Original: row,
			Outcome:  OutcomeLookupError,
			ErrorMsg: fmt.Sprintf("API 호출 오류: %v", err),
		}
	}
	if record == nil {
		return Result{
			Original: row,
			Outcome:  OutcomeNotFound,
			ErrorMsg: "API에서 결과를 찾을 수 없습니다",
		}
	}

	details := &MatchDetails{
		Title:  normalize.TitleMatch(record.Title, row.Get(m.Title)),
		ISBN:   normalize.CleanISBN(record.ISBN) == isbn,
		Price:  normalize.CleanPrice(record.Discount) == normalize.CleanPrice(row.Get(m.Price)),
		Author: normalize.CompareAuthors(record.Author, row.Get(m.Author)),
	}

	// Title is excluded from the gate: formatting varies too much for it to
	// be a reliable signal.
	outcome := OutcomeMismatch
	if details.ISBN && details.Price && details.Author {
		outcome = OutcomeValid
	}

	return Result{
		Original: row,
		Outcome:  outcome,
		Record:   record,
		Details:  details,
	}
}
