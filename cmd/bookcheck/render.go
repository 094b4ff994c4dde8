package main

import (
	"fmt"
	"strings"

	"bookcheck/internal/mapping"
	"bookcheck/internal/validate"
)

// outcomeLabel maps each outcome to its terminal label and color.
func outcomeLabel(o validate.Outcome) (string, string) {
	switch o {
	case validate.OutcomeValid:
		return "일치", ansiGreen
	case validate.OutcomeMismatch:
		return "불일치", ansiRed
	case validate.OutcomeNotFound:
		return "결과없음", ansiYellow
	default:
		return "조회오류", ansiRed
	}
}

// rowNote builds the per-row remark: the error message for failed rows, the
// disagreeing fields for mismatches.
func rowNote(r validate.Result) string {
	if r.ErrorMsg != "" {
		return r.ErrorMsg
	}
	if r.Outcome != validate.OutcomeMismatch || r.Details == nil {
		return ""
	}

	var fields []string
	if !r.Details.ISBN {
		fields = append(fields, "ISBN")
	}
	if !r.Details.Price {
		fields = append(fields, "가격")
	}
	if !r.Details.Author {
		fields = append(fields, "작가명")
	}
	return strings.Join(fields, ", ") + " 불일치"
}

func renderResultTable(all []validate.Result, m mapping.Mapping, colorize bool) string {
	headers := []string{"상태", "도서명", "ISBN", "가격", "작가명", "비고"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}

	rows := make([][]string, 0, len(all))
	for _, r := range all {
		label, color := outcomeLabel(r.Outcome)
		rows = append(rows, []string{
			colorized(label, color, colorize),
			r.Original.Get(m.Title),
			r.Original.Get(m.ISBN),
			r.Original.Get(m.Price),
			r.Original.Get(m.Author),
			rowNote(r),
		})
	}

	return renderTable(headers, rows, aligns)
}

func renderSummary(counts map[string]int, colorize bool) string {
	line := fmt.Sprintf("일치 %d · 불일치 %d · 결과없음 %d · 조회오류 %d",
		counts["valid"], counts["mismatch"], counts["not_found"], counts["lookup_error"])

	if counts["mismatch"]+counts["not_found"]+counts["lookup_error"] == 0 {
		return colorized(line, ansiGreen, colorize)
	}
	return colorized(line, ansiYellow, colorize)
}
