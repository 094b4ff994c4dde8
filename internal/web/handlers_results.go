package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"bookcheck/internal/results"
	"bookcheck/internal/validate"
)

// resultsResponse is the JSON shape of a result view.
type resultsResponse struct {
	Results []validate.Result `json:"results"`
	Counts  map[string]int    `json:"counts"`
	Total   int               `json:"total"`
}

// handleResults returns the session's validation results. Query parameters:
//
//	sort    title|isbn|price|author|status (default: input order)
//	dir     asc|desc (default: asc when sort is set)
//	outcome comma-separated outcome names to keep (default: all)
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	store := sess.Store()
	if store == nil {
		// No run yet; an empty view, not an error
		writeJSON(w, http.StatusOK, resultsResponse{
			Results: []validate.Result{},
			Counts:  map[string]int{},
		})
		return
	}

	field, dir := parseSortParams(r)
	view := store.SortedView(field, dir)

	if keep, ok := parseOutcomeFilter(r); ok {
		filtered := make([]validate.Result, 0, len(view))
		for _, res := range view {
			if keep[res.Outcome] {
				filtered = append(filtered, res)
			}
		}
		view = filtered
	}

	writeJSON(w, http.StatusOK, resultsResponse{
		Results: view,
		Counts:  store.Counts(),
		Total:   len(view),
	})
}

// parseSortParams reads sort/dir query parameters. An unknown sort field or
// absent sort parameter yields input order.
func parseSortParams(r *http.Request) (results.SortField, results.SortDirection) {
	field, ok := results.ParseSortField(r.URL.Query().Get("sort"))
	if !ok {
		return field, results.Unsorted
	}

	if r.URL.Query().Get("dir") == "desc" {
		return field, results.Descending
	}
	return field, results.Ascending
}

// parseOutcomeFilter reads the outcome query parameter. The second return
// is false when no filtering was requested.
func parseOutcomeFilter(r *http.Request) (map[validate.Outcome]bool, bool) {
	raw := r.URL.Query().Get("outcome")
	if raw == "" {
		return nil, false
	}

	keep := make(map[validate.Outcome]bool)
	for _, name := range strings.Split(raw, ",") {
		if o, ok := validate.ParseOutcome(strings.TrimSpace(name)); ok {
			keep[o] = true
		}
	}
	if len(keep) == 0 {
		return nil, false
	}
	return keep, true
}

// handleExport downloads the session's results as a CSV file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	store := sess.Store()
	if store == nil || store.Len() == 0 {
		writeError(w, http.StatusNotFound, "내보낼 검증 결과가 없습니다")
		return
	}

	data, err := store.ExportCSV()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := fmt.Sprintf("도서검증결과_%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	// RFC 5987 encoding for the non-ASCII filename, with an ASCII fallback
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="results.csv"; filename*=UTF-8''%s`, url.PathEscape(filename)))
	w.Write(data)
}
