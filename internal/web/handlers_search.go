package web

import (
	"net/http"
	"strings"

	"bookcheck/internal/lookup"
)

// handleSearch looks up a single ISBN against the upstream bibliographic
// API. The browser calls this directly for ad-hoc checks; the CLI speaks
// the same contract through lookup.APIClient.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	isbn := strings.TrimSpace(r.URL.Query().Get("isbn"))
	if isbn == "" {
		writeError(w, http.StatusBadRequest, "isbn 파라미터가 필요합니다")
		return
	}

	record, err := s.search.Lookup(r.Context(), isbn)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	items := []lookup.Record{}
	if record != nil {
		items = append(items, *record)
	}

	writeJSON(w, http.StatusOK, lookup.SearchResponse{Items: items})
}
