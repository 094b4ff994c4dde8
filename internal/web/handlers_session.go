package web

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookcheck/internal/mapping"
	"bookcheck/internal/session"
)

// sessionResponse is the JSON shape of a session for API clients.
type sessionResponse struct {
	ID               string          `json:"id"`
	FileName         string          `json:"file_name"`
	Encoding         string          `json:"encoding"`
	Columns          []string        `json:"columns"`
	RowCount         int             `json:"row_count"`
	Mapping          mapping.Mapping `json:"mapping"`
	MappingConfirmed bool            `json:"mapping_confirmed"`
}

func toSessionResponse(sess *session.Session) sessionResponse {
	return sessionResponse{
		ID:               sess.ID,
		FileName:         sess.FileName(),
		Encoding:         sess.Encoding(),
		Columns:          sess.Columns(),
		RowCount:         sess.RowCount(),
		Mapping:          sess.Mapping(),
		MappingConfirmed: sess.MappingConfirmed(),
	}
}

// readUploadedFile extracts the "file" part of a multipart form, enforcing
// the configured size cap. A nil byte slice means the response was already
// written.
func (s *Server) readUploadedFile(w http.ResponseWriter, r *http.Request) (string, []byte) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return "", nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return "", nil
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return "", nil
	}

	return header.Filename, data
}

// handleCreateSession parses an uploaded CSV and opens a new session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	name, data := s.readUploadedFile(w, r)
	if data == nil {
		return
	}

	sess, err := s.service.Create(name, data)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

// handleGetSession returns the current state of a session.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// handleReplaceFile swaps the session's file for a newly uploaded one,
// discarding prior rows, mapping, and results.
func (s *Server) handleReplaceFile(w http.ResponseWriter, r *http.Request) {
	name, data := s.readUploadedFile(w, r)
	if data == nil {
		return
	}

	sess, err := s.service.Replace(chi.URLParam(r, "sessionID"), name, data)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

// handleDeleteSession removes a session and cancels any run it owns.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleSetMapping updates the column mapping before a run is started.
func (s *Server) handleSetMapping(w http.ResponseWriter, r *http.Request) {
	var m mapping.Mapping
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid mapping format")
		return
	}

	id := chi.URLParam(r, "sessionID")
	if err := s.service.SetMapping(id, m); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	sess, err := s.service.Get(id)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}
