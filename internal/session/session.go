// Package session holds the in-memory state of one browser session: the
// uploaded file's rows, the column mapping, and the results of the current
// validation run.
//
// Nothing here is persisted. A session lives for the duration of its TTL,
// a re-upload resets everything derived from the previous file, and a new
// validation run replaces the previous result store wholesale.
package session

import (
	"sync"
	"time"

	"bookcheck/internal/csvparse"
	"bookcheck/internal/mapping"
	"bookcheck/internal/results"
)

// Phase describes where a validation run is in its lifecycle.
type Phase string

const (
	PhaseRunning   Phase = "running"
	PhaseDone      Phase = "done"
	PhaseFailed    Phase = "failed"
	PhaseCancelled Phase = "cancelled"
)

// RunProgress is the progress snapshot published to listeners after every
// validated row and at terminal transitions.
type RunProgress struct {
	RunID     string `json:"run_id"`
	Phase     Phase  `json:"phase"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
	Error     string `json:"error,omitempty"`
}

// Session is the explicit state object for one uploaded file. All mutation
// goes through Service; handlers only read through accessor methods.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu               sync.RWMutex
	lastAccess       time.Time
	fileName         string
	encoding         string
	columns          []string
	rows             []csvparse.Row
	mapping          mapping.Mapping
	mappingConfirmed bool
	store            *results.Store
	run              *activeRun
	runStarting      bool
}

// activeRun tracks one in-flight or finished validation run.
type activeRun struct {
	id       string
	cancel   func()
	done     chan struct{}
	progress RunProgress

	listenerMu sync.Mutex
	listeners  []chan RunProgress
	closed     bool
}

// notify publishes a progress snapshot to all listeners without blocking:
// a slow listener misses intermediate updates rather than stalling the run.
func (r *activeRun) notify(p RunProgress) {
	r.listenerMu.Lock()
	defer r.listenerMu.Unlock()
	r.progress = p
	if r.closed {
		return
	}
	for _, ch := range r.listeners {
		select {
		case ch <- p:
		default:
		}
	}
}

// closeListeners closes all listener channels exactly once.
func (r *activeRun) closeListeners() {
	r.listenerMu.Lock()
	defer r.listenerMu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for _, ch := range r.listeners {
		close(ch)
	}
	r.listeners = nil
}

// subscribe registers a new progress listener. The current snapshot is
// delivered first so late subscribers see the latest state immediately.
func (r *activeRun) subscribe() <-chan RunProgress {
	r.listenerMu.Lock()
	defer r.listenerMu.Unlock()

	ch := make(chan RunProgress, 16)
	ch <- r.progress
	if r.closed {
		close(ch)
		return ch
	}
	r.listeners = append(r.listeners, ch)
	return ch
}

// touch refreshes the session's idle clock.
func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccess = time.Now()
	s.mu.Unlock()
}

// releaseStarting frees the run slot reserved by StartRun when the
// start is abandoned before a run is installed.
func (s *Session) releaseStarting() {
	s.mu.Lock()
	s.runStarting = false
	s.mu.Unlock()
}

// FileName returns the uploaded file's name.
func (s *Session) FileName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fileName
}

// Encoding returns the encoding that won the parse trial loop.
func (s *Session) Encoding() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.encoding
}

// Columns returns the parsed header in file order.
func (s *Session) Columns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// RowCount returns the number of parsed data rows.
func (s *Session) RowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Mapping returns the current column mapping.
func (s *Session) Mapping() mapping.Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mapping
}

// MappingConfirmed reports whether the mapping has been frozen by a
// validation run.
func (s *Session) MappingConfirmed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mappingConfirmed
}

// Store returns the result store of the most recent run, or nil before the
// first run.
func (s *Session) Store() *results.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Progress returns the latest progress snapshot of the current run. The
// second return is false when no run has been started.
func (s *Session) Progress() (RunProgress, bool) {
	s.mu.RLock()
	run := s.run
	s.mu.RUnlock()
	if run == nil {
		return RunProgress{}, false
	}
	run.listenerMu.Lock()
	defer run.listenerMu.Unlock()
	return run.progress, true
}
