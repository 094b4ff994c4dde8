package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookcheck/internal/csvparse"
	"bookcheck/internal/lookup"
	"bookcheck/internal/mapping"
	"bookcheck/internal/results"
	"bookcheck/internal/validate"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// ErrRunInProgress is returned when an operation requires the session's
// current run to be finished.
var ErrRunInProgress = errors.New("validation run already in progress")

// ErrNoRun is returned when progress or cancellation is requested before
// any run was started.
var ErrNoRun = errors.New("no validation run for this session")

// Options tunes the Service.
type Options struct {
	Keywords      mapping.KeywordSet
	MaxConcurrent int
	MaxWait       time.Duration
	RunTimeout    time.Duration
	SessionTTL    time.Duration
}

// Service owns all sessions and drives validation runs against the lookup
// client. It is the single writer of session state; handlers go through it.
type Service struct {
	client     lookup.Client
	keywords   mapping.KeywordSet
	limiter    *RunLimiter
	runTimeout time.Duration
	ttl        time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a session service using client for remote lookups.
func NewService(client lookup.Client, opts Options) *Service {
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 30 * time.Minute
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Hour
	}
	kw := opts.Keywords
	if len(kw.ISBN) == 0 {
		kw = mapping.DefaultKeywords()
	}
	return &Service{
		client:     client,
		keywords:   kw,
		limiter:    NewRunLimiter(opts.MaxConcurrent, opts.MaxWait),
		runTimeout: opts.RunTimeout,
		ttl:        opts.SessionTTL,
		sessions:   make(map[string]*Session),
	}
}

// Create parses an uploaded file and opens a new session for it. The file
// name must end in .csv; the bytes go through the encoding trial loop, and
// the column mapping is auto-detected but not yet confirmed.
func (s *Service) Create(fileName string, data []byte) (*Session, error) {
	if !strings.HasSuffix(strings.ToLower(fileName), ".csv") {
		return nil, fmt.Errorf("CSV 파일만 업로드 가능합니다: %s", fileName)
	}

	parsed, err := csvparse.Parse(data)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &Session{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		lastAccess: now,
		fileName:   fileName,
		encoding:   parsed.Encoding,
		columns:    parsed.Columns,
		rows:       parsed.Rows,
		mapping:    mapping.AutoDetect(parsed.Columns, s.keywords),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	slog.Info("session created",
		"session_id", sess.ID,
		"file", fileName,
		"encoding", parsed.Encoding,
		"rows", len(parsed.Rows),
	)
	return sess, nil
}

// Get returns a session by ID and refreshes its idle clock.
func (s *Service) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch()
	return sess, nil
}

// Replace re-parses a new file into an existing session, discarding all
// prior rows, mapping, and results. Rejected while a run is in progress.
func (s *Service) Replace(id, fileName string, data []byte) (*Session, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(fileName), ".csv") {
		return nil, fmt.Errorf("CSV 파일만 업로드 가능합니다: %s", fileName)
	}

	parsed, err := csvparse.Parse(data)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.run != nil {
		select {
		case <-sess.run.done:
		default:
			return nil, ErrRunInProgress
		}
	}
	sess.fileName = fileName
	sess.encoding = parsed.Encoding
	sess.columns = parsed.Columns
	sess.rows = parsed.Rows
	sess.mapping = mapping.AutoDetect(parsed.Columns, s.keywords)
	sess.mappingConfirmed = false
	sess.store = nil
	sess.run = nil

	slog.Info("session reset", "session_id", id, "file", fileName, "rows", len(parsed.Rows))
	return sess, nil
}

// Delete removes a session, cancelling its run if one is active.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.mu.RLock()
	run := sess.run
	sess.mu.RUnlock()
	if run != nil {
		run.cancel()
	}
	return nil
}

// SetMapping updates the session's column mapping. Every non-empty field
// must name an existing column. Rejected once a run has frozen the mapping.
func (s *Service) SetMapping(id string, m mapping.Mapping) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.mappingConfirmed {
		return ErrRunInProgress
	}
	for field, col := range map[string]string{
		"title": m.Title, "isbn": m.ISBN, "price": m.Price, "author": m.Author,
	} {
		if col == "" {
			continue
		}
		if !containsColumn(sess.columns, col) {
			return fmt.Errorf("unknown column %q for field %s", col, field)
		}
	}
	sess.mapping = m
	return nil
}

// StartRun confirms the session's mapping, freezes it, and starts a
// validation run in the background. The returned run ID identifies the run
// in progress streams. A mapping.MappingError blocks the start; so does an
// unfinished previous run.
func (s *Service) StartRun(ctx context.Context, id string) (string, error) {
	sess, err := s.Get(id)
	if err != nil {
		return "", err
	}

	// Reserve the run slot before releasing the lock: Confirm and
	// Acquire can take a while, and a second StartRun racing past the
	// done-check would overwrite the installed run.
	sess.mu.Lock()
	if sess.runStarting {
		sess.mu.Unlock()
		return "", ErrRunInProgress
	}
	if sess.run != nil {
		select {
		case <-sess.run.done:
		default:
			sess.mu.Unlock()
			return "", ErrRunInProgress
		}
	}
	sess.runStarting = true
	m := sess.mapping
	rows := sess.rows
	sess.mu.Unlock()

	if err := m.Confirm(); err != nil {
		sess.releaseStarting()
		return "", err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		sess.releaseStarting()
		return "", err
	}

	runCtx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	run := &activeRun{
		id:     uuid.New().String(),
		cancel: cancel,
		done:   make(chan struct{}),
		progress: RunProgress{
			Phase: PhaseRunning,
			Total: len(rows),
		},
	}
	run.progress.RunID = run.id
	store := results.NewStore(m)

	sess.mu.Lock()
	sess.mappingConfirmed = true
	sess.store = store
	sess.run = run
	sess.runStarting = false
	sess.mu.Unlock()

	go func() {
		defer s.limiter.Release()
		defer cancel()
		defer close(run.done)
		defer run.closeListeners()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in validation run", "run_id", run.id, "panic", r)
				p := run.progress
				p.Phase = PhaseFailed
				p.Error = fmt.Sprintf("internal error: %v", r)
				run.notify(p)
			}
		}()

		s.processRun(runCtx, run, rows, m, store)
	}()

	slog.Info("validation run started", "session_id", id, "run_id", run.id, "rows", len(rows))
	return run.id, nil
}

// processRun executes the engine and publishes progress transitions.
func (s *Service) processRun(ctx context.Context, run *activeRun, rows []csvparse.Row, m mapping.Mapping, store *results.Store) {
	engine := validate.NewEngine(s.client)
	engine.OnProgress = func(p validate.Progress) {
		run.notify(RunProgress{
			RunID:     run.id,
			Phase:     PhaseRunning,
			Completed: p.Completed,
			Total:     p.Total,
			Percent:   p.Percent,
		})
	}

	err := engine.Run(ctx, rows, m, store.Append)

	final := RunProgress{
		RunID:     run.id,
		Completed: store.Len(),
		Total:     len(rows),
		Percent:   100,
		Phase:     PhaseDone,
	}
	switch {
	case errors.Is(err, context.Canceled):
		final.Phase = PhaseCancelled
		final.Percent = percentOf(store.Len(), len(rows))
	case err != nil:
		final.Phase = PhaseFailed
		final.Error = err.Error()
		final.Percent = percentOf(store.Len(), len(rows))
	}
	run.notify(final)

	slog.Info("validation run finished",
		"run_id", run.id,
		"phase", final.Phase,
		"completed", final.Completed,
		"total", final.Total,
	)
}

// SubscribeProgress returns a channel of progress updates for the
// session's current run. The channel closes when the run reaches a
// terminal phase.
func (s *Service) SubscribeProgress(id string) (<-chan RunProgress, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.RLock()
	run := sess.run
	sess.mu.RUnlock()
	if run == nil {
		return nil, ErrNoRun
	}
	return run.subscribe(), nil
}

// CancelRun cancels the session's in-progress run. Results already emitted
// stay in the store.
func (s *Service) CancelRun(id string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	sess.mu.RLock()
	run := sess.run
	sess.mu.RUnlock()
	if run == nil {
		return ErrNoRun
	}
	run.cancel()
	return nil
}

// WaitForRuns blocks until all active runs complete or ctx expires. Used
// during graceful shutdown.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// ActiveRuns returns the number of validation runs currently executing.
func (s *Service) ActiveRuns() int {
	return s.limiter.Active()
}

// StartJanitor evicts idle sessions in the background until ctx is done.
func (s *Service) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(s.ttl / 4)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.evictIdle()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// evictIdle removes sessions idle past the TTL, skipping those with a run
// still in flight.
func (s *Service) evictIdle() {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.mu.RLock()
		idle := sess.lastAccess.Before(cutoff)
		run := sess.run
		sess.mu.RUnlock()

		if !idle {
			continue
		}
		if run != nil {
			select {
			case <-run.done:
			default:
				continue
			}
		}
		delete(s.sessions, id)
		slog.Info("session evicted", "session_id", id)
	}
}

// percentOf mirrors the engine's progress rounding for partial runs.
func percentOf(done, total int) int {
	if total == 0 {
		return 100
	}
	return int(float64(done)/float64(total)*100 + 0.5)
}

// containsColumn reports whether col is one of the parsed header columns.
func containsColumn(columns []string, col string) bool {
	for _, c := range columns {
		if c == col {
			return true
		}
	}
	return false
}
