package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DocStatus is the outcome for one document in a run.
type DocStatus string

const (
	DocOK      DocStatus = "ok"
	DocFailed  DocStatus = "failed"
	DocMissing DocStatus = "missing"
)

// DocReport records what happened to one document.
type DocReport struct {
	Path       string    `json:"path"`
	Status     DocStatus `json:"status"`
	Pages      int       `json:"pages,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Run summarizes one batch invocation.
type Run struct {
	ID         string      `json:"run_id"`
	Kind       string      `json:"kind"`
	Output     string      `json:"output,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Documents  []DocReport `json:"documents"`
}

func newRun(kind string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		StartedAt: time.Now(),
		Documents: []DocReport{},
	}
}

func (r *Run) add(d DocReport) {
	r.Documents = append(r.Documents, d)
}

func (r *Run) finish() {
	r.FinishedAt = time.Now()
}

// Count returns how many documents ended with status s.
func (r *Run) Count(s DocStatus) int {
	n := 0
	for _, d := range r.Documents {
		if d.Status == s {
			n++
		}
	}
	return n
}

// RunStore is a thread-safe in-memory registry of recent runs with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Cleanup removes runs that finished more than ttl ago.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		if now.Sub(run.FinishedAt) > s.ttl {
			delete(s.runs, id)
		}
	}
}

// Len returns the number of stored runs.
func (s *RunStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}
