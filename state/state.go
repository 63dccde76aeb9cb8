package state

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunKind names a trigger-facing operation.
type RunKind string

const (
	KindPass      RunKind = "pass"
	KindBackfill  RunKind = "backfill"
	KindDigest    RunKind = "digest"
	KindScheduled RunKind = "scheduled"
)

// LogEntry represents a single log line with timestamp
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Run is one started operation.
type Run struct {
	ID         string     `json:"id"`
	Kind       RunKind    `json:"kind"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Success    bool       `json:"success"`
	Error      string     `json:"error,omitempty"`
	Summary    string     `json:"summary,omitempty"`
}

// StatusResponse is the JSON response for GET /api/status
type StatusResponse struct {
	Busy       bool       `json:"busy"`
	ActiveRuns []Run      `json:"activeRuns"`
	RecentRuns []Run      `json:"recentRuns"`
	Logs       []LogEntry `json:"logs"`
	Error      string     `json:"error,omitempty"`
}

// Manager tracks active and finished runs with thread-safe access. Runs of
// different kinds may overlap; at most one run per kind is active.
type Manager struct {
	mu sync.RWMutex

	active  map[string]*Run
	recent  []Run
	lastErr error

	// Logs (ring buffer)
	logs      []LogEntry
	maxLogs   int
	maxRecent int
}

func NewManager() *Manager {
	return &Manager{
		active:    make(map[string]*Run),
		logs:      make([]LogEntry, 0),
		maxLogs:   50, // Keep last 50 log entries
		maxRecent: 10,
	}
}

// TryBegin starts a run of kind unless one is already active.
func (m *Manager) TryBegin(kind RunKind) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.active {
		if r.Kind == kind {
			return r.ID, false
		}
	}

	id := uuid.NewString()
	m.active[id] = &Run{ID: id, Kind: kind, StartedAt: time.Now()}
	m.appendLog(fmt.Sprintf("Started %s run %s", kind, shortID(id)))
	return id, true
}

// Finish closes run id. A non-nil err also becomes the last error.
func (m *Manager) Finish(id string, summary string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.active[id]
	if !ok {
		return
	}
	delete(m.active, id)

	now := time.Now()
	run.FinishedAt = &now
	run.Summary = summary
	run.Success = err == nil
	if err != nil {
		run.Error = err.Error()
		m.lastErr = err
		m.appendLog(fmt.Sprintf("Error: %s run %s failed: %v", run.Kind, shortID(id), err))
	} else {
		m.appendLog(fmt.Sprintf("Finished %s run %s: %s", run.Kind, shortID(id), summary))
	}

	m.recent = append(m.recent, *run)
	if len(m.recent) > m.maxRecent {
		m.recent = m.recent[len(m.recent)-m.maxRecent:]
	}
}

// IsActive reports whether a run of kind is in progress.
func (m *Manager) IsActive(kind RunKind) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.active {
		if r.Kind == kind {
			return true
		}
	}
	return false
}

// AddLog adds a log entry (thread-safe)
func (m *Manager) AddLog(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLog(message)
}

// GetStatus returns a snapshot of the current state (thread-safe)
func (m *Manager) GetStatus() StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := make([]Run, 0, len(m.active))
	for _, r := range m.active {
		active = append(active, *r)
	}
	sort.Slice(active, func(i, j int) bool { return active[i].StartedAt.Before(active[j].StartedAt) })

	recent := make([]Run, len(m.recent))
	for i, r := range m.recent {
		recent[len(m.recent)-1-i] = r
	}

	resp := StatusResponse{
		Busy:       len(active) > 0,
		ActiveRuns: active,
		RecentRuns: recent,
		Logs:       append([]LogEntry{}, m.logs...), // Copy slice
	}
	if m.lastErr != nil {
		resp.Error = m.lastErr.Error()
	}
	return resp
}

// appendLog must be called with the lock held.
func (m *Manager) appendLog(message string) {
	m.logs = append(m.logs, LogEntry{Timestamp: time.Now(), Message: message})
	if len(m.logs) > m.maxLogs {
		m.logs = m.logs[len(m.logs)-m.maxLogs:]
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
