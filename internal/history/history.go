// Package history implements the bounded Query History ring buffer and
// the derived Stats counters exposed at /api/stats.
package history

import (
	"sync"
	"time"
)

// Record is one completed query, retained for the operator surface.
// Text is the SQL as the client submitted it; the translated form sent to
// the engine is not retained.
type Record struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	Text       string    `json:"text"`
	SubmitTime time.Time `json:"submitTime"`
	DurationMs int64     `json:"durationMs"`
	Success    bool      `json:"success"`
	RowCount   int64     `json:"rowCount"`
	ErrorCode  string    `json:"errorCode,omitempty"`
}

// History is a bounded ring buffer guarded by one sync.RWMutex. Append
// takes the write lock, so it briefly blocks readers; readers take a
// consistent snapshot under the read lock.
type History struct {
	mu       sync.RWMutex
	buf      []Record
	cap      int
	next     int
	filled   bool
	total    int64
	success  int64
	failed   int64
	totalDur int64

	startTime time.Time
}

// New creates a History retaining the most recent `capacity` records. A
// capacity <= 0 uses the spec's default of 1000.
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = 1000
	}
	return &History{
		buf:       make([]Record, capacity),
		cap:       capacity,
		startTime: time.Now(),
	}
}

// Append records a completed query. Counters are monotonically
// non-decreasing within a process lifetime, per §4.6.
func (h *History) Append(rec Record) {
	h.mu.Lock()
	h.buf[h.next] = rec
	h.next = (h.next + 1) % h.cap
	if h.next == 0 {
		h.filled = true
	}
	h.total++
	if rec.Success {
		h.success++
	} else {
		h.failed++
	}
	h.totalDur += rec.DurationMs
	h.mu.Unlock()
}

// Recent returns up to n most-recent records, newest first.
func (h *History) Recent(n int) []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var ordered []Record
	if h.filled {
		ordered = append(ordered, h.buf[h.next:]...)
		ordered = append(ordered, h.buf[:h.next]...)
	} else {
		ordered = append(ordered, h.buf[:h.next]...)
	}

	if n <= 0 || n > len(ordered) {
		n = len(ordered)
	}
	out := make([]Record, n)
	for i := 0; i < n; i++ {
		out[i] = ordered[len(ordered)-1-i]
	}
	return out
}

// Stats is the derived counters shape served at /api/stats.
type Stats struct {
	UptimeSeconds         int64   `json:"uptimeSeconds"`
	ActiveSessions        int     `json:"activeSessions"`
	TotalQueries          int64   `json:"totalQueries"`
	SuccessfulQueries     int64   `json:"successfulQueries"`
	FailedQueries         int64   `json:"failedQueries"`
	AverageQueryDuration  float64 `json:"averageQueryDurationMs"`
	ServerStartTime       string  `json:"serverStartTime"`
}

// Stats computes the current derived counters. activeSessions is
// supplied by the caller (the session.Manager), since History does not
// own session state.
func (h *History) Stats(activeSessions int) Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	avg := 0.0
	if h.total > 0 {
		avg = float64(h.totalDur) / float64(h.total)
	}

	return Stats{
		UptimeSeconds:        int64(time.Since(h.startTime).Seconds()),
		ActiveSessions:       activeSessions,
		TotalQueries:         h.total,
		SuccessfulQueries:    h.success,
		FailedQueries:        h.failed,
		AverageQueryDuration: avg,
		ServerStartTime:      h.startTime.UTC().Format(time.RFC3339),
	}
}
