package mcp

import (
	"sync"
	"time"

	"novellens/internal/analysis"
)

// ChangeEntry is one recorded store transition.
type ChangeEntry struct {
	Timestamp string `json:"ts"`
	Kind      string `json:"kind"`
	Loading   bool   `json:"loading"`
	Error     string `json:"error,omitempty"`
	Current   bool   `json:"has_artifact"`
}

// maxChangeEntries bounds the entries a ChangeLog keeps.
const maxChangeEntries = 1000

// ChangeLog is a thread-safe log of store transitions. Agents poll it to see
// what other clients of the session fetched.
//
// Indexes are absolute: the n-th entry ever recorded has index n-1 even after
// older entries were dropped to stay within the cap. Reset empties the log
// and starts indexes again at 0.
type ChangeLog struct {
	mu      sync.Mutex
	entries []ChangeEntry
	dropped int
	limit   int
	now     func() time.Time
}

func newChangeLog() *ChangeLog {
	return &ChangeLog{limit: maxChangeEntries, now: time.Now}
}

// Record appends c, dropping the oldest entry once the log is full. Its
// signature matches analysis.Store.OnChange.
func (l *ChangeLog) Record(c analysis.Change) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) >= l.limit {
		n := len(l.entries) - l.limit + 1
		l.entries = append(l.entries[:0], l.entries[n:]...)
		l.dropped += n
	}
	l.entries = append(l.entries, ChangeEntry{
		Timestamp: l.now().UTC().Format(time.RFC3339),
		Kind:      string(c.Kind),
		Loading:   c.Status.Loading,
		Error:     c.Status.Error,
		Current:   c.Current != nil,
	})
}

// Since returns the retained entries from index idx onward. An idx older
// than the oldest retained entry starts at the oldest one.
func (l *ChangeLog) Since(idx int) []ChangeEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx = max(idx-l.dropped, 0)
	if idx >= len(l.entries) {
		return nil
	}
	out := make([]ChangeEntry, len(l.entries)-idx)
	copy(out, l.entries[idx:])
	return out
}

// Len returns the number of entries recorded since the last Reset, including
// dropped ones. It is the index the next entry will get.
func (l *ChangeLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped + len(l.entries)
}

// Reset drops every entry.
func (l *ChangeLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.dropped = 0
}
