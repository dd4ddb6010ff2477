// Package uploadlog keeps a bounded, newest-first journal of CSV uploads.
package uploadlog

import (
	"context"
	"sync"
	"time"
)

// Entry is the outcome of one upload.
type Entry struct {
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	Loaded   int       `json:"loaded"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// Journal records upload outcomes.
type Journal interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Memory is a process-local Journal holding at most Max entries.
type Memory struct {
	mu      sync.Mutex
	max     int
	entries []Entry
}

// NewMemory returns a Memory journal capped at max entries.
func NewMemory(max int) *Memory {
	return &Memory{max: max}
}

func (m *Memory) Record(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]Entry{e}, m.entries...)
	if len(m.entries) > m.max {
		m.entries = m.entries[:m.max]
	}
	return nil
}

func (m *Memory) Recent(ctx context.Context, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]Entry, limit)
	copy(out, m.entries[:limit])
	return out, nil
}
