// Package audit provides the in-memory session audit log of past
// assessments. Process-lifetime only; the serving context owns one instance
// and injects it into the assessor.
package audit

import (
	"sync"
	"time"

	"github.com/openupi/kingfisher/internal/domain"
)

// Entry is one audited assessment.
type Entry struct {
	Timestamp   time.Time       `json:"timestamp"`
	Amount      float64         `json:"amount"`
	RiskPercent float64         `json:"riskPercent"`
	Decision    domain.Decision `json:"decision"`
}

// Log is an append-only, mutex-serialized sequence of assessment entries.
// Entries appear in call order.
type Log struct {
	mu      sync.Mutex
	entries []Entry
}

// NewLog creates an empty audit log.
func NewLog() *Log {
	return &Log{}
}

// Append records one assessment.
func (l *Log) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// Entries returns a snapshot copy of all recorded entries in append order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
