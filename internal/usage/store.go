// Package usage holds per-number send history in memory.
package usage

import (
	"sync"
	"time"
)

// record is the send history of one number. The count is len(stamps).
type record struct {
	stamps []time.Time
	last   time.Time
}

// Store maps phone numbers to their send history.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
}

// New creates an empty Store.
func New() *Store {
	return &Store{records: map[string]*record{}}
}

// Get returns the number of admitted sends for number, or 0 when untracked.
func (s *Store) Get(number string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(number)
}

// AppendAndIncrement records a send for number at the given time.
func (s *Store) AppendAndIncrement(number string, at time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(number, at)
}

// TotalCount sums the counts of every tracked number.
func (s *Store) TotalCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalLocked()
}

// Len returns the number of tracked numbers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// RemoveAll drops the given numbers and returns how many were tracked.
func (s *Store) RemoveAll(numbers ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, number := range numbers {
		if _, ok := s.records[number]; ok {
			delete(s.records, number)
			removed++
		}
	}
	return removed
}

// Clear drops every record.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Store) countLocked(number string) int {
	rec, ok := s.records[number]
	if !ok {
		return 0
	}
	return len(rec.stamps)
}

func (s *Store) totalLocked() int {
	total := 0
	for _, rec := range s.records {
		total += len(rec.stamps)
	}
	return total
}

func (s *Store) appendLocked(number string, at time.Time) int {
	rec, ok := s.records[number]
	if !ok {
		rec = &record{}
		s.records[number] = rec
	}
	rec.stamps = append(rec.stamps, at)
	if at.After(rec.last) {
		rec.last = at
	}
	return len(rec.stamps)
}

func (s *Store) clearLocked() {
	s.records = map[string]*record{}
}
