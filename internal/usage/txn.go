package usage

import "time"

// Txn is a handle on the store while Update holds the write lock.
// It must not be retained after the callback returns.
type Txn struct {
	s *Store
}

// Count returns the admitted sends for number.
func (t Txn) Count(number string) int { return t.s.countLocked(number) }

// Total returns the admitted sends across all numbers.
func (t Txn) Total() int { return t.s.totalLocked() }

// Len returns the number of tracked numbers.
func (t Txn) Len() int { return len(t.s.records) }

// Append records a send and returns the new count for number.
func (t Txn) Append(number string, at time.Time) int { return t.s.appendLocked(number, at) }

// Clear drops every record.
func (t Txn) Clear() { t.s.clearLocked() }

// Update runs fn with exclusive access to the store.
func (s *Store) Update(fn func(Txn)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(Txn{s: s})
}

// Reader is a read-only handle on the store while View holds the read lock.
// Slices it hands out alias store memory and must not be modified or retained.
type Reader struct {
	s *Store
}

// Len returns the number of tracked numbers.
func (r Reader) Len() int { return len(r.s.records) }

// Count returns the admitted sends for number.
func (r Reader) Count(number string) int { return r.s.countLocked(number) }

// Total returns the admitted sends across all numbers.
func (r Reader) Total() int { return r.s.totalLocked() }

// Timestamps returns the send history of number, or nil when untracked.
func (r Reader) Timestamps(number string) []time.Time {
	rec, ok := r.s.records[number]
	if !ok {
		return nil
	}
	return rec.stamps
}

// Each calls fn for every tracked number in unspecified order.
func (r Reader) Each(fn func(number string, stamps []time.Time)) {
	for number, rec := range r.s.records {
		fn(number, rec.stamps)
	}
}

// View runs fn against a point-in-time view of the store.
func (s *Store) View(fn func(Reader)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(Reader{s: s})
}
