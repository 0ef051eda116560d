package usage

import "time"

// LastActivity copies the newest send time of every tracked number.
func (s *Store) LastActivity() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]time.Time, len(s.records))
	for number, rec := range s.records {
		if len(rec.stamps) == 0 {
			continue
		}
		out[number] = rec.last
	}
	return out
}

// RemoveIdle drops each named number whose newest send is not after cutoff.
// Numbers that sent again since they were selected are kept.
func (s *Store) RemoveIdle(numbers []string, cutoff time.Time) int {
	if len(numbers) == 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, number := range numbers {
		rec, ok := s.records[number]
		if !ok || len(rec.stamps) == 0 {
			continue
		}
		if rec.last.After(cutoff) {
			continue
		}
		delete(s.records, number)
		removed++
	}
	return removed
}
