// Package eventlog holds the bounded record of integrator firings and its
// CSV export.
package eventlog

import "github.com/sweeney/radmon/internal/logic"

// Capacity is the number of entries kept before the oldest is evicted.
const Capacity = 1000

// Store is a fixed-capacity FIFO of log entries, oldest evicted first.
// Not safe for concurrent use; the instrument loop owns it.
type Store struct {
	buf      []logic.LogEntry
	capacity int
	head     int // next write position
	count    int
	evicted  uint64
}

// NewStore creates a store. A non-positive capacity selects Capacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = Capacity
	}
	return &Store{
		buf:      make([]logic.LogEntry, capacity),
		capacity: capacity,
	}
}

// Append adds an entry, overwriting the oldest when full.
func (s *Store) Append(e logic.LogEntry) {
	s.buf[s.head] = e
	s.head = (s.head + 1) % s.capacity
	if s.count == s.capacity {
		s.evicted++
		return
	}
	s.count++
}

// Entries returns the retained entries, oldest first.
func (s *Store) Entries() []logic.LogEntry {
	if s.count == 0 {
		return nil
	}
	out := make([]logic.LogEntry, s.count)
	// Oldest item is at (head - count) mod capacity
	start := (s.head - s.count + s.capacity) % s.capacity
	for i := 0; i < s.count; i++ {
		out[i] = s.buf[(start+i)%s.capacity]
	}
	return out
}

// Latest returns the newest entry.
func (s *Store) Latest() (logic.LogEntry, bool) {
	if s.count == 0 {
		return logic.LogEntry{}, false
	}
	return s.buf[(s.head-1+s.capacity)%s.capacity], true
}

// Len returns the number of retained entries.
func (s *Store) Len() int {
	return s.count
}

// Evicted returns how many entries have been dropped since startup.
func (s *Store) Evicted() uint64 {
	return s.evicted
}
