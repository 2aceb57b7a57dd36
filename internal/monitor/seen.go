package monitor

import "sync"

// SeenSet is a capacity-bounded set of processed keys with FIFO eviction.
// The single Seen operation is an atomic check-and-insert, so two concurrent
// deliveries of the same key can never both pass as unseen.
type SeenSet struct {
	mu       sync.Mutex
	capacity int
	keys     map[string]struct{}
	order    []string // insertion order ring
	head     int
}

// NewSeenSet creates a seen-set holding at most capacity keys.
func NewSeenSet(capacity int) *SeenSet {
	if capacity <= 0 {
		capacity = 1
	}
	return &SeenSet{
		capacity: capacity,
		keys:     make(map[string]struct{}, capacity),
		order:    make([]string, capacity),
	}
}

// Seen records key and reports whether it was already present.
// When the set is full the oldest key is evicted.
func (s *SeenSet) Seen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; ok {
		return true
	}

	if len(s.keys) == s.capacity {
		oldest := s.order[s.head]
		delete(s.keys, oldest)
	}
	s.order[s.head] = key
	s.head = (s.head + 1) % s.capacity
	s.keys[key] = struct{}{}

	return false
}

// Len returns the number of keys currently held.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
