package appctx

import "sync"

// Scratch is per-test scratch state shared between bridged callbacks.
// It is reset at test boundaries together with the rest of the app context.
type Scratch struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewScratch() *Scratch {
	return &Scratch{
		values: make(map[string]any),
	}
}

func (s *Scratch) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	return value, ok
}

func (s *Scratch) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *Scratch) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

func (s *Scratch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]any)
}

// Snapshot returns a shallow copy safe to serialize
func (s *Scratch) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]any, len(s.values))
	for k, v := range s.values {
		result[k] = v
	}

	return result
}
