package intercept

import "sync"

// Func inspects an outgoing GraphQL operation and returns a substitute
// result. A nil error with a nil result passes the operation through to its
// original handling path. Declared as an alias so interpreted sources, whose
// entry points carry the unnamed signature, satisfy it directly.
type Func = func(op *Operation) (any, error)

// Slot holds the single active interceptor. Installing a new one supersedes
// the prior one; Clear removes interception entirely.
type Slot struct {
	mu sync.RWMutex
	fn Func
}

// Install makes fn the active interceptor and reports whether a previously
// installed one was superseded.
func (s *Slot) Install(fn Func) (superseded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	superseded = s.fn != nil
	s.fn = fn
	return
}

// Clear removes the active interceptor and reports whether one was installed.
func (s *Slot) Clear() (removed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed = s.fn != nil
	s.fn = nil
	return
}

// Active returns the installed interceptor, or nil when traffic should reach
// its original handling path.
func (s *Slot) Active() Func {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fn
}
