package session

import (
	"fmt"
	"math/rand"
)

var ErrNoAppPort = fmt.Errorf("no app port established for this session: open a project or reset launch arguments first")

// Temporary id generation facilities
const letterBytes = "abcdefghijklmnopqrstuvwxyz0123456789"

func newID(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Int63()%int64(len(letterBytes))]
	}
	return string(b)
}

// Session is the explicit per-test context threaded through every harness
// call. It replaces ambient process-wide port state: a session is created by
// the per-test reset, mutated only by harness operations issued one at a time,
// and discarded at the test boundary.
type Session struct {
	// Unique id of this test session, for log correlation
	ID string `json:"id" yaml:"id"`

	// Port of the fixture GraphQL endpoint, established by pre-suite setup
	GqlPort int `json:"gqlPort,omitempty" yaml:"gqlPort,omitempty"`

	// Port of the application endpoint, established by opening a project
	// or resetting launch arguments
	AppPort int `json:"appPort,omitempty" yaml:"appPort,omitempty"`

	// Name of the currently open test project, if any
	Project string `json:"project,omitempty" yaml:"project,omitempty"`
}

func New() *Session {
	return &Session{
		ID: newID(16),
	}
}

// RequireAppPort guards operations that address the application endpoint
func (s *Session) RequireAppPort() (int, error) {
	if s == nil || s.AppPort == 0 {
		return 0, ErrNoAppPort
	}

	return s.AppPort, nil
}

// Reset clears all per-test state, keeping nothing from the previous test
func (s *Session) Reset() {
	s.ID = newID(16)
	s.GqlPort = 0
	s.AppPort = 0
	s.Project = ""
}
