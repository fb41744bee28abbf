package domain

import "path/filepath"

type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticated
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the server-side state of one connection.
// CurrentDir is always HomeRoot or one of its descendants.
type Session struct {
	ID         string
	User       string
	HomeRoot   string
	CurrentDir string
	State      SessionState
	AuthFailed int
}

func NewSession(id string) *Session {
	return &Session{ID: id, State: StateUnauthenticated}
}

// Authenticate moves the session to the authenticated state rooted at home.
func (s *Session) Authenticate(user, home string) {
	s.User = user
	s.HomeRoot = home
	s.CurrentDir = home
	s.State = StateAuthenticated
	s.AuthFailed = 0
}

func (s *Session) Close() {
	s.State = StateClosed
	s.User = ""
	s.HomeRoot = ""
	s.CurrentDir = ""
}

// RelativeDir returns CurrentDir relative to HomeRoot ("." at home).
func (s *Session) RelativeDir() string {
	rel, err := filepath.Rel(s.HomeRoot, s.CurrentDir)
	if err != nil {
		return "."
	}
	return filepath.ToSlash(rel)
}
