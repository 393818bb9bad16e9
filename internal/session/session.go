// Package session implements opaque server-side sessions keyed by a random
// token carried in an HTTP-only cookie.
package session

// State is the server-held part of a session.
type State struct {
	UserID   *uint64        `json:"user_id,omitempty"`
	UserData map[string]any `json:"user_data,omitempty"`
}

// Session is the per-request view of a session. Token is empty until the
// session has been saved once.
type Session struct {
	Token string
	State State
}

// Authenticate records the user on the session.
func (s *Session) Authenticate(userID uint64, data map[string]any) {
	id := userID
	s.State.UserID = &id
	s.State.UserData = data
}

// Clear drops every field of the session state.
func (s *Session) Clear() {
	s.State = State{}
}

// IsAuthenticated reports whether both the user id and the cached user data
// are present, and returns the user id when it is set. A nil or never
// initialized session is anonymous.
func IsAuthenticated(s *Session) (bool, *uint64) {
	if s == nil {
		return false, nil
	}
	return s.State.UserID != nil && s.State.UserData != nil, s.State.UserID
}
