package domain

import "sync"

// SessionState holds the only shared mutable state in the process: the
// debounce key owned by the notification delivery goroutine and the in-flight
// flag owned by the reply engine's admission check. Nothing here survives a
// restart.
type SessionState struct {
	mu            sync.Mutex
	lastSeenKey   string
	replyInFlight bool
}

// NewSessionState creates empty session state.
func NewSessionState() *SessionState {
	return &SessionState{}
}

// AdmitNotification records key as the most recently accepted notification.
// It returns false when key matches the current last-seen key (duplicate
// delivery, caller must drop the notification).
func (s *SessionState) AdmitNotification(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key != "" && key == s.lastSeenKey {
		return false
	}
	s.lastSeenKey = key
	return true
}

// ClearIfLastSeen clears the debounce key iff it equals key, so a later
// re-post of the same key is treated as new.
func (s *SessionState) ClearIfLastSeen(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSeenKey == key {
		s.lastSeenKey = ""
	}
}

// BeginReply attempts to mark a reply run as in flight. It returns false when
// another run is already executing; the caller must not touch the UI then.
func (s *SessionState) BeginReply() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replyInFlight {
		return false
	}
	s.replyInFlight = true
	return true
}

// EndReply clears the in-flight flag. Called on every exit path of a run,
// success or failure.
func (s *SessionState) EndReply() {
	s.mu.Lock()
	s.replyInFlight = false
	s.mu.Unlock()
}

// ReplyInFlight reports whether a reply run is currently executing.
func (s *SessionState) ReplyInFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replyInFlight
}
