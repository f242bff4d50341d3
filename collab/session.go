package collab

import "sync"

// EmitFunc delivers a named event back to the session's client. The
// transport layer owns the underlying connection; the collab package only
// holds this send capability.
type EmitFunc func(event string, payload any)

// Session is the server-side handle for one client connection. It binds to
// at most one document for its whole lifetime.
type Session struct {
	id   string
	emit EmitFunc

	mu         sync.Mutex
	documentID string
}

func (s *Session) ID() string { return s.id }

func (s *Session) DocumentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documentID
}

// Emit sends an event to the client. Sessions created without a send
// capability drop the event.
func (s *Session) Emit(event string, payload any) {
	if s.emit == nil {
		return
	}
	s.emit(event, payload)
}

// bind claims the session for documentID. It fails if the session is
// already bound; a session subscribes at most once.
func (s *Session) bind(documentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.documentID != "" {
		return false
	}
	s.documentID = documentID
	return true
}

// unbind releases a claim that never completed, so a client whose subscribe
// failed on storage can issue another get-document.
func (s *Session) unbind() {
	s.mu.Lock()
	s.documentID = ""
	s.mu.Unlock()
}
