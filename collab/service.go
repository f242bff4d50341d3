// Package collab implements the document synchronization service: it owns
// the set of live rooms, fans incoming edits out to room members, and
// persists document state on client save requests.
package collab

import (
	"context"
	"errors"
	"fmt"

	"docsync-server/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

var (
	// ErrAlreadySubscribed rejects a second get-document on one session.
	ErrAlreadySubscribed = errors.New("session already subscribed to a document")
	// ErrNotSubscribed rejects edits and saves sent before get-document.
	ErrNotSubscribed = errors.New("session not subscribed to any document")
)

// Service mediates all access to rooms and the document store. Persistence
// is passive: the server writes only when a client asks it to, it never
// sweeps rooms on its own.
type Service struct {
	store core.DocumentStore
	rooms *Registry
}

func NewService(store core.DocumentStore) *Service {
	return &Service{
		store: store,
		rooms: NewRegistry(store),
	}
}

// Rooms lists the live rooms for the monitoring surface.
func (s *Service) Rooms() []RoomInfo { return s.rooms.Rooms() }

// Connect allocates a session for a new client connection.
func (s *Service) Connect(emit EmitFunc) *Session {
	sess := &Session{id: ulid.Make().String(), emit: emit}
	logrus.WithField("connection_id", sess.ID()).Info("Client connected")
	return sess
}

// Subscribe binds the session to documentID, loading or creating the
// document, and sends the session its load-document snapshot. A session
// that is already bound is rejected.
func (s *Service) Subscribe(ctx context.Context, sess *Session, documentID string) error {
	log := logrus.WithFields(logrus.Fields{
		"connection_id": sess.ID(),
		"document_id":   documentID,
	})

	if !sess.bind(documentID) {
		log.Warn("Rejected subscribe on already subscribed session")
		return ErrAlreadySubscribed
	}

	for {
		room, err := s.rooms.getOrCreate(ctx, documentID)
		if err != nil {
			if errors.Is(err, errRoomEvicted) {
				continue
			}
			sess.unbind()
			return fmt.Errorf("load document %s: %w", documentID, err)
		}
		if err := room.join(sess); err != nil {
			// Room was reclaimed between lookup and join.
			continue
		}
		log.Info("Session joined room")
		return nil
	}
}

// ApplyEdit replaces the room's state with the client's and relays it to
// the other members. The newest edit always wins.
func (s *Service) ApplyEdit(sess *Session, state core.DocumentState) error {
	room, err := s.roomFor(sess)
	if err != nil {
		return err
	}
	room.applyEdit(sess, state)
	return nil
}

// Save updates the room's state and writes it through to the store. The
// state to persist is snapshotted under the room lock and written outside
// it, so a slow store never stalls concurrent edits. On failure the
// in-memory state stands; durable state catches up on the next save.
func (s *Service) Save(ctx context.Context, sess *Session, state core.DocumentState) error {
	room, err := s.roomFor(sess)
	if err != nil {
		return err
	}

	snapshot := room.setState(state)
	if err := s.store.Save(ctx, room.ID(), snapshot); err != nil {
		logrus.WithFields(logrus.Fields{
			"connection_id": sess.ID(),
			"document_id":   room.ID(),
		}).WithError(err).Error("Failed to persist document")
		return fmt.Errorf("save document %s: %w", room.ID(), err)
	}
	room.markPersisted(snapshot)
	logrus.WithField("document_id", room.ID()).Debug("Document saved")
	return nil
}

// Disconnect detaches the session from its room. When the last member
// leaves, unsaved state is flushed to the store and the room is reclaimed;
// a failed flush keeps the room so the state is not lost.
func (s *Service) Disconnect(ctx context.Context, sess *Session) {
	log := logrus.WithField("connection_id", sess.ID())
	log.Info("Client disconnected")

	documentID := sess.DocumentID()
	if documentID == "" {
		return
	}
	room := s.rooms.lookup(documentID)
	if room == nil {
		return
	}

	remaining, unsaved := room.leave(sess.ID())
	if remaining > 0 {
		return
	}
	if unsaved != nil {
		if err := s.store.Save(ctx, room.ID(), unsaved); err != nil {
			logrus.WithField("document_id", room.ID()).WithError(err).
				Error("Failed to flush document before reclaim, keeping room")
			return
		}
		room.markPersisted(unsaved)
	}
	s.rooms.reclaim(room)
}

func (s *Service) roomFor(sess *Session) (*Room, error) {
	documentID := sess.DocumentID()
	if documentID == "" {
		return nil, ErrNotSubscribed
	}
	room := s.rooms.lookup(documentID)
	if room == nil {
		return nil, ErrNotSubscribed
	}
	return room, nil
}
