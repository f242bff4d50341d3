package collab

import (
	"context"
	"errors"
	"sync"

	"docsync-server/core"

	"github.com/sirupsen/logrus"
)

// Server-to-client event names. The client-to-server counterparts live in
// the transport handler.
const (
	EventLoadDocument   = "load-document"
	EventReceiveChanges = "receive-changes"
)

// errRoomEvicted reports that a room was removed from the registry between
// lookup and use; callers retry against the registry.
var errRoomEvicted = errors.New("room evicted")

// Room aggregates one document's live state and its connected sessions.
// All mutations go through the room's own mutex; rooms never share a lock,
// so traffic on one document cannot stall another.
type Room struct {
	id string

	mu        sync.Mutex
	loaded    bool
	evicted   bool
	state     core.DocumentState
	persisted core.DocumentState
	members   map[string]*Session
}

func newRoom(id string) *Room {
	return &Room{
		id:      id,
		members: make(map[string]*Session),
	}
}

func (r *Room) ID() string { return r.id }

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// State returns a snapshot of the current in-memory state.
func (r *Room) State() core.DocumentState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// ensureLoaded populates the room from the store on first use, creating the
// default empty document for never-seen identifiers. The room lock is held
// across the store call: no member can have joined yet, so nothing is
// stalled, and concurrent first-requesters of the same identifier wait here
// instead of creating a second storage record.
func (r *Room) ensureLoaded(ctx context.Context, store core.DocumentStore) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.evicted {
		return errRoomEvicted
	}
	if r.loaded {
		return nil
	}

	log := logrus.WithField("document_id", r.id)
	doc, err := store.FindID(ctx, r.id)
	if errors.Is(err, core.ErrNotFound) {
		doc, err = store.Create(ctx, &core.Document{ID: r.id, State: core.DefaultState()})
		if err == nil {
			log.Info("Document created with default state")
		}
	}
	if err != nil {
		log.WithError(err).Error("Failed to load or create document")
		return err
	}

	// A freshly loaded or freshly created document counts as persisted.
	r.state = doc.State.Clone()
	r.persisted = doc.State.Clone()
	r.loaded = true
	return nil
}

// join adds the session and sends it the load-document snapshot while still
// holding the room lock, so no later broadcast can be observed first.
func (r *Room) join(sess *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.evicted {
		return errRoomEvicted
	}
	r.members[sess.ID()] = sess
	sess.Emit(EventLoadDocument, r.state)
	return nil
}

// leave removes the session and reports how many members remain, plus a
// snapshot of unsaved state when the departing member left the room dirty.
func (r *Room) leave(sessionID string) (remaining int, unsaved core.DocumentState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.members, sessionID)
	remaining = len(r.members)
	if remaining == 0 && !r.state.Equal(r.persisted) {
		unsaved = r.state.Clone()
	}
	return remaining, unsaved
}

// applyEdit replaces the current state and relays it to every member except
// the sender. Last writer wins; no merging.
func (r *Room) applyEdit(sender *Session, state core.DocumentState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = state
	for id, member := range r.members {
		if id == sender.ID() {
			continue
		}
		member.Emit(EventReceiveChanges, state)
	}
}

// setState replaces the current state and returns the snapshot to persist.
func (r *Room) setState(state core.DocumentState) core.DocumentState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	return r.state.Clone()
}

// markPersisted records the state most recently written to the store.
func (r *Room) markPersisted(state core.DocumentState) {
	r.mu.Lock()
	r.persisted = state
	r.mu.Unlock()
}
