package collab

import (
	"context"
	"sort"
	"sync"

	"docsync-server/core"
)

// Registry owns every live Room, keyed by document identifier. Insertion is
// a single compare-and-insert under the registry lock, so two concurrent
// first-requesters of one identifier always share a room. The registry lock
// is never held across store I/O.
type Registry struct {
	store core.DocumentStore

	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRegistry(store core.DocumentStore) *Registry {
	return &Registry{
		store: store,
		rooms: make(map[string]*Room),
	}
}

// getOrCreate returns the room for id, loading it from the store on first
// use. The returned room may have been evicted by the time the caller locks
// it; callers retry on errRoomEvicted.
func (g *Registry) getOrCreate(ctx context.Context, id string) (*Room, error) {
	g.mu.Lock()
	room, ok := g.rooms[id]
	if !ok {
		room = newRoom(id)
		g.rooms[id] = room
	}
	g.mu.Unlock()

	if err := room.ensureLoaded(ctx, g.store); err != nil {
		return nil, err
	}
	return room, nil
}

// lookup returns the live room for id, or nil.
func (g *Registry) lookup(id string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rooms[id]
}

// reclaim drops the room once its member set is empty and nothing unsaved
// remains. The checks are redone under both locks; a member that joined in
// the meantime keeps the room alive.
func (g *Registry) reclaim(room *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.rooms[room.id] != room {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if len(room.members) > 0 || !room.state.Equal(room.persisted) {
		return
	}
	room.evicted = true
	delete(g.rooms, room.id)
}

// RoomInfo describes one live room for the monitoring surface.
type RoomInfo struct {
	ID      string `json:"id"`
	Members int    `json:"members"`
}

// Rooms lists the live rooms, busiest first.
func (g *Registry) Rooms() []RoomInfo {
	g.mu.Lock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.Unlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, RoomInfo{ID: room.ID(), Members: room.MemberCount()})
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Members == infos[j].Members {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].Members > infos[j].Members
	})
	return infos
}
