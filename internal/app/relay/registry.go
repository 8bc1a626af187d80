package relay

import (
	"cmp"
	"regexp"
	"slices"
	"sync"

	"roomrelay/internal/pkg/errs"
)

var roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// ValidRoomID reports whether id can name a room.
func ValidRoomID(id string) bool {
	return roomIDPattern.MatchString(id)
}

// State is the lifecycle position of a connection.
type State int

const (
	// StateDisconnected covers ids that were never registered or have been unregistered.
	StateDisconnected State = iota

	// StateUnjoined is a registered connection that belongs to no room.
	StateUnjoined

	// StateJoined is a registered connection that belongs to at least one room.
	StateJoined
)

func (s State) String() string {
	switch s {
	case StateUnjoined:
		return "connected_unjoined"
	case StateJoined:
		return "connected_joined"
	default:
		return "disconnected"
	}
}

// connection is the registry record of one live client session.
type connection struct {
	id          string
	displayName string
	rooms       map[string]struct{}
}

// Member describes one room member for introspection.
type Member struct {
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
}

// RoomInfo summarises a non-empty room.
type RoomInfo struct {
	ID      string `json:"id"`
	Members int    `json:"members"`
}

// Registry maps connection ids to their state and room ids to member sets.
type Registry struct {
	// mu guards both maps; HTTP introspection reads them off the hub goroutine.
	mu sync.RWMutex

	conns map[string]*connection

	// rooms holds only non-empty rooms; a room appears on first join and vanishes with its last member.
	rooms map[string]map[string]struct{}
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connection),
		rooms: make(map[string]map[string]struct{}),
	}
}

// Register records a new connection with no rooms. Registering an id that is
// already present leaves it untouched.
func (r *Registry) Register(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[id]; ok {
		return
	}

	r.conns[id] = &connection{
		id:    id,
		rooms: make(map[string]struct{}),
	}
}

// Join adds the connection to roomID, creating the room if needed, and records displayName.
// It reports whether the connection was newly added; re-joining only updates the display name.
func (r *Registry) Join(id, roomID, displayName string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[id]
	if !ok {
		return false, errs.NewError(errs.ErrUnknownConnection)
	}

	conn.displayName = displayName

	if _, already := conn.rooms[roomID]; already {
		return false, nil
	}

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[roomID] = members
	}

	members[id] = struct{}{}
	conn.rooms[roomID] = struct{}{}

	return true, nil
}

// Leave removes the connection from roomID and drops the room once it is empty.
// It reports whether the connection was a member.
func (r *Registry) Leave(id, roomID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[id]
	if !ok {
		return false, errs.NewError(errs.ErrUnknownConnection)
	}

	return r.leaveLocked(conn, roomID), nil
}

func (r *Registry) leaveLocked(conn *connection, roomID string) bool {
	if _, member := conn.rooms[roomID]; !member {
		return false
	}

	delete(conn.rooms, roomID)

	if members, ok := r.rooms[roomID]; ok {
		delete(members, conn.id)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}

	return true
}

// Unregister removes the connection from every room and deletes its record.
// It returns the rooms the connection was in and its display name; ok is false
// when the id was not registered, which makes repeated calls harmless.
func (r *Registry) Unregister(id string) (rooms []string, displayName string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[id]
	if !ok {
		return nil, "", false
	}

	rooms = sortedKeys(conn.rooms)
	for _, roomID := range rooms {
		r.leaveLocked(conn, roomID)
	}

	delete(r.conns, id)

	return rooms, conn.displayName, true
}

// MembersOf returns the ids currently in roomID, leaving out excluding when it is non-empty.
// The order is unspecified.
func (r *Registry) MembersOf(roomID, excluding string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomID]
	out := make([]string, 0, len(members))
	for id := range members {
		if id == excluding {
			continue
		}
		out = append(out, id)
	}
	return out
}

// RoomsOf returns the rooms the connection belongs to, sorted.
func (r *Registry) RoomsOf(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[id]
	if !ok {
		return nil
	}
	return sortedKeys(conn.rooms)
}

// DisplayName returns the name recorded at the connection's last join.
func (r *Registry) DisplayName(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[id]
	if !ok {
		return "", false
	}
	return conn.displayName, true
}

// State reports where the connection is in its lifecycle.
func (r *Registry) State(id string) State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[id]
	switch {
	case !ok:
		return StateDisconnected
	case len(conn.rooms) == 0:
		return StateUnjoined
	default:
		return StateJoined
	}
}

// IsRegistered reports whether id belongs to a live connection.
func (r *Registry) IsRegistered(id string) bool {
	return r.State(id) != StateDisconnected
}

// ConnectionCount returns the number of live connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Rooms lists the non-empty rooms sorted by id.
func (r *Registry) Rooms() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RoomInfo, 0, len(r.rooms))
	for id, members := range r.rooms {
		out = append(out, RoomInfo{ID: id, Members: len(members)})
	}
	slices.SortFunc(out, func(a, b RoomInfo) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Members lists the members of roomID with their display names, sorted by connection id.
func (r *Registry) Members(roomID string) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := sortedKeys(r.rooms[roomID])
	out := make([]Member, 0, len(ids))
	for _, id := range ids {
		member := Member{ConnectionID: id}
		if conn, ok := r.conns[id]; ok {
			member.DisplayName = conn.displayName
		}
		out = append(out, member)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
