package session

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"documind/internal/models"
)

const taskQueueSize = 256

// Room holds the live state for one document: connected clients, the
// presence roster and ephemeral typing state. All of it is process-local
// and volatile; a restart drops presence and clients re-join on reconnect.
//
// Event handling for a room is serialized through its task queue, so two
// events for the same document are never processed out of handling order
// even though every connection reads on its own goroutine.
type Room struct {
	DocumentID uint

	mu       sync.Mutex
	clients  map[*Client]uint // connection -> userID it joined as
	presence map[uint]models.PresenceEntry
	order    []uint // presence insertion order
	typing   map[uint]models.TypingPayload

	tasks   chan func()
	pending atomic.Int64 // queued or executing tasks; guards retirement
}

func newRoom(documentID uint) *Room {
	return &Room{
		DocumentID: documentID,
		clients:    make(map[*Client]uint),
		presence:   make(map[uint]models.PresenceEntry),
		typing:     make(map[uint]models.TypingPayload),
		tasks:      make(chan func(), taskQueueSize),
	}
}

// run processes queued tasks one at a time. Whenever the queue drains it
// offers the room for retirement; the hub accepts once the room has no
// clients and no presence left.
func (r *Room) run(retire func(*Room) bool) {
	for {
		select {
		case task := <-r.tasks:
			task()
			r.pending.Add(-1)
		default:
			if retire(r) {
				return
			}
			task := <-r.tasks
			task()
			r.pending.Add(-1)
		}
	}
}

func (r *Room) AddClient(c *Client, userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = userID
}

// RemoveClient drops the connection and reports which user it joined as.
func (r *Room) RemoveClient(c *Client) (uint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.clients[c]
	if ok {
		delete(r.clients, c)
	}
	return userID, ok
}

func (r *Room) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// JoinPresence registers the user in the roster, idempotently: a re-join
// returns the existing entry so the color stays stable for the membership.
func (r *Room) JoinPresence(userID uint, name string) models.PresenceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.presence[userID]; ok {
		return entry
	}
	entry := models.PresenceEntry{ID: userID, Name: name, Color: randomColor()}
	r.presence[userID] = entry
	r.order = append(r.order, userID)
	return entry
}

func (r *Room) LeavePresence(userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.presence[userID]; !ok {
		return
	}
	delete(r.presence, userID)
	delete(r.typing, userID)
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Roster returns the presence entries in insertion order.
func (r *Room) Roster() []models.PresenceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	roster := make([]models.PresenceEntry, 0, len(r.order))
	for _, id := range r.order {
		roster = append(roster, r.presence[id])
	}
	return roster
}

func (r *Room) PresenceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.presence)
}

func (r *Room) SetTyping(state models.TypingPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typing[state.UserID] = state
}

// ClearTyping removes the user's typing state, reporting whether one existed.
func (r *Room) ClearTyping(userID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.typing[userID]
	delete(r.typing, userID)
	return ok
}

// Broadcast sends the frame to every client in the room.
func (r *Room) Broadcast(frame models.Frame) {
	for _, c := range r.snapshotClients() {
		c.Send(frame)
	}
}

// BroadcastExcept sends the frame to every client except the sender. Used
// for typing and content updates, which must never echo back to self.
func (r *Room) BroadcastExcept(sender *Client, frame models.Frame) {
	for _, c := range r.snapshotClients() {
		if c == sender {
			continue
		}
		c.Send(frame)
	}
}

func (r *Room) snapshotClients() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	return clients
}

// randomColor picks a uniform random 24-bit RGB display color. Collisions
// between users are accepted.
func randomColor() string {
	return fmt.Sprintf("#%06X", rand.Intn(1<<24))
}
