package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"documind/internal/metrics"
	"documind/internal/models"
	"documind/internal/repositories"
)

// Scoped error messages sent to the originating connection only.
const (
	msgDocumentNotFound = "Document not found"
	msgUserNotFound     = "User not found"
	msgAccessDenied     = "Access denied"
)

const aiGenerationTimeout = 2 * time.Minute

// DocumentStore loads document records for access checks and edits.
type DocumentStore interface {
	FindByID(ctx context.Context, id uint) (*models.Document, error)
}

// UserStore loads the user identity behind a connection's events.
type UserStore interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// AccessDecider gates every mutating event. It is consulted fresh each
// time, never cached from join, because permissions can change mid-session.
type AccessDecider interface {
	HasAccess(ctx context.Context, doc *models.Document, userID uint, email string) (bool, error)
}

// SaveQueue debounces durable writes of edited content.
type SaveQueue interface {
	Schedule(documentID uint, content string, editorID uint)
}

// SuggestionSource produces advisory AI text for edited content.
type SuggestionSource interface {
	GenerateSuggestion(ctx context.Context, content string) (string, error)
	GenerateSummary(ctx context.Context, content string) (string, error)
}

// Hub coordinates all collaboration rooms. It owns every room and its
// presence/typing sub-maps, the reverse index from connection to joined
// documents (so disconnect cleanup never scans all rooms), and the
// per-document task queues that serialize event handling.
type Hub struct {
	docs   DocumentStore
	users  UserStore
	access AccessDecider
	saves  SaveQueue
	ai     SuggestionSource
	logger *zap.Logger
	bridge *Bridge

	mu     sync.Mutex
	rooms  map[uint]*Room
	conns  map[*Client]struct{}
	joined map[*Client]map[uint]uint // connection -> documentID -> userID
}

func NewHub(docs DocumentStore, users UserStore, access AccessDecider, saves SaveQueue, ai SuggestionSource, logger *zap.Logger) *Hub {
	return &Hub{
		docs:   docs,
		users:  users,
		access: access,
		saves:  saves,
		ai:     ai,
		logger: logger,
		rooms:  make(map[uint]*Room),
		conns:  make(map[*Client]struct{}),
		joined: make(map[*Client]map[uint]uint),
	}
}

// SetBridge attaches the optional cross-instance broadcast bridge.
func (h *Hub) SetBridge(b *Bridge) { h.bridge = b }

// Register tracks a newly accepted connection.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	metrics.ConnectedClients.Set(float64(len(h.conns)))
	h.mu.Unlock()
}

// JoinDocument handles a joinDocument event: load document and user, check
// access, then register presence and broadcast the roster room-wide.
func (h *Hub) JoinDocument(c *Client, documentID, userID uint) {
	h.rememberJoin(c, documentID, userID)
	h.dispatch(documentID, func(r *Room) {
		h.handleJoin(r, c, documentID, userID)
	})
}

func (h *Hub) handleJoin(r *Room, c *Client, documentID, userID uint) {
	ctx := context.Background()

	user, ok := h.authorize(ctx, c, documentID, userID)
	if !ok {
		h.forgetJoin(c, documentID)
		return
	}

	h.mu.Lock()
	_, connected := h.conns[c]
	h.mu.Unlock()
	if !connected {
		// Connection dropped while the access check was in flight.
		h.forgetJoin(c, documentID)
		return
	}

	r.AddClient(c, userID)
	r.JoinPresence(userID, user.DisplayName())

	payload := models.ActiveUsersPayload{DocumentID: documentID, Users: r.Roster()}
	r.Broadcast(models.Frame{Event: models.EventActiveUsers, Data: payload})
	h.publish(documentID, models.EventActiveUsers, payload)

	h.logger.Info("user joined document",
		zap.Uint("document_id", documentID),
		zap.Uint("user_id", userID))
}

// UpdateDocument handles an updateDocument event: recheck access, broadcast
// the raw content to everyone else in the room, queue the debounced save and
// fire the suggestion pipeline in the background.
func (h *Hub) UpdateDocument(c *Client, documentID uint, content string, userID uint) {
	h.dispatch(documentID, func(r *Room) {
		h.handleEdit(r, c, documentID, content, userID)
	})
}

func (h *Hub) handleEdit(r *Room, c *Client, documentID uint, content string, userID uint) {
	ctx := context.Background()

	if _, ok := h.authorize(ctx, c, documentID, userID); !ok {
		return
	}

	payload := models.EditPayload{DocumentID: documentID, Content: content, UserID: userID}
	r.BroadcastExcept(c, models.Frame{Event: models.EventContentUpdated, Data: payload})
	h.publish(documentID, models.EventContentUpdated, payload)

	h.saves.Schedule(documentID, content, userID)

	if h.ai != nil {
		go h.generateInsights(c, documentID, content)
	}
}

// generateInsights runs detached from the edit path: a slow or failed AI
// call never blocks the broadcast or the save. Results are tagged with the
// document id only and may arrive after newer edits; clients treat them as
// advisory.
func (h *Hub) generateInsights(origin *Client, documentID uint, content string) {
	ctx, cancel := context.WithTimeout(context.Background(), aiGenerationTimeout)
	defer cancel()

	suggestion, err := h.ai.GenerateSuggestion(ctx, content)
	if err != nil {
		h.logger.Error("suggestion generation failed",
			zap.Uint("document_id", documentID), zap.Error(err))
		origin.SendError("Failed to generate suggestion")
		return
	}
	h.Broadcast(documentID, models.EventAISuggestion,
		models.SuggestionPayload{DocumentID: documentID, Suggestion: suggestion})

	summary, err := h.ai.GenerateSummary(ctx, content)
	if err != nil {
		h.logger.Error("summary generation failed",
			zap.Uint("document_id", documentID), zap.Error(err))
		origin.SendError("Failed to generate summary")
		return
	}
	h.Broadcast(documentID, models.EventAISummary,
		models.SummaryPayload{DocumentID: documentID, Summary: summary})
}

// SetTyping relays cursor/selection state to everyone else in the room and
// records it so the disconnect handler can clear stale entries. Typing
// state is advisory and never touches the document, so relays are not
// access checked; only edits are.
func (h *Hub) SetTyping(c *Client, state models.TypingPayload) {
	h.dispatchExisting(state.DocumentID, func(r *Room) {
		r.SetTyping(state)
		r.BroadcastExcept(c, models.Frame{Event: models.EventUserTyping, Data: state})
		h.publish(state.DocumentID, models.EventUserTyping, state)
	})
}

// ClearTyping removes typing state and tells the other members.
func (h *Hub) ClearTyping(c *Client, documentID, userID uint) {
	h.dispatchExisting(documentID, func(r *Room) {
		r.ClearTyping(userID)
		payload := models.StopTypingPayload{DocumentID: documentID, UserID: userID}
		r.BroadcastExcept(c, models.Frame{Event: models.EventUserStopTyping, Data: payload})
		h.publish(documentID, models.EventUserStopTyping, payload)
	})
}

// LeaveDocument removes the user's presence and broadcasts the new roster.
// The leaving connection is dropped only after the broadcast, so the leaver
// still sees the roster it is no longer part of.
func (h *Hub) LeaveDocument(c *Client, documentID, userID uint) {
	h.forgetJoin(c, documentID)
	h.dispatchExisting(documentID, func(r *Room) {
		r.LeavePresence(userID)

		payload := models.ActiveUsersPayload{DocumentID: documentID, Users: r.Roster()}
		r.Broadcast(models.Frame{Event: models.EventActiveUsers, Data: payload})
		h.publish(documentID, models.EventActiveUsers, payload)

		r.RemoveClient(c)
	})
}

// Disconnect cleans up everything the connection had joined, consulting the
// reverse index instead of scanning all rooms. It must not rely on the
// client having sent leaveDocument first.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	delete(h.conns, c)
	memberships := h.joined[c]
	delete(h.joined, c)
	metrics.ConnectedClients.Set(float64(len(h.conns)))
	h.mu.Unlock()

	for documentID, userID := range memberships {
		documentID, userID := documentID, userID
		h.dispatchExisting(documentID, func(r *Room) {
			if _, ok := r.RemoveClient(c); !ok {
				return
			}
			if r.ClearTyping(userID) {
				payload := models.StopTypingPayload{DocumentID: documentID, UserID: userID}
				r.Broadcast(models.Frame{Event: models.EventUserStopTyping, Data: payload})
				h.publish(documentID, models.EventUserStopTyping, payload)
			}
			r.LeavePresence(userID)

			payload := models.ActiveUsersPayload{DocumentID: documentID, Users: r.Roster()}
			r.Broadcast(models.Frame{Event: models.EventActiveUsers, Data: payload})
			h.publish(documentID, models.EventActiveUsers, payload)
		})
	}
}

// Broadcast fans an event out to every member of the document's room and
// relays it to other instances. Used for AI results and HTTP-originated
// events.
func (h *Hub) Broadcast(documentID uint, event string, payload any) {
	h.broadcastLocal(documentID, event, payload)
	h.publish(documentID, event, payload)
}

// broadcastLocal delivers to local room members only; remote events arrive
// through here so they are not re-published.
func (h *Hub) broadcastLocal(documentID uint, event string, payload any) {
	h.dispatchExisting(documentID, func(r *Room) {
		r.Broadcast(models.Frame{Event: event, Data: payload})
	})
}

// BroadcastAll sends an event to every connected client regardless of room.
func (h *Hub) BroadcastAll(event string, payload any) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	frame := models.Frame{Event: event, Data: payload}
	for _, c := range clients {
		c.Send(frame)
	}
}

// publish relays a local event to other instances when a bridge is
// attached.
func (h *Hub) publish(documentID uint, event string, payload any) {
	if h.bridge != nil {
		h.bridge.Publish(documentID, event, payload)
	}
}

// RoomCount reports how many rooms currently exist.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// authorize loads the document and user and checks access, emitting the
// discriminated scoped error on failure. No side effects on failure: no
// broadcast, no save, no presence change.
func (h *Hub) authorize(ctx context.Context, c *Client, documentID, userID uint) (*models.User, bool) {
	doc, err := h.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repositories.ErrDocumentNotFound) {
			c.SendError(msgDocumentNotFound)
		} else {
			h.logger.Error("document lookup failed", zap.Uint("document_id", documentID), zap.Error(err))
			c.SendError(err.Error())
		}
		return nil, false
	}

	user, err := h.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.SendError(msgUserNotFound)
		} else {
			h.logger.Error("user lookup failed", zap.Uint("user_id", userID), zap.Error(err))
			c.SendError(err.Error())
		}
		return nil, false
	}

	ok, err := h.access.HasAccess(ctx, doc, userID, user.Email)
	if err != nil {
		h.logger.Error("access check failed", zap.Uint("document_id", documentID), zap.Error(err))
		c.SendError(err.Error())
		return nil, false
	}
	if !ok {
		c.SendError(msgAccessDenied)
		return nil, false
	}
	return user, true
}

func (h *Hub) rememberJoin(c *Client, documentID, userID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.joined[c] == nil {
		h.joined[c] = make(map[uint]uint)
	}
	h.joined[c][documentID] = userID
}

func (h *Hub) forgetJoin(c *Client, documentID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if docs, ok := h.joined[c]; ok {
		delete(docs, documentID)
		if len(docs) == 0 {
			delete(h.joined, c)
		}
	}
}

// dispatch queues the task on the document's serial queue, creating the
// room on first use. The pending counter is bumped while the room lock is
// held, so a room with an enqueue in flight can never be retired; the
// channel send itself happens outside the lock.
func (h *Hub) dispatch(documentID uint, task func(*Room)) {
	h.mu.Lock()
	room, ok := h.rooms[documentID]
	if !ok {
		room = newRoom(documentID)
		h.rooms[documentID] = room
		metrics.ActiveRooms.Set(float64(len(h.rooms)))
		go room.run(h.tryRetire)
	}
	room.pending.Add(1)
	h.mu.Unlock()

	room.tasks <- func() { task(room) }
}

// dispatchExisting queues the task only if the room exists; events for
// rooms nobody occupies are dropped.
func (h *Hub) dispatchExisting(documentID uint, task func(*Room)) {
	h.mu.Lock()
	room, ok := h.rooms[documentID]
	if ok {
		room.pending.Add(1)
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	room.tasks <- func() { task(room) }
}

// tryRetire discards the room once its queue is drained and the last member
// is gone, so a fresh join starts from a clean slate.
func (h *Hub) tryRetire(r *Room) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r.pending.Load() > 0 {
		return false
	}
	if r.ClientCount() > 0 || r.PresenceCount() > 0 {
		return false
	}
	delete(h.rooms, r.DocumentID)
	metrics.ActiveRooms.Set(float64(len(h.rooms)))
	return true
}
