package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"documind/internal/access"
	"documind/internal/ai"
	"documind/internal/metrics"
	"documind/internal/models"
	"documind/internal/repositories"
	"documind/internal/session"
)

type Handlers struct {
	logger    *zap.Logger
	hub       *session.Hub
	checker   *access.Checker
	docs      *repositories.DocumentRepository
	users     *repositories.UserRepository
	shares    *repositories.ShareRepository
	summaries *repositories.SummaryRepository
	pipeline  *ai.Pipeline
	jwtSecret string
}

func NewHandlers(
	logger *zap.Logger,
	hub *session.Hub,
	checker *access.Checker,
	docs *repositories.DocumentRepository,
	users *repositories.UserRepository,
	shares *repositories.ShareRepository,
	summaries *repositories.SummaryRepository,
	pipeline *ai.Pipeline,
	jwtSecret string,
) *Handlers {
	return &Handlers{
		logger:    logger,
		hub:       hub,
		checker:   checker,
		docs:      docs,
		users:     users,
		shares:    shares,
		summaries: summaries,
		pipeline:  pipeline,
		jwtSecret: jwtSecret,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

/*** Collaboration WebSocket ***/

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// CollabWS upgrades the connection and pumps events into the hub until the
// transport drops. The hub's disconnect path cleans up presence and typing
// state for every room the connection joined.
func (h *Handlers) CollabWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := session.NewClient(conn)
	h.hub.Register(client)
	defer h.hub.Disconnect(client)

	for {
		var frame models.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		h.handleFrame(client, frame)
	}
}

func (h *Handlers) handleFrame(client *session.Client, frame models.Frame) {
	metrics.CollabEvents.WithLabelValues(frame.Event).Inc()

	switch frame.Event {
	case models.EventJoinDocument:
		var p models.JoinPayload
		if !h.decode(client, frame.Data, &p) {
			return
		}
		h.hub.JoinDocument(client, p.DocumentID, p.UserID)

	case models.EventUpdateDocument:
		var p models.EditPayload
		if !h.decode(client, frame.Data, &p) {
			return
		}
		h.hub.UpdateDocument(client, p.DocumentID, p.Content, p.UserID)

	case models.EventUserTyping:
		var p models.TypingPayload
		if !h.decode(client, frame.Data, &p) {
			return
		}
		h.hub.SetTyping(client, p)

	case models.EventUserStopTyping:
		var p models.StopTypingPayload
		if !h.decode(client, frame.Data, &p) {
			return
		}
		h.hub.ClearTyping(client, p.DocumentID, p.UserID)

	case models.EventLeaveDocument:
		var p models.JoinPayload
		if !h.decode(client, frame.Data, &p) {
			return
		}
		h.hub.LeaveDocument(client, p.DocumentID, p.UserID)

	default:
		client.SendError("unknown event: " + frame.Event)
	}
}

// decode re-marshals the frame data into the expected payload type. A
// malformed payload gets a scoped error instead of flowing on as zero
// values.
func (h *Handlers) decode(client *session.Client, in any, out any) bool {
	b, err := json.Marshal(in)
	if err == nil {
		err = json.Unmarshal(b, out)
	}
	if err != nil {
		h.logger.Warn("malformed event payload", zap.Error(err))
		client.SendError("Invalid payload")
		return false
	}
	return true
}
