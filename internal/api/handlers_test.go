package api

import (
	"sync"
	"testing"

	"go.uber.org/zap"

	"documind/internal/models"
	"documind/internal/session"
)

type frameCapture struct {
	mu     sync.Mutex
	frames []models.Frame
}

func (c *frameCapture) hook(frame models.Frame) {
	c.mu.Lock()
	c.frames = append(c.frames, frame)
	c.mu.Unlock()
}

func (c *frameCapture) list() []models.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

func errorMessages(frames []models.Frame) []string {
	var out []string
	for _, f := range frames {
		if f.Event != models.EventError {
			continue
		}
		if p, ok := f.Data.(models.ErrorPayload); ok {
			out = append(out, p.Message)
		}
	}
	return out
}

func newFrameTestHandlers() *Handlers {
	return NewHandlers(zap.NewNop(), nil, nil, nil, nil, nil, nil, nil, "secret")
}

func TestHandleFrameMalformedPayload(t *testing.T) {
	h := newFrameTestHandlers()

	// Wrong payload shapes for every client event; none may reach the hub
	// (nil here, so reaching it would panic) and each gets a scoped error.
	cases := []struct {
		name  string
		event string
		data  any
	}{
		{"join with string ids", models.EventJoinDocument, map[string]any{"documentId": "abc", "userId": "def"}},
		{"edit with object content", models.EventUpdateDocument, map[string]any{"documentId": 1, "content": map[string]any{}}},
		{"typing with string cursor", models.EventUserTyping, map[string]any{"documentId": 1, "cursorPos": "here"}},
		{"stop typing with array", models.EventUserStopTyping, []any{1, 2}},
		{"leave with bool id", models.EventLeaveDocument, map[string]any{"documentId": true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			capture := &frameCapture{}
			client := session.NewClient(nil)
			client.SetSendHook(capture.hook)

			h.handleFrame(client, models.Frame{Event: tc.event, Data: tc.data})

			msgs := errorMessages(capture.list())
			if len(msgs) != 1 || msgs[0] != "Invalid payload" {
				t.Fatalf("expected scoped invalid payload error, got %#v", capture.list())
			}
		})
	}
}

func TestHandleFrameUnknownEvent(t *testing.T) {
	h := newFrameTestHandlers()

	capture := &frameCapture{}
	client := session.NewClient(nil)
	client.SetSendHook(capture.hook)

	h.handleFrame(client, models.Frame{Event: "mystery"})

	msgs := errorMessages(capture.list())
	if len(msgs) != 1 || msgs[0] != "unknown event: mystery" {
		t.Fatalf("expected unknown event error, got %#v", capture.list())
	}
}
