package models

/*** Collaboration wire protocol ***/

// Frame is the envelope for every message on a collaboration WebSocket.
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Client -> server events.
const (
	EventJoinDocument   = "joinDocument"
	EventUpdateDocument = "updateDocument"
	EventUserTyping     = "userTyping"
	EventUserStopTyping = "userStoppedTyping"
	EventLeaveDocument  = "leaveDocument"
)

// Server -> client events.
const (
	EventActiveUsers    = "activeUsers"
	EventContentUpdated = "documentContentUpdated"
	EventAISuggestion   = "aiSuggestion"
	EventAISummary      = "aiSummary"
	EventNewDocument    = "newDocument"
	EventError          = "error"
)

type JoinPayload struct {
	DocumentID uint `json:"documentId"`
	UserID     uint `json:"userId"`
}

type EditPayload struct {
	DocumentID uint   `json:"documentId"`
	Content    string `json:"content"`
	UserID     uint   `json:"userId"`
}

type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type TypingPayload struct {
	DocumentID uint       `json:"documentId"`
	UserID     uint       `json:"userId"`
	UserName   string     `json:"userName"`
	CursorPos  int        `json:"cursorPos"`
	Selection  *Selection `json:"selection,omitempty"`
}

type StopTypingPayload struct {
	DocumentID uint `json:"documentId"`
	UserID     uint `json:"userId"`
}

// PresenceEntry is one member of a document's live roster.
type PresenceEntry struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type ActiveUsersPayload struct {
	DocumentID uint            `json:"documentId"`
	Users      []PresenceEntry `json:"users"`
}

type SuggestionPayload struct {
	DocumentID uint   `json:"documentId"`
	Suggestion string `json:"suggestion"`
}

type SummaryPayload struct {
	DocumentID uint   `json:"documentId"`
	Summary    string `json:"summary"`
}

type NewDocumentPayload struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	UserID   uint   `json:"userId"`
	IsPublic bool   `json:"isPublic"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
