package trainer

import (
	"speechtrainer/internal/analysis"
	"speechtrainer/internal/speech"
)

// EventType identifies a session event.
type EventType string

const (
	// EventStatus - session lifecycle messages.
	EventStatus EventType = "status"
	// EventPartial - revised transcript of the current utterance.
	EventPartial EventType = "partial"
	// EventFinal - a confirmed utterance with word-level detail.
	EventFinal EventType = "final"
	// EventStats - periodic metrics snapshot.
	EventStats EventType = "stats"
	// EventError - a fatal session error.
	EventError EventType = "error"
)

// Event is a message published by a running session. The JSON shape is
// what the websocket feed delivers to clients.
type Event struct {
	Type    EventType       `json:"type"`
	Message string          `json:"message,omitempty"`
	Text    string          `json:"text,omitempty"`
	Words   []speech.Word   `json:"words,omitempty"`
	Stats   *analysis.Stats `json:"data,omitempty"`
}
