package models

// EventType discriminates inbound push channel events
type EventType string

const (
	EventConnected EventType = "connected"
	EventChunk     EventType = "chunk"
	EventComplete  EventType = "complete"
	EventError     EventType = "error"

	// EventUnknown marks payloads whose type is not understood. They are ignored.
	EventUnknown EventType = ""
)

// Event is one decoded push channel payload
type Event struct {
	Type EventType
	// RawType keeps the discriminator as sent, including unknown values like "start"
	RawType      string
	Content      string
	Error        string
	Author       string
	SessionID    string
	FullResponse string
}

// ParseEventType maps a wire discriminator to an EventType
func ParseEventType(s string) EventType {
	switch EventType(s) {
	case EventConnected, EventChunk, EventComplete, EventError:
		return EventType(s)
	default:
		return EventUnknown
	}
}
