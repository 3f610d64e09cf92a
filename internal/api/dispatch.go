package api

import "github.com/diogo/agentchat/internal/models"

// Handler receives demultiplexed channel activity.
type Handler interface {
	Connected(sessionID string)
	Chunk(text string)
	Complete()
	ServerError(msg string)
	// TransportError reports that the channel failed and will deliver no
	// further events.
	TransportError(err error)
}

// Dispatch routes ev to the matching Handler method. It reports false for
// event types it ignores.
func Dispatch(ev models.Event, h Handler) bool {
	switch ev.Type {
	case models.EventConnected:
		h.Connected(ev.SessionID)
	case models.EventChunk:
		h.Chunk(ev.Content)
	case models.EventComplete:
		h.Complete()
	case models.EventError:
		h.ServerError(ev.Error)
	default:
		return false
	}
	return true
}
