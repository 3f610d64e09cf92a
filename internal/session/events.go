package session

import (
	"log/slog"

	"github.com/diogo/agentchat/internal/api"
	"github.com/diogo/agentchat/internal/models"
)

var _ api.Handler = (*Session)(nil)

// Apply routes one channel event to the session
func (s *Session) Apply(ev models.Event) {
	if !api.Dispatch(ev, s) {
		s.logger.Debug("ignoring event", slog.String("type", ev.RawType))
	}
}

// ChannelClosed records the end of the push channel. err is the channel's
// transport error, nil when it was closed deliberately.
func (s *Session) ChannelClosed(err error) {
	if err != nil {
		s.TransportError(err)
		return
	}
	s.connected = false
	s.lost = true
	s.closeCurrent()
}
