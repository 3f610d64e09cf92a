package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	fhttp "github.com/bogdanfinn/fhttp"

	apierrors "github.com/diogo/agentchat/internal/errors"
	"github.com/diogo/agentchat/internal/models"
)

// State is the connection state of a Channel
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Channel is the server push channel of one session.
//
// It starts Disconnected, becomes Connected when the server acknowledges the
// session and moves to Error on any transport failure. A failed channel is
// not reopened automatically.
type Channel struct {
	client    *Client
	sessionID string

	mu     sync.Mutex
	state  State
	err    error
	opened bool
}

// NewChannel creates the push channel for sessionID
func (c *Client) NewChannel(sessionID string) *Channel {
	return &Channel{client: c, sessionID: sessionID}
}

// SessionID returns the session the channel belongs to
func (ch *Channel) SessionID() string {
	return ch.sessionID
}

// State returns the current connection state
func (ch *Channel) State() State {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// Err returns the transport error that moved the channel to StateError
func (ch *Channel) Err() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.err
}

func (ch *Channel) setState(s State, err error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.state = s
	if err != nil {
		ch.err = err
	}
}

// Open connects in the background and returns the stream of decoded events.
// The returned channel is closed when ctx is cancelled or the transport
// fails; after that, Err reports the failure (nil after cancellation).
// A Channel can be opened once.
func (ch *Channel) Open(ctx context.Context) (<-chan models.Event, error) {
	ch.mu.Lock()
	if ch.opened {
		ch.mu.Unlock()
		return nil, fmt.Errorf("channel for session %s already opened", ch.sessionID)
	}
	ch.opened = true
	ch.mu.Unlock()

	events := make(chan models.Event, 16)
	go ch.run(ctx, events)
	return events, nil
}

func (ch *Channel) run(ctx context.Context, events chan<- models.Event) {
	defer close(events)

	logger := ch.client.logger.With(slog.String("session", ch.sessionID))
	endpoint := ch.client.endpoint(models.EventsPath(ch.sessionID))

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, endpoint, nil)
	if err != nil {
		ch.fail(ctx, logger, apierrors.NewNetworkErrorWithEndpoint("open channel", endpoint, err))
		return
	}
	setHeaders(req, models.StreamHeaders())

	logger.Debug("opening push channel", slog.String("endpoint", endpoint))
	resp, err := ch.client.stream.Do(req)
	if err != nil {
		ch.fail(ctx, logger, apierrors.NewNetworkErrorWithEndpoint("open channel", endpoint, err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != fhttp.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		ch.fail(ctx, logger, apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, "push channel rejected", string(body)))
		return
	}

	reader := NewSSEReader(resp.Body)
	for {
		_, data, err := reader.ReadEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			ch.fail(ctx, logger, apierrors.NewNetworkErrorWithEndpoint("read channel", endpoint, err))
			return
		}

		ev, err := DecodeEvent(data)
		if err != nil {
			logger.Warn("dropping undecodable event", slog.Any("error", err))
			continue
		}
		if ev.Type == models.EventConnected {
			ch.setState(StateConnected, nil)
		}
		logger.Debug("event", slog.String("type", ev.RawType), slog.Int("bytes", len(data)))

		select {
		case events <- ev:
		case <-ctx.Done():
			ch.setState(StateDisconnected, nil)
			return
		}
	}
}

// fail records a transport error. Failures caused by cancellation leave the
// channel Disconnected instead.
func (ch *Channel) fail(ctx context.Context, logger *slog.Logger, err error) {
	if ctx.Err() != nil {
		ch.setState(StateDisconnected, nil)
		logger.Debug("push channel closed")
		return
	}
	ch.setState(StateError, err)
	logger.Warn("push channel failed", slog.Any("error", err))
}
