// Package session holds the state of one chat session and applies channel
// events, user actions and archive operations to it.
//
// A Session is not safe for concurrent use. Every method must be called from
// the single event loop of the front end (the bubbletea Update loop or the
// one-shot select loop); only the Submission returned by Send may run
// elsewhere.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/diogo/agentchat/internal/errors"
	"github.com/diogo/agentchat/internal/history"
	"github.com/diogo/agentchat/internal/models"
	"github.com/diogo/agentchat/internal/render"
	"github.com/diogo/agentchat/internal/stream"
)

// Level is the severity of a notification
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier shows transient messages to the user
type Notifier interface {
	Notify(level Level, msg string)
}

// Confirmer asks the user to approve a destructive action
type Confirmer interface {
	Confirm(prompt string) bool
}

// Submitter delivers user messages to the server. *api.Client satisfies it.
type Submitter interface {
	Submit(ctx context.Context, sessionID, text string) error
}

// Submission performs the network half of Send. It touches no session state
// and may run off the event loop.
type Submission func(ctx context.Context) error

// NewID returns a fresh session identifier
func NewID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), random)
}

// Session is the explicit session context
type Session struct {
	id         string
	agent      string
	transcript models.Transcript
	current    *stream.Handle
	connected  bool
	lost       bool

	reconciler *stream.Reconciler
	archive    *history.Store
	submitter  Submitter
	notifier   Notifier
	confirmer  Confirmer
	logger     *slog.Logger
}

// Option configures a Session
type Option func(*Session)

// WithID sets the session identifier instead of generating one
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithAgent sets the initial agent
func WithAgent(name string) Option {
	return func(s *Session) { s.agent = name }
}

// WithNotifier sets the notification sink
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithConfirmer sets the confirmation prompt
func WithConfirmer(c Confirmer) Option {
	return func(s *Session) { s.confirmer = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

type discardNotifier struct{}

func (discardNotifier) Notify(Level, string) {}

type denyAll struct{}

func (denyAll) Confirm(string) bool { return false }

// New creates a session drawing through reconciler and saving to archive
func New(reconciler *stream.Reconciler, archive *history.Store, submitter Submitter, opts ...Option) *Session {
	s := &Session{
		agent:      models.DefaultAgent,
		reconciler: reconciler,
		archive:    archive,
		submitter:  submitter,
		notifier:   discardNotifier{},
		confirmer:  denyAll{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = NewID()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	s.logger = s.logger.With(slog.String("session", s.id))
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Agent returns the active agent name
func (s *Session) Agent() string {
	return s.agent
}

// Transcript returns a copy of the current transcript
func (s *Session) Transcript() models.Transcript {
	return s.transcript.Clone()
}

// ChannelLost reports whether the push channel ended. No reply can arrive
// afterwards, so Send refuses new messages.
func (s *Session) ChannelLost() bool {
	return s.lost
}

// IsConnected reports whether the server acknowledged the push channel
func (s *Session) IsConnected() bool {
	return s.connected
}

// Streaming reports whether an agent response is still in flight
func (s *Session) Streaming() bool {
	return s.current != nil && !s.current.Closed()
}

// Send records text as a user message, draws it and opens the slot for the
// reply. The returned Submission must be run to deliver the message; a
// failure should be reported back through SubmitFailed.
func (s *Session) Send(text string) (Submission, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierrors.ErrEmptyMessage
	}
	if s.Streaming() {
		return nil, apierrors.ErrResponseInFlight
	}
	if s.lost {
		s.notifier.Notify(LevelError, "Not connected to the server")
		return nil, apierrors.ErrChannelClosed
	}

	s.transcript = s.transcript.Append(models.RoleUser, text)
	s.reconciler.Redraw(models.RoleUser, text)
	s.current = s.reconciler.StartMessage()

	s.logger.Debug("message queued", slog.Int("length", len(text)))

	id, submitter := s.id, s.submitter
	return func(ctx context.Context) error {
		return submitter.Submit(ctx, id, text)
	}, nil
}

// SubmitFailed reports a failed submission. The user message stays in the
// transcript and the reply slot is closed so the user can send again.
func (s *Session) SubmitFailed(err error) {
	s.logger.Warn("submit failed", slog.Any("error", err))
	s.reconciler.Abandon(s.current, "Message not delivered")
	s.notifier.Notify(LevelError, "Failed to send message")
}

func (s *Session) closeCurrent() string {
	if s.current == nil {
		return ""
	}
	return s.reconciler.CompleteMessage(s.current)
}

// Connected implements api.Handler
func (s *Session) Connected(sessionID string) {
	s.connected = true
	s.lost = false
	s.logger.Debug("connected to server", slog.String("server_session", sessionID))
}

// Chunk implements api.Handler
func (s *Session) Chunk(text string) {
	if s.current == nil || s.current.Closed() {
		s.logger.Debug("dropping fragment without open message", slog.Int("length", len(text)))
		return
	}
	s.reconciler.AppendFragment(s.current, text)
}

// Complete implements api.Handler
func (s *Session) Complete() {
	if !s.Streaming() {
		return
	}
	text := s.closeCurrent()
	s.transcript = s.transcript.Append(models.RoleAgent, text)
	s.logger.Debug("response complete", slog.Int("length", len(text)))
}

// ServerError implements api.Handler. The in-flight message ends with
// whatever text already arrived; it is not added to the transcript.
func (s *Session) ServerError(msg string) {
	s.closeCurrent()
	s.notifier.Notify(LevelError, "Error: "+msg)
}

// TransportError implements api.Handler
func (s *Session) TransportError(err error) {
	s.connected = false
	s.lost = true
	s.closeCurrent()
	s.logger.Warn("push channel lost", slog.Any("error", err))
	s.notifier.Notify(LevelError, "Connection lost")
}

// Clear empties the transcript after confirmation. It reports whether the
// transcript was cleared.
func (s *Session) Clear() bool {
	if !s.confirmer.Confirm("Clear all messages?") {
		return false
	}
	s.closeCurrent()
	s.current = nil
	s.transcript = nil
	s.notifier.Notify(LevelInfo, "Chat cleared")
	return true
}

// Save archives the transcript
func (s *Session) Save() (history.Conversation, error) {
	conv, err := s.archive.Save(s.transcript, s.agent)
	if err != nil {
		if errors.Is(err, apierrors.ErrNothingToSave) {
			s.notifier.Notify(LevelWarning, "No messages to save")
			return history.Conversation{}, err
		}
		s.notifier.Notify(LevelError, "Failed to save conversation")
		return history.Conversation{}, err
	}
	s.notifier.Notify(LevelSuccess, "Conversation saved!")
	return conv, nil
}

// Load replaces the transcript and agent with a saved conversation and
// redraws every message. The caller clears the display first.
func (s *Session) Load(id string) error {
	conv, ok := s.archive.Find(id)
	if !ok {
		return fmt.Errorf("%s: %w", id, apierrors.ErrNotFound)
	}

	s.closeCurrent()
	s.current = nil
	s.transcript = models.Transcript(conv.Messages).Clone()
	if agent := render.StripTerminal(conv.Agent); agent != "" {
		s.agent = agent
	}
	for _, m := range s.transcript {
		s.reconciler.Redraw(m.Role, m.Content)
	}

	s.notifier.Notify(LevelInfo, "Conversation loaded")
	return nil
}

// Delete removes a saved conversation after confirmation
func (s *Session) Delete(id string) error {
	if !s.confirmer.Confirm("Delete this conversation?") {
		return apierrors.ErrNotConfirmed
	}
	if err := s.archive.Delete(id); err != nil {
		s.notifier.Notify(LevelError, "Failed to delete conversation")
		return err
	}
	s.notifier.Notify(LevelInfo, "Conversation deleted")
	return nil
}

// SelectAgent switches the active agent
func (s *Session) SelectAgent(name string) error {
	agent, ok := models.AgentByName(name)
	if !ok {
		return fmt.Errorf("%q: %w", name, apierrors.ErrUnknownAgent)
	}
	s.agent = agent.Name
	s.notifier.Notify(LevelInfo, "Switched to "+agent.Name)
	return nil
}
