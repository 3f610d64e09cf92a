package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/diogo/agentchat/internal/errors"
	"github.com/diogo/agentchat/internal/history"
	"github.com/diogo/agentchat/internal/models"
	"github.com/diogo/agentchat/internal/render"
	"github.com/diogo/agentchat/internal/storage"
	"github.com/diogo/agentchat/internal/stream"
)

type displaySlot struct {
	role    models.Role
	content render.Markup
}

type fakeDisplay struct {
	slots []*displaySlot
}

func (d *fakeDisplay) NewSlot(role models.Role) int {
	d.slots = append(d.slots, &displaySlot{role: role})
	return len(d.slots) - 1
}

func (d *fakeDisplay) ReplaceSlot(i int, m render.Markup) {
	d.slots[i].content = m
}

type notice struct {
	level Level
	msg   string
}

type fakeNotifier struct {
	notices []notice
}

func (n *fakeNotifier) Notify(level Level, msg string) {
	n.notices = append(n.notices, notice{level, msg})
}

func (n *fakeNotifier) last() notice {
	if len(n.notices) == 0 {
		return notice{}
	}
	return n.notices[len(n.notices)-1]
}

type fakeConfirmer struct {
	answer  bool
	prompts []string
}

func (c *fakeConfirmer) Confirm(prompt string) bool {
	c.prompts = append(c.prompts, prompt)
	return c.answer
}

type fakeSubmitter struct {
	err   error
	calls []string
}

func (f *fakeSubmitter) Submit(_ context.Context, sessionID, text string) error {
	f.calls = append(f.calls, sessionID+":"+text)
	return f.err
}

type fixture struct {
	session   *Session
	display   *fakeDisplay
	notifier  *fakeNotifier
	confirmer *fakeConfirmer
	submitter *fakeSubmitter
	archive   *history.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		display:   &fakeDisplay{},
		notifier:  &fakeNotifier{},
		confirmer: &fakeConfirmer{answer: true},
		submitter: &fakeSubmitter{},
		archive:   history.NewStore(storage.NewMemory()),
	}
	rec := stream.NewReconciler(render.NewHTMLRenderer(), f.display)
	f.session = New(rec, f.archive, f.submitter,
		WithID("session_test"),
		WithNotifier(f.notifier),
		WithConfirmer(f.confirmer),
	)
	return f
}

func (f *fixture) send(t *testing.T, text string) {
	t.Helper()
	submit, err := f.session.Send(text)
	require.NoError(t, err)
	require.NoError(t, submit(context.Background()))
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.True(t, strings.HasPrefix(a, "session_"))
	assert.NotEqual(t, a, b)
	assert.Len(t, strings.Split(a, "_"), 3)
}

func TestNew_Defaults(t *testing.T) {
	s := New(stream.NewReconciler(render.NewHTMLRenderer(), &fakeDisplay{}), history.NewStore(storage.NewMemory()), &fakeSubmitter{})

	assert.True(t, strings.HasPrefix(s.ID(), "session_"))
	assert.Equal(t, models.DefaultAgent, s.Agent())
	assert.Empty(t, s.Transcript())
	assert.False(t, s.Clear(), "default confirmer must refuse destructive actions")
}

func TestHelloScenario(t *testing.T) {
	f := newFixture(t)

	f.session.Apply(models.Event{Type: models.EventConnected, SessionID: "session_test"})
	assert.True(t, f.session.IsConnected())

	f.send(t, "Hello")
	assert.Equal(t, []string{"session_test:Hello"}, f.submitter.calls)
	assert.True(t, f.session.Streaming())

	f.session.Apply(models.Event{Type: models.EventUnknown, RawType: "start"})
	for _, frag := range []string{"Hi", " there", "!"} {
		f.session.Apply(models.Event{Type: models.EventChunk, Content: frag})
	}
	f.session.Apply(models.Event{Type: models.EventComplete, FullResponse: "Hi there!"})

	assert.False(t, f.session.Streaming())
	assert.Equal(t, models.Transcript{
		{Role: models.RoleUser, Content: "Hello"},
		{Role: models.RoleAgent, Content: "Hi there!"},
	}, f.session.Transcript())

	require.Len(t, f.display.slots, 2)
	assert.Equal(t, models.RoleUser, f.display.slots[0].role)
	assert.Equal(t, models.RoleAgent, f.display.slots[1].role)
	assert.Equal(t, "<p>Hi there!</p>\n", f.display.slots[1].content.String())

	conv, err := f.session.Save()
	require.NoError(t, err)
	assert.Equal(t, "Hello", conv.Title)
	assert.Equal(t, models.DefaultAgent, conv.Agent)
	assert.Equal(t, LevelSuccess, f.notifier.last().level)

	list := f.archive.List()
	require.Len(t, list, 1)
	assert.Equal(t, []models.Message(f.session.Transcript()), list[0].Messages)
}

func TestInjectionIsLiteral(t *testing.T) {
	f := newFixture(t)

	f.send(t, "<script>alert(1)</script>")

	shown := f.display.slots[0].content.String()
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", shown)
	assert.NotContains(t, shown, "<script")
}

func TestSend_Rejections(t *testing.T) {
	f := newFixture(t)

	_, err := f.session.Send("   \n")
	assert.ErrorIs(t, err, apierrors.ErrEmptyMessage)
	assert.Empty(t, f.display.slots)

	f.send(t, "first")
	_, err = f.session.Send("second")
	assert.ErrorIs(t, err, apierrors.ErrResponseInFlight)
	assert.Len(t, f.session.Transcript(), 1)

	f.session.Complete()
	_, err = f.session.Send("second")
	assert.NoError(t, err)
}

func TestSend_TrimsInput(t *testing.T) {
	f := newFixture(t)
	f.send(t, "  padded  ")

	assert.Equal(t, "padded", f.session.Transcript()[0].Content)
	assert.Equal(t, []string{"session_test:padded"}, f.submitter.calls)
}

func TestSubmitFailure_KeepsUserMessage(t *testing.T) {
	f := newFixture(t)
	f.submitter.err = apierrors.NewNetworkError("submit", errors.New("refused"))

	submit, err := f.session.Send("are you there?")
	require.NoError(t, err)
	f.session.SubmitFailed(submit(context.Background()))

	assert.Equal(t, notice{LevelError, "Failed to send message"}, f.notifier.last())
	require.Len(t, f.session.Transcript(), 1)
	assert.Equal(t, "are you there?", f.session.Transcript()[0].Content)
	assert.False(t, f.session.Streaming(), "user should be able to send again")

	require.Len(t, f.display.slots, 2)
	assert.Equal(t, "Message not delivered", f.display.slots[1].content.String())
}

func TestServerError(t *testing.T) {
	f := newFixture(t)
	f.send(t, "question")

	f.session.Apply(models.Event{Type: models.EventChunk, Content: "partial"})
	f.session.Apply(models.Event{Type: models.EventError, Error: "agent crashed"})

	assert.Equal(t, notice{LevelError, "Error: agent crashed"}, f.notifier.last())
	assert.False(t, f.session.Streaming())

	// A late chunk or complete after the error changes nothing
	before := f.display.slots[1].content
	f.session.Apply(models.Event{Type: models.EventChunk, Content: " more"})
	f.session.Apply(models.Event{Type: models.EventComplete})

	assert.Equal(t, before, f.display.slots[1].content)
	assert.Len(t, f.session.Transcript(), 1)
}

func TestTransportError(t *testing.T) {
	f := newFixture(t)
	f.session.Connected("session_test")
	f.send(t, "question")

	f.session.ChannelClosed(apierrors.NewNetworkError("read channel", errors.New("EOF")))

	assert.Equal(t, notice{LevelError, "Connection lost"}, f.notifier.last())
	assert.False(t, f.session.IsConnected())
	assert.False(t, f.session.Streaming())

	// Deliberate close is silent
	n := len(f.notifier.notices)
	f.session.ChannelClosed(nil)
	assert.Len(t, f.notifier.notices, n)
}

func TestSend_AfterChannelLoss(t *testing.T) {
	f := newFixture(t)
	f.session.Connected("session_test")
	f.send(t, "question")

	f.session.ChannelClosed(apierrors.NewNetworkError("read channel", errors.New("EOF")))
	require.True(t, f.session.ChannelLost())
	slots := len(f.display.slots)

	for _, text := range []string{"hello again", "still there?"} {
		_, err := f.session.Send(text)
		assert.ErrorIs(t, err, apierrors.ErrChannelClosed)
		assert.Equal(t, notice{LevelError, "Not connected to the server"}, f.notifier.last())
	}
	assert.False(t, f.session.Streaming())
	assert.Len(t, f.display.slots, slots, "no reply slot may open without a channel")
	assert.Len(t, f.session.Transcript(), 1)
	assert.Equal(t, []string{"session_test:question"}, f.submitter.calls)

	// Archive actions keep working
	_, err := f.session.Save()
	assert.NoError(t, err)
}

func TestSend_AfterCleanClose(t *testing.T) {
	f := newFixture(t)
	f.session.Connected("session_test")
	f.session.ChannelClosed(nil)

	_, err := f.session.Send("hello")
	assert.ErrorIs(t, err, apierrors.ErrChannelClosed)
	assert.Empty(t, f.display.slots)
}

func TestChunkWithoutMessageIgnored(t *testing.T) {
	f := newFixture(t)

	f.session.Chunk("stray")
	f.session.Complete()

	assert.Empty(t, f.display.slots)
	assert.Empty(t, f.session.Transcript())
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	f.send(t, "hello")

	f.confirmer.answer = false
	assert.False(t, f.session.Clear())
	assert.Len(t, f.session.Transcript(), 1)

	f.confirmer.answer = true
	assert.True(t, f.session.Clear())
	assert.Empty(t, f.session.Transcript())
	assert.Equal(t, "Chat cleared", f.notifier.last().msg)
	assert.Equal(t, []string{"Clear all messages?", "Clear all messages?"}, f.confirmer.prompts)
}

func TestSave_Empty(t *testing.T) {
	f := newFixture(t)

	_, err := f.session.Save()
	assert.ErrorIs(t, err, apierrors.ErrNothingToSave)
	assert.Equal(t, notice{LevelWarning, "No messages to save"}, f.notifier.last())
	assert.Empty(t, f.archive.List())
}

func TestLoad(t *testing.T) {
	f := newFixture(t)
	saved, err := f.archive.Save(models.Transcript{
		{Role: models.RoleUser, Content: "stock of sku 42?"},
		{Role: models.RoleAgent, Content: "**12** units"},
	}, "inventory_agent")
	require.NoError(t, err)

	require.NoError(t, f.session.Load(saved.ID))

	assert.Equal(t, "inventory_agent", f.session.Agent())
	assert.Len(t, f.session.Transcript(), 2)
	require.Len(t, f.display.slots, 2)
	assert.Contains(t, f.display.slots[1].content.String(), "<strong>12</strong>")
	assert.Equal(t, "Conversation loaded", f.notifier.last().msg)

	assert.ErrorIs(t, f.session.Load("conv_missing"), apierrors.ErrNotFound)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	saved, _ := f.archive.Save(models.Transcript{{Role: models.RoleUser, Content: "x"}}, "a")

	f.confirmer.answer = false
	assert.ErrorIs(t, f.session.Delete(saved.ID), apierrors.ErrNotConfirmed)
	assert.Len(t, f.archive.List(), 1)

	f.confirmer.answer = true
	require.NoError(t, f.session.Delete(saved.ID))
	assert.Empty(t, f.archive.List())
	assert.Equal(t, "Conversation deleted", f.notifier.last().msg)
}

func TestSelectAgent(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.session.SelectAgent("Inventory_Agent"))
	assert.Equal(t, "inventory_agent", f.session.Agent())
	assert.Equal(t, "Switched to inventory_agent", f.notifier.last().msg)

	assert.ErrorIs(t, f.session.SelectAgent("nope"), apierrors.ErrUnknownAgent)
	assert.Equal(t, "inventory_agent", f.session.Agent())
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "success", LevelSuccess.String())
	assert.Equal(t, "warning", LevelWarning.String())
	assert.Equal(t, "error", LevelError.String())
}
