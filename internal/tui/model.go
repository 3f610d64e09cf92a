package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/agentchat/internal/api"
	apierrors "github.com/diogo/agentchat/internal/errors"
	"github.com/diogo/agentchat/internal/history"
	"github.com/diogo/agentchat/internal/models"
	"github.com/diogo/agentchat/internal/render"
	"github.com/diogo/agentchat/internal/session"
	"github.com/diogo/agentchat/internal/stream"
)

// Message types for the TUI
type (
	// eventMsg carries one push channel event into the loop
	eventMsg struct {
		event models.Event
	}
	// channelClosedMsg is sent once the push channel has ended
	channelClosedMsg struct{}
	// submitResultMsg reports the outcome of a message submission
	submitResultMsg struct {
		err error
	}
)

type confirmKind int

const (
	confirmClear confirmKind = iota + 1
	confirmDelete
)

// confirmation is a pending y/n question shown in place of the input
type confirmation struct {
	kind   confirmKind
	prompt string
	target string
}

// ChatConfig wires a chat model to its collaborators
type ChatConfig struct {
	SessionID string
	Agent     string
	ServerURL string

	// Submitter delivers user messages, usually the api.Client
	Submitter session.Submitter
	// Events is the push channel's event stream
	Events <-chan models.Event
	// ChannelErr reports why Events was closed
	ChannelErr func() error

	Archive  *history.Store
	Renderer *render.TerminalRenderer
	Logger   *slog.Logger

	// Copy writes text to the clipboard; defaults to atotto/clipboard
	Copy func(string) error
}

// Model represents the TUI state
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	session *session.Session

	display  *Display
	toaster  *Toaster
	gate     *confirmGate
	renderer *render.TerminalRenderer

	events     <-chan models.Event
	channelErr func() error
	serverURL  string
	copy       func(string) error

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	history  historyPanel

	// State
	showHistory bool
	confirm     *confirmation
	closed      bool
	ready       bool

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a new chat TUI model. Cancelling ctx aborts
// in-flight submissions; quitting the model cancels it too.
func NewChatModel(ctx context.Context, cfg ChatConfig) Model {
	ctx, cancel := context.WithCancel(ctx)

	// Create textarea for input
	ta := textarea.New()
	ta.Placeholder = "Type your message here... (/help for commands)"
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	// Style the textarea
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	renderer := cfg.Renderer
	if renderer == nil {
		renderer = render.NewTerminalRenderer(render.DefaultOptions())
	}
	copyFn := cfg.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	channelErr := cfg.ChannelErr
	if channelErr == nil {
		channelErr = func() error { return nil }
	}

	display := &Display{}
	toaster := &Toaster{}
	gate := &confirmGate{}

	opts := []session.Option{
		session.WithNotifier(toaster),
		session.WithConfirmer(gate),
	}
	if cfg.SessionID != "" {
		opts = append(opts, session.WithID(cfg.SessionID))
	}
	if cfg.Agent != "" {
		opts = append(opts, session.WithAgent(cfg.Agent))
	}
	if cfg.Logger != nil {
		opts = append(opts, session.WithLogger(cfg.Logger))
	}
	sess := session.New(stream.NewReconciler(renderer, display), cfg.Archive, cfg.Submitter, opts...)

	return Model{
		ctx:        ctx,
		cancel:     cancel,
		session:    sess,
		display:    display,
		toaster:    toaster,
		gate:       gate,
		renderer:   renderer,
		events:     cfg.Events,
		channelErr: channelErr,
		serverURL:  cfg.ServerURL,
		copy:       copyFn,
		textarea:   ta,
		spinner:    s,
		history:    newHistoryPanel(cfg.Archive),
	}
}

// Session exposes the chat session
func (m Model) Session() *session.Session {
	return m.session
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		waitForEvent(m.events),
	)
}

// waitForEvent returns a command that blocks for the next push channel event
func waitForEvent(events <-chan models.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return channelClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

// submit runs a submission off the loop and reports back
func (m Model) submit(sub session.Submission) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return submitResultMsg{err: sub(ctx)}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}
		if m.confirm != nil {
			m.answerConfirm(msg.String())
			return m, m.toaster.Schedule()
		}
		if m.showHistory {
			cmd = m.updateHistory(msg)
			return m, tea.Batch(cmd, m.toaster.Schedule())
		}

		switch msg.String() {
		case "esc":
			m.cancel()
			return m, tea.Quit
		case "ctrl+s":
			_, _ = m.session.Save()
			return m, m.toaster.Schedule()
		case "ctrl+l":
			m.askConfirm(confirmClear, "Clear all messages?", "")
			return m, nil
		case "ctrl+o":
			return m, m.openHistory()
		case "ctrl+y":
			m.copyLast()
			return m, m.toaster.Schedule()
		case "enter":
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()
			if strings.HasPrefix(input, "/") || input == "exit" || input == "quit" {
				cmd = m.runCommand(input)
				return m, tea.Batch(cmd, m.toaster.Schedule())
			}
			cmd = m.send(input)
			if cmd != nil {
				cmds = append(cmds, cmd, m.spinner.Tick)
			}
			cmds = append(cmds, m.toaster.Schedule())
			return m, tea.Batch(cmds...)
		}

	case eventMsg:
		m.session.Apply(msg.event)
		m.refresh()
		cmds = append(cmds, waitForEvent(m.events))

	case channelClosedMsg:
		m.closed = true
		m.session.ChannelClosed(m.channelErr())
		m.refresh()

	case submitResultMsg:
		if msg.err != nil {
			m.session.SubmitFailed(msg.err)
			m.refresh()
		}

	case toastExpiredMsg:
		m.toaster.Expire(msg.id)

	case spinner.TickMsg:
		if m.session.Streaming() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, m.toaster.Schedule())

	// Only pass KeyMsg to textarea to prevent escape sequence leaks
	if _, ok := msg.(tea.KeyMsg); ok {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 4 // Header panel with border
	inputHeight := 6  // Input panel with border
	statusHeight := 2 // Toast line and status bar
	padding := 2

	vpHeight := height - headerHeight - inputHeight - statusHeight - padding
	if vpHeight < 5 {
		vpHeight = 5
	}
	contentWidth := width - 4

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
	m.renderer.SetWidth(m.bubbleWidth() - 4)
	m.refresh()
}

func (m Model) bubbleWidth() int {
	w := m.viewport.Width - 6
	if w < 20 {
		w = 20
	}
	return w
}

// send starts a new exchange. It returns the submission command, or nil
// when the message was rejected.
func (m *Model) send(input string) tea.Cmd {
	sub, err := m.session.Send(input)
	if err != nil {
		if errors.Is(err, apierrors.ErrResponseInFlight) {
			m.toaster.Notify(session.LevelWarning, "Wait for the current response to finish")
		}
		return nil
	}
	m.refresh()
	m.viewport.GotoBottom()
	return m.submit(sub)
}

// runCommand handles slash commands typed into the input
func (m *Model) runCommand(input string) tea.Cmd {
	fields := strings.Fields(input)
	name := strings.TrimPrefix(fields[0], "/")
	args := fields[1:]

	switch name {
	case "exit", "quit":
		m.cancel()
		return tea.Quit
	case "help":
		m.toaster.Notify(session.LevelInfo,
			"/agent <name> • /agents • /save • /clear • /history • /copy • /exit")
	case "agents":
		m.toaster.Notify(session.LevelInfo, "Agents: "+strings.Join(models.AgentNames(), ", "))
	case "agent":
		if len(args) == 0 {
			m.toaster.Notify(session.LevelInfo, "Current agent: "+m.session.Agent())
			return nil
		}
		if err := m.session.SelectAgent(args[0]); err != nil {
			m.toaster.Notify(session.LevelError, "Unknown agent: "+args[0])
		}
	case "save":
		_, _ = m.session.Save()
	case "clear":
		m.askConfirm(confirmClear, "Clear all messages?", "")
	case "history":
		return m.openHistory()
	case "copy":
		m.copyLast()
	default:
		m.toaster.Notify(session.LevelWarning, "Unknown command: /"+name)
	}
	return nil
}

func (m *Model) askConfirm(kind confirmKind, prompt, target string) {
	m.confirm = &confirmation{kind: kind, prompt: prompt, target: target}
	m.textarea.Blur()
}

// answerConfirm resolves the pending question. Only "y" approves.
func (m *Model) answerConfirm(key string) {
	c := m.confirm
	switch strings.ToLower(key) {
	case "y":
	case "n", "esc", "enter":
		m.confirm = nil
		m.restoreFocus()
		return
	default:
		return
	}

	m.confirm = nil
	m.gate.approve()
	switch c.kind {
	case confirmClear:
		if m.session.Clear() {
			m.display.Reset()
			m.refresh()
		}
	case confirmDelete:
		if err := m.session.Delete(c.target); err == nil {
			m.history.refresh()
		}
	}
	m.restoreFocus()
}

func (m *Model) restoreFocus() {
	if !m.showHistory {
		m.textarea.Focus()
	}
}

func (m *Model) openHistory() tea.Cmd {
	m.showHistory = true
	m.textarea.Blur()
	return m.history.open()
}

func (m *Model) closeHistory() {
	m.showHistory = false
	m.history.close()
	m.textarea.Focus()
}

func (m *Model) updateHistory(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.closeHistory()
		return nil
	case "enter":
		conv, ok := m.history.selected()
		if !ok {
			return nil
		}
		if m.session.Streaming() {
			m.toaster.Notify(session.LevelWarning, "Wait for the current response to finish")
			return nil
		}
		m.display.Reset()
		if err := m.session.Load(conv.ID); err != nil {
			m.toaster.Notify(session.LevelError, "Failed to load conversation")
			m.history.refresh()
			return nil
		}
		m.closeHistory()
		m.refresh()
		m.viewport.GotoBottom()
		return nil
	case "ctrl+d":
		if conv, ok := m.history.selected(); ok {
			m.askConfirm(confirmDelete, fmt.Sprintf("Delete %q?", conv.Title), conv.ID)
		}
		return nil
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.update(msg)
	return cmd
}

// copyLast puts the last agent reply on the clipboard
func (m *Model) copyLast() {
	last, ok := m.session.Transcript().LastAgent()
	if !ok {
		m.toaster.Notify(session.LevelWarning, "No response to copy")
		return
	}
	if err := m.copy(last.Content); err != nil {
		m.toaster.Notify(session.LevelError, "Clipboard unavailable")
		return
	}
	m.toaster.Notify(session.LevelSuccess, "Copied to clipboard")
}

// refresh redraws the message list into the viewport
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.display.Render(m.bubbleWidth(), m.session.Agent()))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	sections = append(sections, m.renderHeader(contentWidth))

	if m.showHistory {
		sections = append(sections, m.history.view(contentWidth, m.viewport.Height))
	} else {
		var messagesContent string
		if m.display.Len() == 0 {
			messagesContent = m.renderWelcome()
		} else {
			messagesContent = m.viewport.View()
		}
		sections = append(sections, messagesAreaStyle.
			Width(contentWidth).
			Height(m.viewport.Height).
			Render(messagesContent))
	}

	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(m.renderInput()))
	sections = append(sections, m.toaster.View())

	if m.closed {
		if err := m.channelErr(); err != nil {
			sections = append(sections, m.formatError(err))
		}
	}

	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(width int) string {
	state := connectedStyle.Render("● connected")
	if !m.session.IsConnected() {
		state = disconnectedStyle.Render("○ offline")
	}

	content := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("✦ Agent Chat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.session.Agent()),
		hintStyle.Render("  •  "),
		state,
	)
	return headerStyle.Width(width).Render(content)
}

func (m Model) renderInput() string {
	if m.confirm != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			confirmStyle.Render(m.confirm.prompt),
			hintStyle.Render("y confirm • n cancel"),
		)
	}

	label := inputLabelStyle.Render("You")
	if m.session.Streaming() {
		label = lipgloss.JoinHorizontal(lipgloss.Center,
			label,
			hintStyle.Render("  "),
			m.spinner.View(),
			loadingStyle.Render(" "+m.session.Agent()+" is responding"),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, label, m.textarea.View())
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	title := welcomeTitleStyle.Width(width).Render("✦ Agent Chat")
	subtitle := welcomeStyle.Width(width).Render("Start a conversation by typing a message below")
	server := welcomeStyle.Width(width).Render(m.serverURL)

	content := lipgloss.JoinVertical(lipgloss.Center, "", title, "", subtitle, server, "")

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"^S", "Save"},
		{"^O", "History"},
		{"^L", "Clear"},
		{"^Y", "Copy"},
		{"Esc", "Quit"},
	}
	if m.showHistory {
		shortcuts = shortcuts[:0]
		shortcuts = append(shortcuts,
			struct{ key, desc string }{"Enter", "Load"},
			struct{ key, desc string }{"^D", "Delete"},
			struct{ key, desc string }{"Esc", "Back"},
		)
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, lipgloss.JoinHorizontal(lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// formatError describes a push channel failure
func (m Model) formatError(err error) string {
	var sb strings.Builder
	sb.WriteString(toastStyles[session.LevelError].Render(fmt.Sprintf("⚠ %v", err)))

	detailStyle := lipgloss.NewStyle().Foreground(colorTextDim).PaddingLeft(2)
	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString("\n")
		sb.WriteString(detailStyle.Render(fmt.Sprintf("HTTP Status: %d", status)))
	}
	if apierrors.IsNetworkError(err) {
		sb.WriteString("\n")
		sb.WriteString(detailStyle.Render("💡 Check that the agent server is running at " + m.serverURL))
	}
	sb.WriteString("\n")
	sb.WriteString(detailStyle.Render("Messages can no longer be received. Restart the chat to reconnect."))
	return sb.String()
}

// RunChat opens the push channel for a new session and runs the chat TUI
// until the user quits.
func RunChat(ctx context.Context, client *api.Client, cfg ChatConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.SessionID == "" {
		cfg.SessionID = session.NewID()
	}
	channel := client.NewChannel(cfg.SessionID)
	events, err := channel.Open(ctx)
	if err != nil {
		return err
	}

	cfg.Submitter = client
	cfg.Events = events
	cfg.ChannelErr = channel.Err
	if cfg.ServerURL == "" {
		cfg.ServerURL = client.BaseURL()
	}

	p := tea.NewProgram(
		NewChatModel(ctx, cfg),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
