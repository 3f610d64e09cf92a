package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/diogo/agentchat/internal/api"
	apierrors "github.com/diogo/agentchat/internal/errors"
	"github.com/diogo/agentchat/internal/history"
	"github.com/diogo/agentchat/internal/models"
	"github.com/diogo/agentchat/internal/render"
	"github.com/diogo/agentchat/internal/session"
	"github.com/diogo/agentchat/internal/stream"
)

// askOptions are the flags of one-shot mode
type askOptions struct {
	output string
	file   string
	raw    bool
	html   bool
	save   bool
}

// replySink keeps the latest markup of every slot
type replySink struct {
	roles []models.Role
	slots []render.Markup
}

// NewSlot implements stream.Sink
func (s *replySink) NewSlot(role models.Role) int {
	s.roles = append(s.roles, role)
	s.slots = append(s.slots, render.Markup{})
	return len(s.slots) - 1
}

// ReplaceSlot implements stream.Sink
func (s *replySink) ReplaceSlot(i int, m render.Markup) {
	if i >= 0 && i < len(s.slots) {
		s.slots[i] = m
	}
}

// lastAgent returns the markup of the newest agent slot
func (s *replySink) lastAgent() render.Markup {
	for i := len(s.slots) - 1; i >= 0; i-- {
		if s.roles[i] == models.RoleAgent {
			return s.slots[i]
		}
	}
	return render.Markup{}
}

// runAsk sends a single prompt and prints the agent's reply
func runAsk(ctx context.Context, deps *Dependencies, prompt string, opts askOptions, stdout, stderr io.Writer) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty: %w", apierrors.ErrEmptyMessage)
	}

	client, err := deps.NewClient()
	if err != nil {
		return err
	}

	decorated := !opts.raw && !opts.html

	// Get terminal width for proper formatting
	bubbleWidth := getTerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}

	var renderer render.Renderer
	if opts.html {
		renderer = render.NewHTMLRenderer()
	} else {
		renderer = render.NewTerminalRenderer(
			render.OptionsFromConfig(deps.Config.Markdown).WithWidth(bubbleWidth - 4))
	}

	sink := &replySink{}
	notifier := &lineNotifier{w: stderr, quiet: true}
	sess := session.New(stream.NewReconciler(renderer, sink), deps.Archive, client,
		session.WithAgent(deps.Agent),
		session.WithNotifier(notifier),
		session.WithLogger(deps.Logger),
	)

	spin := newSpinner(stderr, "Connecting to "+client.BaseURL(), decorated && isTerminal(stderr))
	spin.start()
	defer spin.halt()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	channel := client.NewChannel(sess.ID())
	events, err := channel.Open(ctx)
	if err != nil {
		return err
	}

	if err := waitConnected(ctx, sess, channel, events, deps.Config.Timeout()); err != nil {
		return err
	}

	spin.setMessage(sess.Agent() + " is thinking")
	start := time.Now()

	sub, err := sess.Send(prompt)
	if err != nil {
		return err
	}
	submitted := make(chan error, 1)
	go func() {
		submitted <- sub(ctx)
	}()

	if err := awaitReply(ctx, sess, channel, events, submitted); err != nil {
		return err
	}
	spin.halt()

	transcript := sess.Transcript()
	last := transcript[len(transcript)-1]
	if last.Role != models.RoleAgent {
		msg := strings.TrimPrefix(notifier.lastErr, "Error: ")
		return fmt.Errorf("agent reported an error: %s", msg)
	}
	deps.Logger.Debug("reply received",
		slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
		slog.Int("length", len(last.Content)))

	notifier.quiet = !decorated
	if opts.save {
		if _, err := sess.Save(); err != nil {
			return fmt.Errorf("failed to save conversation: %w", err)
		}
	}

	switch {
	case opts.raw:
		return writeOrPrint(stdout, opts.output, last.Content)
	case opts.html:
		if opts.output != "" {
			return writeOrPrint(stdout, opts.output, render.Page(history.Title(transcript), sink.lastAgent()))
		}
		return writeOrPrint(stdout, "", sink.lastAgent().String())
	}

	if deps.Config.CopyToClipboard {
		if err := clipboard.WriteAll(last.Content); err != nil {
			notifier.Notify(session.LevelWarning, fmt.Sprintf("Failed to copy to clipboard: %v", err))
		} else {
			notifier.Notify(session.LevelSuccess, "Copied to clipboard")
		}
	}

	if opts.output != "" {
		if err := writeOrPrint(stdout, opts.output, last.Content); err != nil {
			return err
		}
		notifier.Notify(session.LevelSuccess, "Response saved to "+opts.output)
		return nil
	}

	rendered := strings.TrimRight(sink.lastAgent().String(), "\n")
	fmt.Fprintln(stdout, agentLabelStyle.Render("✦ "+sess.Agent()))
	fmt.Fprintln(stdout, agentBubbleStyle.Width(bubbleWidth).Render(rendered))
	return nil
}

// waitConnected feeds events to the session until the server acknowledges
// the channel
func waitConnected(ctx context.Context, sess *session.Session, channel *api.Channel, events <-chan models.Event, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for !sess.IsConnected() {
		select {
		case ev, ok := <-events:
			if !ok {
				return channelFailure(channel)
			}
			sess.Apply(ev)
		case <-timer.C:
			return fmt.Errorf("server did not accept the event stream within %s: %w", timeout, apierrors.ErrChannelClosed)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// awaitReply feeds events to the session until the in-flight reply ends
func awaitReply(ctx context.Context, sess *session.Session, channel *api.Channel, events <-chan models.Event, submitted <-chan error) error {
	for sess.Streaming() {
		select {
		case ev, ok := <-events:
			if !ok {
				err := channel.Err()
				sess.ChannelClosed(err)
				return channelFailure(channel)
			}
			sess.Apply(ev)
		case err := <-submitted:
			submitted = nil
			if err != nil {
				sess.SubmitFailed(err)
				return fmt.Errorf("failed to send message: %w", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func channelFailure(channel *api.Channel) error {
	if err := channel.Err(); err != nil {
		return err
	}
	return apierrors.ErrChannelClosed
}

// writeOrPrint writes text to path, or to w when path is empty
func writeOrPrint(w io.Writer, path, text string) error {
	if path == "" {
		_, err := io.WriteString(w, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
