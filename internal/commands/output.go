package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	apierrors "github.com/diogo/agentchat/internal/errors"
	"github.com/diogo/agentchat/internal/session"
)

var (
	colorText    = lipgloss.Color("#c0caf5")
	colorTextDim = lipgloss.Color("#565f89")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorWarning = lipgloss.Color("#e0af68")
	colorError   = lipgloss.Color("#f7768e")
	colorPrimary = lipgloss.Color("#7aa2f7")
)

// Styles matching the chat TUI
var (
	agentLabelStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	agentBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorSuccess).
				Foreground(colorText).
				Padding(0, 1).
				MarginBottom(1)

	headingStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(colorTextDim)
)

var levelStyles = map[session.Level]lipgloss.Style{
	session.LevelInfo:    lipgloss.NewStyle().Foreground(colorPrimary),
	session.LevelSuccess: lipgloss.NewStyle().Foreground(colorSuccess),
	session.LevelWarning: lipgloss.NewStyle().Foreground(colorWarning),
	session.LevelError:   lipgloss.NewStyle().Foreground(colorError),
}

var levelIcons = map[session.Level]string{
	session.LevelInfo:    "ℹ",
	session.LevelSuccess: "✓",
	session.LevelWarning: "⚠",
	session.LevelError:   "✗",
}

// lineNotifier prints session notifications as single lines. It remembers
// the last error so callers can report it.
type lineNotifier struct {
	w       io.Writer
	quiet   bool
	lastErr string
}

// Notify implements session.Notifier
func (n *lineNotifier) Notify(level session.Level, msg string) {
	if level == session.LevelError {
		n.lastErr = msg
	}
	if n.quiet {
		return
	}
	fmt.Fprintln(n.w, levelStyles[level].Render(levelIcons[level]+" "+msg))
}

// promptConfirmer asks y/N questions on a line-oriented terminal
type promptConfirmer struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func newPromptConfirmer(in io.Reader, out io.Writer, assumeYes bool) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

// Confirm implements session.Confirmer. Anything but y/yes declines.
func (c *promptConfirmer) Confirm(prompt string) bool {
	if c.assumeYes {
		return true
	}
	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(c.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isTerminal reports whether w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	if body := apierrors.GetResponseBody(err); body != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n\n  %s", strings.ReplaceAll(body, "\n", "\n  "))))
	} else if apierrors.IsNetworkError(err) {
		sb.WriteString(dimStyle.Render("\n  Hint: Check that the agent server is running (agentchat health)"))
	}

	return sb.String()
}
