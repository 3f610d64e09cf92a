// Package tui provides the terminal user interface for agentchat.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/agentchat/internal/render"
	"github.com/diogo/agentchat/internal/session"
)

// Color variables (updated from theme)
var (
	colorSurface lipgloss.Color
	colorBorder  lipgloss.Color

	colorUser    lipgloss.Color
	colorAgent   lipgloss.Color
	colorInfo    lipgloss.Color
	colorWarning lipgloss.Color
	colorError   lipgloss.Color

	colorText    lipgloss.Color
	colorTextDim lipgloss.Color
)

// Style variables (rebuilt when theme changes)
var (
	headerStyle   lipgloss.Style
	titleStyle    lipgloss.Style
	subtitleStyle lipgloss.Style
	hintStyle     lipgloss.Style

	messagesAreaStyle lipgloss.Style
	userBubbleStyle   lipgloss.Style
	userLabelStyle    lipgloss.Style
	agentBubbleStyle  lipgloss.Style
	agentLabelStyle   lipgloss.Style

	inputPanelStyle lipgloss.Style
	inputLabelStyle lipgloss.Style
	loadingStyle    lipgloss.Style

	statusBarStyle  lipgloss.Style
	statusKeyStyle  lipgloss.Style
	statusDescStyle lipgloss.Style

	connectedStyle    lipgloss.Style
	disconnectedStyle lipgloss.Style

	welcomeStyle      lipgloss.Style
	welcomeTitleStyle lipgloss.Style

	// Toasts, by notification level
	toastStyles map[session.Level]lipgloss.Style

	confirmStyle lipgloss.Style

	// History panel
	panelStyle         lipgloss.Style
	panelTitleStyle    lipgloss.Style
	panelItemStyle     lipgloss.Style
	panelSelectedStyle lipgloss.Style
	panelMetaStyle     lipgloss.Style
	panelPreviewStyle  lipgloss.Style
)

func init() {
	ApplyTheme(render.DefaultTUITheme)
}

// ApplyTheme switches the interface colors. Unknown names fall back to the
// default theme and report false.
func ApplyTheme(name string) bool {
	theme, ok := render.TUIThemeByName(name)

	colorSurface = theme.Surface
	colorBorder = theme.Border
	colorUser = theme.User
	colorAgent = theme.Agent
	colorInfo = theme.Info
	colorWarning = theme.Warning
	colorError = theme.Error
	colorText = theme.Text
	colorTextDim = theme.TextDim

	rebuildStyles()
	return ok
}

func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorAgent).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Italic(true)

	messagesAreaStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	userBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorUser).
		Foreground(colorText).
		Padding(0, 1).
		MarginLeft(4)

	userLabelStyle = lipgloss.NewStyle().
		Foreground(colorUser).
		Bold(true).
		MarginLeft(4)

	agentBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorAgent).
		Padding(0, 1).
		MarginRight(4)

	agentLabelStyle = lipgloss.NewStyle().
		Foreground(colorAgent).
		Bold(true)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(colorUser).
		Bold(true)

	loadingStyle = lipgloss.NewStyle().
		Foreground(colorAgent)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Background(colorSurface).
		Padding(0, 1)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	connectedStyle = lipgloss.NewStyle().Foreground(colorAgent)
	disconnectedStyle = lipgloss.NewStyle().Foreground(colorError)

	welcomeStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Align(lipgloss.Center)

	welcomeTitleStyle = lipgloss.NewStyle().
		Foreground(colorAgent).
		Bold(true).
		Align(lipgloss.Center)

	toastBase := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	toastStyles = map[session.Level]lipgloss.Style{
		session.LevelInfo:    toastBase.Foreground(colorInfo),
		session.LevelSuccess: toastBase.Foreground(colorAgent),
		session.LevelWarning: toastBase.Foreground(colorWarning),
		session.LevelError:   toastBase.Foreground(colorError),
	}

	confirmStyle = lipgloss.NewStyle().
		Foreground(colorWarning).
		Bold(true)

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
		Foreground(colorAgent).
		Bold(true).
		MarginBottom(1)

	panelItemStyle = lipgloss.NewStyle().
		Foreground(colorText).
		PaddingLeft(2)

	panelSelectedStyle = lipgloss.NewStyle().
		Foreground(colorUser).
		Bold(true).
		PaddingLeft(0)

	panelMetaStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		PaddingLeft(4)

	panelPreviewStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Italic(true).
		PaddingLeft(4)
}
