package render

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme is the color scheme of the chat interface
type TUITheme struct {
	Name        string
	Description string

	Surface lipgloss.Color
	Border  lipgloss.Color

	// Message roles
	User  lipgloss.Color
	Agent lipgloss.Color

	// Notifications
	Info    lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Text    lipgloss.Color
	TextDim lipgloss.Color
}

const DefaultTUITheme = "tokyonight"

var tuiThemes = map[string]TUITheme{
	"tokyonight": {
		Name:        "tokyonight",
		Description: "Tokyo Night - dark theme with blue accents",
		Surface:     lipgloss.Color("#24283b"),
		Border:      lipgloss.Color("#414868"),
		User:        lipgloss.Color("#7aa2f7"),
		Agent:       lipgloss.Color("#9ece6a"),
		Info:        lipgloss.Color("#7dcfff"),
		Warning:     lipgloss.Color("#e0af68"),
		Error:       lipgloss.Color("#f7768e"),
		Text:        lipgloss.Color("#c0caf5"),
		TextDim:     lipgloss.Color("#565f89"),
	},
	"catppuccin": {
		Name:        "catppuccin",
		Description: "Catppuccin Mocha - warm pastel dark theme",
		Surface:     lipgloss.Color("#313244"),
		Border:      lipgloss.Color("#45475a"),
		User:        lipgloss.Color("#89b4fa"),
		Agent:       lipgloss.Color("#a6e3a1"),
		Info:        lipgloss.Color("#89dceb"),
		Warning:     lipgloss.Color("#f9e2af"),
		Error:       lipgloss.Color("#f38ba8"),
		Text:        lipgloss.Color("#cdd6f4"),
		TextDim:     lipgloss.Color("#6c7086"),
	},
	"nord": {
		Name:        "nord",
		Description: "Nord - arctic, cool tones",
		Surface:     lipgloss.Color("#3b4252"),
		Border:      lipgloss.Color("#4c566a"),
		User:        lipgloss.Color("#88c0d0"),
		Agent:       lipgloss.Color("#a3be8c"),
		Info:        lipgloss.Color("#81a1c1"),
		Warning:     lipgloss.Color("#ebcb8b"),
		Error:       lipgloss.Color("#bf616a"),
		Text:        lipgloss.Color("#eceff4"),
		TextDim:     lipgloss.Color("#7b88a1"),
	},
	"light": {
		Name:        "light",
		Description: "Light - for bright terminals",
		Surface:     lipgloss.Color("#f6f8fa"),
		Border:      lipgloss.Color("#d0d7de"),
		User:        lipgloss.Color("#0969da"),
		Agent:       lipgloss.Color("#1a7f37"),
		Info:        lipgloss.Color("#0550ae"),
		Warning:     lipgloss.Color("#9a6700"),
		Error:       lipgloss.Color("#cf222e"),
		Text:        lipgloss.Color("#24292f"),
		TextDim:     lipgloss.Color("#57606a"),
	},
}

// TUIThemeByName returns the named theme, or the default theme and false
// when the name is unknown.
func TUIThemeByName(name string) (TUITheme, bool) {
	if t, ok := tuiThemes[name]; ok {
		return t, true
	}
	return tuiThemes[DefaultTUITheme], false
}

// TUIThemeNames returns the available theme names, sorted
func TUIThemeNames() []string {
	names := make([]string, 0, len(tuiThemes))
	for name := range tuiThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
