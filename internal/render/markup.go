// Package render turns agent markdown and user text into sanitized display markup.
package render

// Format identifies the target of a Markup value
type Format int

const (
	FormatHTML Format = iota + 1
	FormatANSI
)

func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatANSI:
		return "ansi"
	default:
		return "unknown"
	}
}

// Markup is display-ready output. Values are only produced by renderers in
// this package, so anything holding a Markup has passed sanitization.
type Markup struct {
	format Format
	body   string
}

// Format returns the output format
func (m Markup) Format() Format {
	return m.format
}

// String returns the rendered body
func (m Markup) String() string {
	return m.body
}

// IsZero reports whether m was never produced by a renderer
func (m Markup) IsZero() bool {
	return m.format == 0
}

// Renderer converts text into Markup.
//
// Render parses raw as markdown (agent output). Literal never interprets its
// input as markup (user input).
type Renderer interface {
	Render(raw string) Markup
	Literal(text string) Markup
}
