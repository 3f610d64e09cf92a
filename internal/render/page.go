package render

import (
	"bytes"
	"fmt"
	"html"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; color: #24292f; }
.message { border-radius: 8px; padding: 0.75rem 1rem; margin: 0.75rem 0; }
.message.user { background: #ddf4ff; }
.message.agent { background: #f6f8fa; }
.role { font-size: 0.8rem; font-weight: 600; color: #57606a; text-transform: uppercase; }
pre.chroma { padding: 0.75rem; overflow-x: auto; border-radius: 6px; }
%s
</style>
</head>
<body>
%s
</body>
</html>
`

// Page wraps sanitized HTML in a standalone document, including the CSS for
// highlighted code blocks. Markup in another format is escaped.
func Page(title string, body Markup) string {
	var css bytes.Buffer
	_ = codeFormatter.WriteCSS(&css, codeStyle())

	content := body.String()
	if body.Format() != FormatHTML {
		content = "<pre>" + html.EscapeString(content) + "</pre>"
	}

	return fmt.Sprintf(pageTemplate, html.EscapeString(title), css.String(), content)
}

// Concat joins markup fragments of the same format. Fragments of a different
// format are skipped.
func Concat(format Format, parts ...Markup) Markup {
	var b bytes.Buffer
	for _, p := range parts {
		if p.format != format {
			continue
		}
		b.WriteString(p.body)
	}
	return Markup{format: format, body: b.String()}
}

// Wrap surrounds HTML markup with a div carrying the given class names.
func Wrap(m Markup, class string) Markup {
	if m.format != FormatHTML || !classTokens.MatchString(class) {
		return m
	}
	return Markup{format: FormatHTML, body: `<div class="` + class + `">` + m.body + "</div>\n"}
}

// Heading returns an escaped HTML heading of the given level (1-6).
func Heading(level int, text string) Markup {
	if level < 1 || level > 6 {
		level = 2
	}
	return Markup{format: FormatHTML, body: fmt.Sprintf("<h%d>%s</h%d>\n", level, html.EscapeString(text), level)}
}
