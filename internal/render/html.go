package render

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	goldhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// HTMLRenderer renders GitHub-flavored markdown to sanitized HTML.
//
// A single newline becomes a line break. Raw HTML in the source is dropped by
// the parser and whatever survives rendering is filtered through a UGC
// policy. Safe for concurrent use.
type HTMLRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

var classTokens = regexp.MustCompile(`^[A-Za-z0-9 _-]+$`)

// NewHTMLRenderer creates an HTML renderer
func NewHTMLRenderer() *HTMLRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			goldhtml.WithHardWraps(),
			renderer.WithNodeRenderers(util.Prioritized(&codeBlockRenderer{}, 200)),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(classTokens).OnElements("span", "code", "pre", "div")

	return &HTMLRenderer{md: md, policy: policy}
}

// Render implements Renderer
func (r *HTMLRenderer) Render(raw string) Markup {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(raw), &buf); err != nil {
		return r.Literal(raw)
	}
	return Markup{format: FormatHTML, body: r.policy.Sanitize(buf.String())}
}

// Literal implements Renderer. Text is escaped and line breaks preserved.
func (r *HTMLRenderer) Literal(text string) Markup {
	escaped := html.EscapeString(text)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>\n")
	return Markup{format: FormatHTML, body: escaped}
}
