package render

import (
	"bytes"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

const highlightStyle = "github"

var languageName = regexp.MustCompile(`^[A-Za-z0-9_+#.-]{1,32}$`)

// codeFormatter emits class-based spans only; the surrounding pre/code is
// written by the block renderer.
var codeFormatter = chromahtml.New(
	chromahtml.WithClasses(true),
	chromahtml.PreventSurroundingPre(true),
)

func codeStyle() *chroma.Style {
	style := chromaStyles.Get(highlightStyle)
	if style == nil {
		style = chromaStyles.Fallback
	}
	return style
}

// selectLexer uses the declared language when chroma knows it and falls back
// to content analysis otherwise.
func selectLexer(language, code string) chroma.Lexer {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// highlight writes code as highlighted spans. It writes nothing to w when
// highlighting fails.
func highlight(w io.Writer, language, code string) error {
	iterator, err := selectLexer(language, code).Tokenise(nil, code)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := codeFormatter.Format(&buf, codeStyle(), iterator); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// highlightCode is the highlighter used for fenced blocks
var highlightCode = highlight

// codeBlockRenderer renders fenced code blocks through chroma.
type codeBlockRenderer struct{}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	language := strings.ToLower(string(n.Language(source)))
	if !languageName.MatchString(language) {
		language = ""
	}

	var code strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	_, _ = w.WriteString(`<pre class="chroma"><code`)
	if language != "" {
		_, _ = w.WriteString(` class="language-` + language + `"`)
	}
	_, _ = w.WriteString(`>`)
	if err := highlightCode(w, language, code.String()); err != nil {
		_, _ = w.WriteString(html.EscapeString(code.String()))
	}
	_, _ = w.WriteString("</code></pre>\n")

	return ast.WalkSkipChildren, nil
}
