package history

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/diogo/agentchat/internal/models"
	"github.com/diogo/agentchat/internal/render"
)

// ExportFormat represents the format for exporting conversations
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
	ExportFormatHTML     ExportFormat = "html"
)

// ParseExportFormat maps a format name or file extension to an ExportFormat
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "md", "markdown", "":
		return ExportFormatMarkdown, nil
	case "json":
		return ExportFormatJSON, nil
	case "html", "htm":
		return ExportFormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use markdown, json or html)", s)
	}
}

// Export renders conv in the requested format
func Export(conv Conversation, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportFormatMarkdown:
		return []byte(ExportMarkdown(conv)), nil
	case ExportFormatJSON:
		return ExportJSON(conv)
	case ExportFormatHTML:
		return []byte(ExportHTML(conv, render.NewHTMLRenderer())), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func roleLabel(r models.Role) string {
	if r == models.RoleAgent {
		return "Agent"
	}
	return "User"
}

// ExportMarkdown exports a conversation as a Markdown document
func ExportMarkdown(conv Conversation) string {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(conv.Title)
	sb.WriteString("\n\n")

	sb.WriteString("**Agent:** ")
	sb.WriteString(conv.Agent)
	sb.WriteString("\n")
	sb.WriteString("**Saved:** ")
	sb.WriteString(conv.Timestamp.Local().Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("**Messages:** %d", len(conv.Messages)))
	sb.WriteString("\n\n---\n\n")

	for i, msg := range conv.Messages {
		sb.WriteString("## ")
		sb.WriteString(roleLabel(msg.Role))
		sb.WriteString("\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")

		if i < len(conv.Messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

// ExportJSON exports a conversation in its archive representation
func ExportJSON(conv Conversation) ([]byte, error) {
	return json.MarshalIndent(conv, "", "  ")
}

// ExportHTML exports a conversation as a standalone HTML page. Agent
// messages are rendered as markdown, user messages as literal text, both
// sanitized by r.
func ExportHTML(conv Conversation, r render.Renderer) string {
	parts := []render.Markup{render.Heading(1, conv.Title)}

	for _, msg := range conv.Messages {
		var body render.Markup
		if msg.Role == models.RoleAgent {
			body = r.Render(msg.Content)
		} else {
			body = r.Literal(msg.Content)
		}
		role := render.Wrap(r.Literal(roleLabel(msg.Role)), "role")
		parts = append(parts, render.Wrap(render.Concat(render.FormatHTML, role, body), "message "+string(msg.Role)))
	}

	return render.Page(conv.Title, render.Concat(render.FormatHTML, parts...))
}
