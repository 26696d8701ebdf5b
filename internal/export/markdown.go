package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/genie/internal"
)

// MarkdownExporter exports sessions in Markdown format
type MarkdownExporter struct{}

var roleNames = map[internal.Role]string{
	internal.RoleUser:      "You",
	internal.RoleAssistant: "Genie",
}

// Export writes a readable transcript
func (e *MarkdownExporter) Export(session *internal.ChatSession, w io.Writer) error {
	// Header
	_, _ = fmt.Fprintf(w, "# Genie chat %s\n\n", session.ID)
	if !session.StartedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Started:** %s  \n", session.StartedAt.UTC().Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(w, "**Turns:** %d\n\n", len(session.Turns))
	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, turn := range session.Turns {
		name := roleNames[turn.Role]
		if name == "" {
			name = string(turn.Role)
		}
		suffix := ""
		switch turn.Status {
		case internal.TurnFailed:
			suffix = " _(failed)_"
		case internal.TurnPending:
			suffix = " _(pending)_"
		}

		_, err := fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", name, suffix, escapeMarkdown(turn.Text))
		if err != nil {
			return fmt.Errorf("failed to write turn: %w", err)
		}

		if i < len(session.Turns)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes emphasis markers outside code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))
	inCodeBlock := false

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "```"):
			inCodeBlock = !inCodeBlock
		case !inCodeBlock:
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
