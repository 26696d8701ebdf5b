package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/genie/internal"
)

// JSONLExporter exports sessions in JSONL format (one turn per line)
type JSONLExporter struct{}

type jsonlTurn struct {
	Session   string              `json:"session"`
	Role      internal.Role       `json:"role"`
	Text      string              `json:"text"`
	Status    internal.TurnStatus `json:"status,omitempty"`
	Timestamp string              `json:"timestamp,omitempty"`
}

// Export writes each turn on its own line. Pending turns are skipped.
func (e *JSONLExporter) Export(session *internal.ChatSession, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for _, turn := range session.Turns {
		if turn.Status == internal.TurnPending {
			continue
		}
		line := jsonlTurn{
			Session: session.ID,
			Role:    turn.Role,
			Text:    turn.Text,
		}
		if turn.Status == internal.TurnFailed {
			line.Status = turn.Status
		}
		if !turn.CreatedAt.IsZero() {
			line.Timestamp = turn.CreatedAt.UTC().Format(time.RFC3339)
		}

		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode turn: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
