package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/genie/internal"
	"github.com/iksnae/genie/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{format: "jsonl", wantExt: "jsonl"},
		{format: "md", wantExt: "md"},
		{format: "markdown", wantExt: "md"},
		{format: "yaml", wantExt: "yaml"},
		{format: "json", wantExt: "json"},
		{format: "xml", wantErr: true},
		{format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exp, err := NewExporter(tt.format)
			if tt.wantErr {
				assert.ErrorContains(t, err, "unsupported format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, exp.Extension())
		})
	}
}

func sessionWithFailure() *internal.ChatSession {
	s := testutil.SampleSession()
	s.Append(internal.NewTurn(internal.RoleUser, "recommend **anything**", internal.TurnComplete))
	s.Append(internal.NewTurn(internal.RoleAssistant, "Magic lamp flickering... Try again ✨", internal.TurnFailed))
	return s
}

func TestJSONLExporter_Export(t *testing.T) {
	s := sessionWithFailure()
	s.Append(internal.NewTurn(internal.RoleAssistant, "Genie thinking...", internal.TurnPending))

	var buf bytes.Buffer
	require.NoError(t, (&JSONLExporter{}).Export(s, &buf))

	var lines []jsonlTurn
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var line jsonlTurn
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 4, "pending turns are not exported")
	assert.Equal(t, s.ID, lines[0].Session)
	assert.Equal(t, internal.RoleUser, lines[0].Role)
	assert.Equal(t, "hello", lines[0].Text)
	assert.Empty(t, lines[1].Status)
	assert.Equal(t, internal.TurnFailed, lines[3].Status)
	_, err := time.Parse(time.RFC3339, lines[0].Timestamp)
	assert.NoError(t, err)
}

func TestMarkdownExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	s := sessionWithFailure()
	require.NoError(t, (&MarkdownExporter{}).Export(s, &buf))
	out := buf.String()

	for _, want := range []string{
		"# Genie chat " + s.ID,
		"**Turns:** 4",
		"**You:**\n\nhello",
		"**Genie:**\n\nhi",
		`recommend \*\*anything\*\*`,
		"**Genie:** _(failed)_",
	} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 3, strings.Count(out, "---\n\n")-1, "rules separate turns after the header rule")
}

func TestEscapeMarkdown_KeepsCodeBlocks(t *testing.T) {
	in := "a **b**\n```\nx **y**\n```\n__c__"
	want := "a \\*\\*b\\*\\*\n```\nx **y**\n```\n\\_\\_c\\_\\_"
	assert.Equal(t, want, escapeMarkdown(in))
}

func TestJSONExporter_Export(t *testing.T) {
	s := testutil.SampleSession()
	var buf bytes.Buffer
	require.NoError(t, (&JSONExporter{}).Export(s, &buf))

	var decoded internal.ChatSession
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, s.ID, decoded.ID)
	require.Len(t, decoded.Turns, 2)
	assert.Equal(t, "hi", decoded.Turns[1].Text)
	assert.Contains(t, buf.String(), "\n  \"id\"")
}

func TestYAMLExporter_Export(t *testing.T) {
	s := testutil.SampleSession()
	var buf bytes.Buffer
	require.NoError(t, (&YAMLExporter{}).Export(s, &buf))

	var decoded struct {
		ID    string `yaml:"id"`
		Turns []struct {
			Role string `yaml:"role"`
			Text string `yaml:"text"`
		} `yaml:"turns"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, s.ID, decoded.ID)
	require.Len(t, decoded.Turns, 2)
	assert.Equal(t, "user", decoded.Turns[0].Role)
	assert.Equal(t, "hi", decoded.Turns[1].Text)
}
