package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/genie/internal"
	"github.com/iksnae/genie/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a config pointed at baseURL with short delays and a
// journal inside dir
func writeConfig(t *testing.T, dir, baseURL string) string {
	t.Helper()
	cfg := fmt.Sprintf(`remote:
  base_url: %s
ui:
  toast_visible: 5s
  toast_fade: 10ms
  login_delay: 10ms
  buy_reload_delay: 10ms
  clear_reload_delay: 10ms
journal:
  enabled: true
  path: %s
`, baseURL, filepath.Join(dir, "journal.db"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func resetFlags() {
	verbose = false
	configPath = ""
	baseURL = ""
	addAuthor = ""
	addPrice = 0
	speakReply = false
	historyLimit = 0
	format = "jsonl"
	outputDir = "./exports"
	healthcheckDetails = false
	if f := cartAddCmd.Flags().Lookup("price"); f != nil {
		f.Changed = false
	}
	for _, name := range []string{"help", "version"} {
		if f := rootCmd.Flags().Lookup(name); f != nil {
			_ = f.Value.Set("false")
		}
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setup(t *testing.T) (*testutil.Storefront, string, string) {
	t.Helper()
	t.Setenv("GENIE_CONFIG", "")
	store := testutil.NewStorefront(t)
	dir := t.TempDir()
	return store, dir, writeConfig(t, dir, store.URL())
}

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "version flag", args: []string{"--version"}, want: "dev"},
		{name: "help flag", args: []string{"--help"}, want: "genie shell"},
		{name: "unknown command", args: []string{"nonexistent-command"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestLoadConfig_BaseURLOverride(t *testing.T) {
	_, _, cfgPath := setup(t)

	resetFlags()
	defer resetFlags()
	configPath = cfgPath
	baseURL = "http://example.test:9000"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://example.test:9000", cfg.Remote.BaseURL)

	baseURL = "not a url"
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestCartAdd(t *testing.T) {
	store, _, cfgPath := setup(t)

	out, err := runCLI(t, "--config", cfgPath, "cart", "add", "Dune")
	require.NoError(t, err)
	assert.Contains(t, out, `"Dune" added to cart ✅`)
	assert.Contains(t, out, "🛒 1")
	assert.Len(t, store.Items(), 1)
}

func TestCartAdd_Rejected(t *testing.T) {
	_, _, cfgPath := setup(t)

	out, err := runCLI(t, "--config", cfgPath, "cart", "add", "Unknown Book")
	require.Error(t, err)
	assert.Contains(t, out, "Book not found")

	var shown *reportedError
	assert.True(t, errors.As(err, &shown), "failure already shown to the user")
}

func TestCartAdd_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{name: "blank title", args: []string{"   "}, field: "title"},
		{name: "negative price", args: []string{"--price=-5", "Dune"}, field: "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, cfgPath := setup(t)

			_, err := runCLI(t, append([]string{"--config", cfgPath, "cart", "add"}, tt.args...)...)
			var verr *internal.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			var shown *reportedError
			assert.False(t, errors.As(err, &shown), "validation errors are printed by Execute")
			assert.Zero(t, store.Calls("/api/cart/add"))
		})
	}
}

func TestCartCountAndList(t *testing.T) {
	store, _, cfgPath := setup(t)
	store.Seed(internal.CartItem{ID: "7", Title: "Emma", Author: "Jane Austen", Price: testutil.Price(299.5)})

	out, err := runCLI(t, "--config", cfgPath, "cart", "count")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = runCLI(t, "--config", cfgPath, "cart", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Emma")
	assert.Contains(t, out, "[7]")
	assert.Contains(t, out, "₹299.50")
}

func TestCartBuy_LoginRequired(t *testing.T) {
	store, _, cfgPath := setup(t)
	store.SetAuthorized(false)

	out, err := runCLI(t, "--config", cfgPath, "cart", "buy")
	require.Error(t, err)
	assert.Contains(t, out, "→ Log in at "+store.URL()+"/login")
}

func TestCartRemove(t *testing.T) {
	store, _, cfgPath := setup(t)
	store.Seed(internal.CartItem{ID: "7", Title: "Emma"})

	_, err := runCLI(t, "--config", cfgPath, "cart", "remove", "7")
	require.NoError(t, err)
	assert.Empty(t, store.Items())
}

func TestChatHistoryExport(t *testing.T) {
	_, dir, cfgPath := setup(t)

	out, err := runCLI(t, "--config", cfgPath, "chat", "recommend", "a", "thriller")
	require.NoError(t, err)
	assert.Contains(t, out, "recommend a thriller")
	assert.Contains(t, out, "Genie replying!")

	out, err = runCLI(t, "--config", cfgPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 session(s)")

	exportDir := filepath.Join(dir, "exports")
	_, err = runCLI(t, "--config", cfgPath, "export", "--format", "md", "--out", exportDir)
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(exportDir, "session_*.md"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "**You:**")
	assert.Contains(t, string(data), "recommend a thriller")
}

func TestHistory_UnknownSession(t *testing.T) {
	_, _, cfgPath := setup(t)

	_, err := runCLI(t, "--config", cfgPath, "history", "does-not-exist")
	assert.Error(t, err)
}

func TestExport_InvalidFormat(t *testing.T) {
	_, _, cfgPath := setup(t)

	_, err := runCLI(t, "--config", cfgPath, "export", "--format", "xml")
	assert.Error(t, err)
}

func TestHealthcheck(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		_, _, cfgPath := setup(t)

		out, err := runCLI(t, "--config", cfgPath, "healthcheck", "--details")
		require.NoError(t, err)
		assert.Contains(t, out, "Storefront: reachable")
		assert.Contains(t, out, "Cart items: 0")
		assert.Contains(t, out, "Health check passed")
	})

	t.Run("unreachable", func(t *testing.T) {
		_, _, cfgPath := setup(t)

		out, err := runCLI(t, "--config", cfgPath, "--base-url", "http://127.0.0.1:1", "healthcheck")
		require.Error(t, err)
		assert.Contains(t, out, "Storefront: unreachable")
		assert.Contains(t, out, "Health check failed")
	})
}

func TestDescribeCommand(t *testing.T) {
	assert.Equal(t, "not configured", describeCommand(nil))
	assert.Equal(t, `"espeak" not found on PATH`, describeCommand([]string{"espeak", "{lang}"}))
}
