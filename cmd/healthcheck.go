package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/genie/internal"
	"github.com/iksnae/genie/internal/journal"
	"github.com/iksnae/genie/internal/remote"
	"github.com/iksnae/genie/internal/speech"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	healthcheckDetails bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

type probeStatus int

const (
	probeOK probeStatus = iota
	probeWarn
	probeFail
)

// probeResult is the outcome of one health probe
type probeResult struct {
	Name    string
	Status  probeStatus
	Summary string
	Details []string
}

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that genie can reach the storefront and its local services",
	Long: `Check the health of genie by verifying:
  • Configuration loads and validates
  • The storefront answers cart requests
  • Speech recognizer and synthesizer commands are installed
  • The chat journal can be opened

Missing speech commands or a disabled journal are warnings; an unreachable
storefront fails the check.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 Genie Health Check"))
		fmt.Fprintln(out)

		cfg, err := loadConfig()
		if err != nil {
			printProbe(out, probeResult{Name: "Configuration", Status: probeFail, Summary: err.Error()})
			return reported(err)
		}
		printProbe(out, probeResult{
			Name:    "Configuration",
			Summary: "loaded",
			Details: []string{"Storefront: " + cfg.Remote.BaseURL},
		})

		results := runProbes(cmd.Context(), cfg)
		failed := false
		for _, r := range results {
			printProbe(out, r)
			if r.Status == probeFail {
				failed = true
			}
		}

		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		if failed {
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			return reported(fmt.Errorf("health check failed"))
		}
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		return nil
	},
}

// runProbes checks the remote, speech and journal concurrently. Probes
// never abort each other; each reports into its own slot.
func runProbes(ctx context.Context, cfg internal.Config) []probeResult {
	results := make([]probeResult, 3)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		results[0] = probeRemote(ctx, cfg.Remote)
		return nil
	})
	g.Go(func() error {
		results[1] = probeSpeech(cfg.Voice)
		return nil
	})
	g.Go(func() error {
		results[2] = probeJournal(ctx, cfg.Journal)
		return nil
	})
	_ = g.Wait()
	return results
}

func probeRemote(ctx context.Context, cfg internal.RemoteConfig) probeResult {
	r := probeResult{Name: "Storefront"}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	client, err := remote.New(cfg)
	if err != nil {
		r.Status, r.Summary = probeFail, err.Error()
		return r
	}

	start := time.Now()
	n, err := client.CartCount(ctx)
	if err != nil {
		r.Status, r.Summary = probeFail, "unreachable: "+err.Error()
		return r
	}
	r.Summary = fmt.Sprintf("reachable (%s)", time.Since(start).Round(time.Millisecond))
	r.Details = []string{
		"URL: " + client.BaseURL(),
		fmt.Sprintf("Cart items: %d", n),
	}
	if cfg.SessionCookie == "" {
		r.Details = append(r.Details, "No session cookie configured; purchases will ask you to log in")
	}
	return r
}

func probeSpeech(cfg internal.VoiceConfig) probeResult {
	r := probeResult{Name: "Speech"}
	caps := speech.Detect(cfg)

	var have []string
	if caps.Recognizer != nil {
		have = append(have, "recognition")
	} else {
		r.Details = append(r.Details, "Recognizer: "+describeCommand(cfg.RecognizeCommand))
	}
	if caps.Synthesizer != nil {
		have = append(have, "synthesis")
	} else {
		r.Details = append(r.Details, "Synthesizer: "+describeCommand(cfg.SynthesizeCommand))
	}

	switch len(have) {
	case 2:
		r.Summary = "recognition and synthesis available"
	case 0:
		r.Status, r.Summary = probeWarn, "no speech commands available; voice is disabled"
	default:
		r.Status, r.Summary = probeWarn, "only "+have[0]+" available"
	}
	return r
}

func describeCommand(cmd []string) string {
	if len(cmd) == 0 {
		return "not configured"
	}
	return fmt.Sprintf("%q not found on PATH", cmd[0])
}

func probeJournal(ctx context.Context, cfg internal.JournalConfig) probeResult {
	r := probeResult{Name: "Journal"}
	if !cfg.Enabled || cfg.Path == "" {
		r.Status, r.Summary = probeWarn, "disabled"
		return r
	}
	store, err := journal.Open(cfg.Path)
	if err != nil {
		r.Status, r.Summary = probeWarn, err.Error()
		return r
	}
	defer store.Close()

	sessions, err := store.Sessions(ctx)
	if err != nil {
		r.Status, r.Summary = probeWarn, err.Error()
		return r
	}
	r.Summary = fmt.Sprintf("%d session(s) recorded", len(sessions))
	r.Details = []string{"Path: " + cfg.Path}
	return r
}

func printProbe(w io.Writer, r probeResult) {
	var line string
	switch r.Status {
	case probeOK:
		line = successStyle.Render("✅ " + r.Name + ": " + r.Summary)
	case probeWarn:
		line = warningStyle.Render("⚠️  " + r.Name + ": " + r.Summary)
	default:
		line = errorStyle.Render("❌ " + r.Name + ": " + r.Summary)
	}
	fmt.Fprintln(w, line)
	if healthcheckDetails || r.Status != probeOK {
		for _, d := range r.Details {
			fmt.Fprintln(w, infoStyle.Render("   "+strings.TrimSpace(d)))
		}
	}
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckDetails, "details", "d", false, "Show detailed diagnostic information")
}
