package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/genie/internal"
	"github.com/iksnae/genie/internal/export"
	"github.com/iksnae/genie/internal/journal"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export chat transcripts to files",
	Long: `Export journaled chat sessions to various formats (jsonl, md, yaml, json).

Without an argument every recorded session is exported. Pass a session id
(or a unique prefix of one) to export a single conversation.
Use 'genie history' to see available session IDs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		store, err := openJournal()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		sessions, err := loadSessions(ctx, store, args)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			internal.PrintInfo("No sessions to export")
			return nil
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		exported := 0
		err = internal.ShowProgress(ctx, fmt.Sprintf("Exporting %d session(s) to %s", len(sessions), outputDir), func() error {
			for _, session := range sessions {
				path := filepath.Join(outputDir, fmt.Sprintf("session_%s.%s", session.ID, exporter.Extension()))
				if err := writeExport(exporter, session, path); err != nil {
					internal.LogError("Failed to export session %s: %v", session.ID, err)
					continue
				}
				exported++
			}
			return nil
		})
		if err != nil {
			return err
		}

		internal.FprintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Export complete: %d session(s) exported to %s", exported, outputDir))
		if exported < len(sessions) {
			return fmt.Errorf("%d session(s) failed to export", len(sessions)-exported)
		}
		return nil
	},
}

func loadSessions(ctx context.Context, store *journal.Store, args []string) ([]*internal.ChatSession, error) {
	if len(args) == 1 {
		session, err := store.LoadSession(ctx, args[0])
		if err != nil {
			return nil, fmt.Errorf("%w (use 'genie history' to see available sessions)", err)
		}
		return []*internal.ChatSession{session}, nil
	}

	summaries, err := store.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	sessions := make([]*internal.ChatSession, 0, len(summaries))
	for _, sum := range summaries {
		session, err := store.LoadSession(ctx, sum.ID)
		if err != nil {
			internal.LogWarn("Skipping session %s: %v", sum.ID, err)
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func writeExport(exporter export.Exporter, session *internal.ChatSession, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := exporter.Export(session, file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// openJournal opens the configured journal for reading
func openJournal() (*journal.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Journal.Enabled || cfg.Journal.Path == "" {
		return nil, fmt.Errorf("the chat journal is disabled (set journal.enabled and journal.path)")
	}
	return journal.Open(cfg.Journal.Path)
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
}
