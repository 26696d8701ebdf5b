package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/genie/internal"
	"github.com/iksnae/genie/internal/storefront"
	"github.com/iksnae/genie/internal/surface"
	"github.com/iksnae/genie/internal/tui"
	"github.com/spf13/cobra"
)

var (
	speakReply bool
)

var chatCmd = &cobra.Command{
	Use:   "chat <message...>",
	Short: "Ask Genie one question",
	Long: `Send one message to Genie and print the reply.

With --speak the reply is also read aloud through the configured
synthesizer (voice.synthesize_command).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []storefront.Option
		if !speakReply {
			opts = append(opts, storefront.WithSpeech(nil, nil))
		}
		app, err := openApp(opts...)
		if err != nil {
			return err
		}
		defer app.Close()

		if speakReply && !app.Voice.CanSpeak() {
			internal.PrintWarning("No speech synthesizer configured; printing only")
		}

		_, err = app.Chat.Send(cmd.Context(), strings.Join(args, " "))
		printExchange(cmd.OutOrStdout(), app)
		app.Voice.Wait()
		return reported(err)
	},
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Say something to Genie",
	Long: `Record one utterance with the configured recognizer
(voice.recognize_command), send the transcript to Genie and print the
reply. The reply is spoken when a synthesizer is configured.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		out := cmd.OutOrStdout()
		if app.Voice.CanListen() {
			fmt.Fprintln(out, surface.RenderMic(surface.View{Listening: true}))
		}
		_, err = app.Voice.Listen(cmd.Context())
		if err != nil {
			printToast(out, app)
			if errors.Is(err, internal.ErrNoSpeech) {
				internal.PrintWarning("No speech recognized")
			}
			return reported(err)
		}
		printExchange(out, app)
		app.Voice.Wait()
		return nil
	},
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open the interactive cart and chat shell",
	Long: `Open a full-screen shell showing your cart and your conversation with
Genie side by side.

Type to chat, or use slash commands: /add <title>, /remove <id>, /buy,
/clear, /sync, /voice, /stop, /help, /quit.

Logs are written next to the journal (genie.log) while the shell runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logDir := filepath.Dir(cfg.Journal.Path)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		restore, err := internal.SetLogFile(filepath.Join(logDir, "genie.log"))
		if err != nil {
			return err
		}
		defer func() { _ = restore() }()

		app, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		return tui.Run(cmd.Context(), app)
	},
}

// printExchange prints the latest user turn and Genie's answer
func printExchange(w io.Writer, app *storefront.App) {
	turns := app.Document.Snapshot().Turns
	if len(turns) > 2 {
		turns = turns[len(turns)-2:]
	}
	for _, t := range turns {
		fmt.Fprintln(w, surface.RenderTurn(t))
	}
}

func init() {
	rootCmd.AddCommand(chatCmd, listenCmd, shellCmd)
	chatCmd.Flags().BoolVar(&speakReply, "speak", false, "Read the reply aloud")
}
