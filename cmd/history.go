package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/genie/internal"
	"github.com/iksnae/genie/internal/journal"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	userTurnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	genieTurnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213")).
			Bold(true)

	turnContentStyle = lipgloss.NewStyle().
				Padding(0, 2)
)

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "List or show journaled conversations with Genie",
	Long: `Without an argument, list recorded chat sessions, most recent first.
With a session id (or a unique prefix), print that conversation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openJournal()
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			sessions, err := store.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			displaySessions(out, sessions)
			return nil
		}

		session, err := store.LoadSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		displaySession(out, session, historyLimit)
		return nil
	},
}

func displaySessions(w io.Writer, sessions []journal.SessionSummary) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, headerStyle.Render("📋 No sessions found"))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("📋 Found %d session(s)", len(sessions))))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, titleStyle.Render("ID")+"\t"+titleStyle.Render("Turns")+"\t"+titleStyle.Render("Started")+"\t"+titleStyle.Render("Last")+"\t")
	for _, s := range sessions {
		last := strings.ReplaceAll(s.LastText, "\n", " ")
		if len([]rune(last)) > 50 {
			last = string([]rune(last)[:47]) + "..."
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID(s.ID)),
			countStyle.Render(strconv.Itoa(s.Turns)),
			dateStyle.Render(relativeTime(s.StartedAt, time.Now())),
			last)
	}
	_ = tw.Flush()
}

func displaySession(w io.Writer, session *internal.ChatSession, limit int) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("💬 Session %s", session.ID)))
	fmt.Fprintln(w, dateStyle.Render(fmt.Sprintf("Started: %s • Turns: %d", session.StartedAt.Format(time.RFC1123), len(session.Turns))))
	fmt.Fprintln(w)

	turns := session.Turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	for _, t := range turns {
		label := genieTurnStyle.Render("🧞 Genie")
		if t.Role == internal.RoleUser {
			label = userTurnStyle.Render("👤 You")
		}
		header := label + " " + dateStyle.Render(t.CreatedAt.Format("15:04:05"))
		if t.Status == internal.TurnFailed {
			header += " " + dateStyle.Render("(failed)")
		}
		fmt.Fprintln(w, header)
		fmt.Fprintln(w, turnContentStyle.Render(wrapText(strings.TrimSpace(t.Text), 80)))
		fmt.Fprintln(w)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func relativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		currentLine := ""
		for _, word := range strings.Fields(line) {
			switch {
			case currentLine == "":
				currentLine = word
			case len(currentLine)+len(word)+1 > width:
				wrapped = append(wrapped, currentLine)
				currentLine = word
			default:
				currentLine += " " + word
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show only the last n turns")
}
