package surface

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/genie/internal"
)

var (
	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	priceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	totalStyle = lipgloss.NewStyle().
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	genieStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213")).
			Bold(true)

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	listeningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	toastSuccessStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("28")).
				Padding(0, 1)

	toastErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("160")).
			Padding(0, 1)

	toastFadingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 1)
)

// RenderCart renders the cart panel
func RenderCart(v View) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Cart"))
	b.WriteString(" ")
	b.WriteString(badgeStyle.Render(fmt.Sprintf("🛒 %d", v.Count)))
	b.WriteString("\n")

	if len(v.Rows) == 0 {
		b.WriteString(mutedStyle.Render("  (empty)"))
		b.WriteString("\n")
	}
	for _, r := range v.Rows {
		line := "  " + r.Title
		if r.Author != "" {
			line += mutedStyle.Render(" by " + r.Author)
		}
		if r.Price != "" {
			line += "  " + priceStyle.Render(r.Price)
		}
		line += mutedStyle.Render(" [" + r.ID + "]")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(totalStyle.Render(v.Total))
	return b.String()
}

// RenderTurn renders one chat turn
func RenderTurn(t TurnView) string {
	who := genieStyle.Render("Genie:")
	if t.Role == internal.RoleUser {
		who = userStyle.Render("You:")
	}
	text := t.Text
	switch t.Status {
	case internal.TurnPending:
		text = pendingStyle.Render(text)
	case internal.TurnFailed:
		text = failedStyle.Render(text)
	}
	return who + " " + text
}

// RenderChat renders the last height turns, or all of them when height is
// not positive
func RenderChat(v View, height int) string {
	turns := v.Turns
	if height > 0 && len(turns) > height {
		turns = turns[len(turns)-height:]
	}
	lines := make([]string, 0, len(turns)+1)
	lines = append(lines, sectionStyle.Render("Genie"))
	for _, t := range turns {
		lines = append(lines, RenderTurn(t))
	}
	return strings.Join(lines, "\n")
}

// RenderToast renders the visible toast, if any
func RenderToast(v View) string {
	if len(v.Toasts) == 0 {
		return ""
	}
	t := v.Toasts[len(v.Toasts)-1]
	switch {
	case t.Fading:
		return toastFadingStyle.Render(t.Message)
	case t.Kind == internal.NotifyError:
		return toastErrorStyle.Render(t.Message)
	default:
		return toastSuccessStyle.Render(t.Message)
	}
}

// RenderMic renders the voice affordance
func RenderMic(v View) string {
	if v.Listening {
		return listeningStyle.Render("🎙️ listening...")
	}
	return mutedStyle.Render("🎤")
}

// Render lays the whole document out for a terminal of the given size
func Render(v View, width, height int) string {
	cart := RenderCart(v)
	chatHeight := height - lipgloss.Height(cart) - 4
	chat := RenderChat(v, chatHeight)

	body := cart + "\n\n" + chat
	if width >= 80 {
		left := lipgloss.NewStyle().Width(width / 2).Render(cart)
		right := lipgloss.NewStyle().Width(width - width/2).Render(RenderChat(v, height-4))
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	var footer []string
	if toast := RenderToast(v); toast != "" {
		footer = append(footer, toast)
	}
	if v.Location != "" {
		footer = append(footer, mutedStyle.Render("→ "+v.Location))
	}
	if len(footer) == 0 {
		return body
	}
	return body + "\n\n" + strings.Join(footer, "  ")
}
