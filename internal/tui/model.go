// Package tui is the interactive bubbletea shell over the storefront
// document. Every intent runs as a tea.Cmd on its own goroutine; the view
// is redrawn whenever the document signals a change.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/genie/internal"
	"github.com/iksnae/genie/internal/storefront"
	"github.com/iksnae/genie/internal/surface"
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type docChangedMsg struct{}

type opDoneMsg struct {
	cmd Command
	err error
}

// Model is the shell's bubbletea model
type Model struct {
	app     *storefront.App
	ctx     context.Context
	updates <-chan struct{}

	input     textinput.Model
	spin      spinner.Model
	view      surface.View
	lastInput string
	width     int
	height    int
	status    string
	failed    bool
	inFlight  int
}

// New creates a shell over app. Cancelling ctx abandons in-flight requests.
func New(ctx context.Context, app *storefront.App, updates <-chan struct{}) Model {
	in := textinput.New()
	in.Placeholder = "Ask Genie, or /help"
	in.Prompt = "You> "
	in.Focus()
	in.CharLimit = 0
	in.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))

	return Model{
		app:     app,
		ctx:     ctx,
		updates: updates,
		input:   in,
		spin:    s,
		view:    app.Document.Snapshot(),
	}
}

// Run starts the shell on the terminal and blocks until it exits
func Run(ctx context.Context, app *storefront.App) error {
	updates, cancel := app.Document.Subscribe()
	defer cancel()

	p := tea.NewProgram(New(ctx, app, updates), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spin.Tick,
		m.waitForChange(),
		m.run(Command{Name: "sync"}),
	)
}

func (m Model) waitForChange() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return docChangedMsg{}
	}
}

// run executes cmd against the app off the update loop
func (m Model) run(cmd Command) tea.Cmd {
	app, ctx := m.app, m.ctx
	return func() tea.Msg {
		var err error
		switch cmd.Name {
		case "chat":
			_, err = app.Chat.Send(ctx, cmd.Arg)
		case "add":
			err = app.Cart.Add(ctx, storefront.AddRequest{Title: cmd.Arg})
		case "remove":
			err = app.Cart.Remove(ctx, cmd.Arg)
		case "buy":
			err = app.Cart.Buy(ctx)
		case "clear":
			err = app.Cart.Clear(ctx)
		case "sync":
			err = app.Cart.Sync(ctx)
		case "voice":
			_, err = app.Voice.Listen(ctx)
		case "stop":
			app.Voice.StopSpeaking()
		}
		return opDoneMsg{cmd: cmd, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-len(m.input.Prompt)-2, 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case docChangedMsg:
		m.view = m.app.Document.Snapshot()
		if m.view.ChatInput != m.lastInput {
			m.lastInput = m.view.ChatInput
			m.input.SetValue(m.view.ChatInput)
			m.input.CursorEnd()
		}
		return m, m.waitForChange()

	case opDoneMsg:
		m.inFlight--
		if msg.err != nil {
			internal.LogDebug("%s failed: %v", msg.cmd.Name, msg.err)
			m.setStatus(failureStatus(msg.cmd, msg.err), true)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	if strings.TrimSpace(line) == "" {
		return m, nil
	}
	m.input.SetValue("")

	cmd, err := ParseCommand(line)
	if err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}
	switch cmd.Name {
	case "quit":
		return m, tea.Quit
	case "help":
		m.setStatus(HelpText(), false)
		return m, nil
	}

	m.setStatus("", false)
	m.inFlight++
	return m, m.run(cmd)
}

func (m *Model) setStatus(s string, failed bool) {
	m.status, m.failed = s, failed
}

// failureStatus explains errors the document does not already show
func failureStatus(cmd Command, err error) string {
	var capErr *internal.UnsupportedCapabilityError
	switch {
	case errors.Is(err, internal.ErrNoSpeech):
		return "Didn't catch that, try /voice again"
	case errors.Is(err, internal.ErrAlreadyListening):
		return "Already listening"
	case errors.As(err, &capErr):
		return ""
	case cmd.Name == "sync":
		return "Could not load the cart: " + err.Error()
	}
	return ""
}

func (m Model) View() string {
	height := m.height - 4
	if m.status != "" {
		height -= lipgloss.Height(m.status)
	}
	doc := surface.Render(m.view, m.width, height)

	indicator := surface.RenderMic(m.view)
	if m.view.ChatBusy || m.view.Listening || m.inFlight > 0 {
		indicator = m.spin.View() + " " + indicator
	}

	var b strings.Builder
	b.WriteString(doc)
	b.WriteString("\n\n")
	b.WriteString(indicator + " " + m.input.View())
	if m.status != "" {
		style := statusStyle
		if m.failed {
			style = errStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.status))
	}
	return b.String()
}
