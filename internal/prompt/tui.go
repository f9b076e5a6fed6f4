package prompt

import (
	"context"
	stderrors "errors"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/keneslab/sitegen/internal/metadata"
)

// ErrAborted is returned when the user leaves the form with Esc or Ctrl+C.
var ErrAborted = stderrors.New("metadata review aborted")

var (
	tuiTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	tuiBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#555555")).Padding(0, 1)
	tuiLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	tuiErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	tuiHintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	tuiAnsweredFmt = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
)

// TUI runs the review flow as a terminal form.
type TUI struct {
	In           io.Reader
	Out          io.Writer
	ImagePattern string
}

func (t TUI) Review(ctx context.Context, auto metadata.Post) (metadata.Post, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if t.In != nil {
		opts = append(opts, tea.WithInput(t.In))
	}
	if t.Out != nil {
		opts = append(opts, tea.WithOutput(t.Out))
	}

	final, err := tea.NewProgram(newFormModel(auto, t.ImagePattern), opts...).Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return metadata.Post{}, ctxErr
	}
	if err != nil {
		return metadata.Post{}, err
	}
	m := final.(formModel)
	if m.aborted {
		return metadata.Post{}, ErrAborted
	}
	return m.session.post, nil
}

type formModel struct {
	session  *session
	input    textinput.Model
	filename string
	summary  []string
	answered []string
	errMsg   string
	aborted  bool
}

func newFormModel(auto metadata.Post, imagePattern string) formModel {
	in := textinput.New()
	in.Prompt = "> "
	in.Focus()
	m := formModel{
		session:  newSession(auto, imagePattern),
		input:    in,
		filename: auto.Filename,
		summary:  Summary(auto),
	}
	m.input.Placeholder = m.session.current().Default
	return m
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m formModel) submit() (tea.Model, tea.Cmd) {
	q := m.session.current()
	v := m.input.Value()
	if err := m.session.answer(v); err != nil {
		m.errMsg = err.Error()
		return m, nil
	}
	shown := strings.TrimSpace(v)
	if shown == "" {
		shown = q.Default
	}
	m.answered = append(m.answered, q.Label+": "+shown)
	m.errMsg = ""
	m.input.Reset()
	if m.session.done() {
		return m, tea.Quit
	}
	m.input.Placeholder = m.session.current().Default
	return m, nil
}

func (m formModel) View() string {
	if m.session.done() || m.aborted {
		return ""
	}
	var b strings.Builder
	b.WriteString(tuiTitleStyle.Render("New content: "+m.filename) + "\n")
	b.WriteString(tuiBoxStyle.Render(strings.Join(m.summary, "\n")) + "\n\n")
	for _, a := range m.answered {
		b.WriteString(tuiAnsweredFmt.Render(a) + "\n")
	}
	b.WriteString(tuiLabelStyle.Render(m.session.current().Label) + "\n")
	b.WriteString(m.input.View() + "\n")
	if m.errMsg != "" {
		b.WriteString(tuiErrorStyle.Render(m.errMsg) + "\n")
	}
	b.WriteString(tuiHintStyle.Render("enter: accept (empty keeps default) • esc: abort") + "\n")
	return b.String()
}
