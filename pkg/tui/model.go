// Package tui shows a progress view while a job runs and the outcome once it
// completes.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/papercomputeco/promptbench/pkg/job"
	"github.com/papercomputeco/promptbench/pkg/normalize"
)

// maxPreview caps the result lines shown in the final view.
const maxPreview = 40

// doneMsg carries the job outcome back into the update loop.
type doneMsg struct {
	outcome job.Outcome
}

// Model is the bubbletea model for one job.
type Model struct {
	spinner  spinner.Model
	title    string
	captions []string
	start    func() <-chan job.Outcome
	cancel   context.CancelFunc

	outcome  *job.Outcome
	canceled bool
	clean    bool
	width    int
}

// Options describe what the view shows.
type Options struct {
	Template string
	Captions []string

	// Clean renders the cleaned narrative text instead of the normalized value.
	Clean bool
}

// NewModel wires a model around start, which must launch the job and return
// its outcome channel. cancel aborts the job when the user quits early.
func NewModel(opts Options, start func() <-chan job.Outcome, cancel context.CancelFunc) Model {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = titleStyle

	return Model{
		spinner:  s,
		title:    opts.Template,
		captions: opts.Captions,
		start:    start,
		cancel:   cancel,
		clean:    opts.Clean,
		width:    80,
	}
}

// Outcome returns the finished job outcome, or nil when the user quit early.
func (m Model) Outcome() *job.Outcome {
	return m.outcome
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, wait(m.start()))
}

func wait(done <-chan job.Outcome) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{outcome: <-done}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.outcome == nil && m.cancel != nil {
				m.cancel()
			}
			m.canceled = m.outcome == nil
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case doneMsg:
		m.outcome = &msg.outcome
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("promptbench"))
	b.WriteString(mutedStyle.Render(" · " + m.title))
	b.WriteString("\n")
	if len(m.captions) > 0 {
		b.WriteString(mutedStyle.Render(strings.Join(m.captions, "  ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.canceled:
		b.WriteString(warnStyle.Render("Canceled."))
		b.WriteString("\n")
	case m.outcome == nil:
		b.WriteString(fmt.Sprintf("%s Running benchmark...\n", m.spinner.View()))
	case m.outcome.Err != nil:
		b.WriteString(errorStyle.Render(m.outcome.Message))
		b.WriteString("\n")
	default:
		style := successStyle
		if m.outcome.Response.Degraded {
			style = warnStyle
		}
		b.WriteString(style.Render(m.outcome.Message))
		b.WriteString("\n")
		b.WriteString(resultStyle.Render(preview(ResultText(m.outcome.Response, m.clean), maxPreview)))
		b.WriteString("\n")
	}

	return b.String()
}

// ResultText is the text shown for a response: the cleaned narrative when
// clean is set, else the plain form of the normalized value.
func ResultText(r normalize.Response, clean bool) string {
	if clean {
		return normalize.CleanString(r.Value)
	}
	return normalize.PlainText(r.Value)
}

// RenderMarkdown renders text as terminal markdown wrapped at width.
func RenderMarkdown(text string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}

	out, err := r.Render(text)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// Run drives the model on in/out and returns the outcome, or nil when the
// user quit before the job finished.
func Run(m Model, in io.Reader, out io.Writer) (*job.Outcome, error) {
	final, err := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return nil, fmt.Errorf("run terminal view: %w", err)
	}
	return final.(Model).Outcome(), nil
}

func preview(s string, maxLines int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:maxLines], "\n") + fmt.Sprintf("\n… %d more lines", len(lines)-maxLines)
}
