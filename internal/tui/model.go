// Package tui is an interactive browser over a ranking session. The
// corpus is recognized once; each entered task re-ranks the same
// sections against a fresh query.
package tui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/docrank/internal/rank"
)

// Ranker is the TUI-facing subset of a ranking session.
type Ranker interface {
	Rank(task string) (*rank.Ranking, error)
}

// Model is the Bubble Tea model for the browser.
type Model struct {
	service  Ranker
	persona  string
	summary  string
	input    textinput.Model
	viewport viewport.Model
	sections []rank.RankedSection
	status   string
	cursor   int
	ready    bool
	lastTask string
}

// New creates a model over a prepared session. summary is a one-line
// corpus description shown under the header.
func New(service Ranker, persona, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "task> "
	ti.Placeholder = "Describe the task and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		persona:  persona,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Ready. Enter a task to rank.",
	}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and task boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := taskBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentSection())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			task := strings.TrimSpace(m.input.Value())
			if task != "" {
				ranking, err := m.service.Rank(task)
				if err != nil {
					m.status = "Error: " + err.Error()
					m.sections = nil
				} else {
					m.status = fmt.Sprintf("%d sections for %q", len(ranking.Sections), task)
					m.sections = ranking.Sections
					m.cursor = 0
					m.lastTask = task
				}
				m.viewport.SetContent(m.renderCurrentSection())
				return m, nil
			}
		case "down":
			if len(m.sections) > 0 {
				m.cursor = (m.cursor + 1) % len(m.sections)
				m.viewport.SetContent(m.renderCurrentSection())
				return m, nil
			}
		case "up":
			if len(m.sections) > 0 {
				m.cursor = (m.cursor - 1 + len(m.sections)) % len(m.sections)
				m.viewport.SetContent(m.renderCurrentSection())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the layout and the current section.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("docrank: " + m.persona)
	summary := metaStyle.Render(m.summary)
	input := taskBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentSection() string {
	if len(m.sections) == 0 {
		return "No sections yet."
	}
	sec := m.sections[m.cursor]
	title := strings.TrimSpace(sec.Section.Title)
	if title == "" {
		title = "(untitled)"
	}
	head := fmt.Sprintf("Rank %d/%d  %s", sec.ImportanceRank, len(m.sections), titleStyle.Render(title))
	meta := fmt.Sprintf("%s  page %d  score %.3f", sec.Section.Document, sec.Section.Page, sec.Score)

	parts := []string{head, metaStyle.Render(meta)}
	if len(sec.Subsections) == 0 {
		parts = append(parts, "", highlightTaskTerms(sec.Section.Body, m.lastTask))
	}
	for _, sub := range sec.Subsections {
		line := fmt.Sprintf("%.3f  %s", sub.Score, highlightTaskTerms(sub.Subsection.Text, m.lastTask))
		parts = append(parts, "", line)
	}
	return strings.Join(parts, "\n")
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	taskBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle    = lipgloss.NewStyle().Bold(true)
	titleStyle     = lipgloss.NewStyle().Bold(true)
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	matchStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// highlightTaskTerms bolds every word of text that also appears in the
// task, ignoring case and surrounding punctuation.
func highlightTaskTerms(text, task string) string {
	terms := tokenSet(task)
	if len(terms) == 0 {
		return text
	}
	words := strings.Fields(text)
	for i, w := range words {
		if _, ok := terms[trimWord(w)]; ok {
			words[i] = matchStyle.Render(w)
		}
	}
	return strings.Join(words, " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		if t := trimWord(w); t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

func trimWord(w string) string {
	return strings.TrimFunc(strings.ToLower(w), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
