package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fastlookup/internal/domain"
	"fastlookup/internal/summarizer"
	"fastlookup/internal/textutil"
)

// Mode is the assistant operation enter runs.
type Mode int

const (
	ModeLookup Mode = iota
	ModeRecap
	ModeAsk
)

func (m Mode) String() string {
	switch m {
	case ModeRecap:
		return "Recap"
	case ModeAsk:
		return "Ask"
	default:
		return "Lookup"
	}
}

// Options configures the reader.
type Options struct {
	Title            string
	PageSize         int
	RecapWindow      int
	SummarySentences int
	// Timeout bounds a single assistant call. Zero means no limit.
	Timeout time.Duration
}

// Model is the Bubble Tea model for the terminal reader.
type Model struct {
	assistant domain.Assistant
	summary   *summarizer.FrequencySummarizer
	opts      Options
	book      []rune
	position  int
	mode      Mode
	input     textinput.Model
	viewport  viewport.Model
	blurb     string
	result    string
	lastQuery string
	status    string
	busy      bool
	ready     bool
}

// answerMsg carries a finished assistant call back to Update.
type answerMsg struct {
	mode    Mode
	query   string
	text    string
	elapsed time.Duration
}

// New creates a reader positioned at the start of book.
func New(assistant domain.Assistant, book string, opts Options) Model {
	if opts.PageSize <= 0 {
		opts.PageSize = 2000
	}
	if opts.RecapWindow <= 0 {
		opts.RecapWindow = 4000
	}
	if opts.SummarySentences <= 0 {
		opts.SummarySentences = summarizer.DefaultSentences
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the story and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	m := Model{
		assistant: assistant,
		summary:   summarizer.NewFrequencySummarizer(),
		opts:      opts,
		book:      []rune(book),
		input:     ti,
		viewport:  viewport.New(0, 0),
		status:    "PgDn/PgUp to read, Tab to switch mode, Enter to ask.",
	}
	m.refreshBlurb()
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + blurb
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderBody())
		return m, nil
	case answerMsg:
		m.busy = false
		m.result = msg.text
		m.lastQuery = msg.query
		m.status = fmt.Sprintf("%s answered in %s", msg.mode, msg.elapsed.Round(time.Millisecond))
		m.viewport.SetContent(m.renderBody())
		m.viewport.GotoTop()
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			m.mode = (m.mode + 1) % 3
			m.status = "Mode: " + m.mode.String()
			return m, nil
		case "pgdown":
			m.move(m.opts.PageSize)
			return m, nil
		case "pgup":
			m.move(-m.opts.PageSize)
			return m, nil
		case "enter":
			return m.submit()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) move(delta int) {
	m.position = min(max(0, m.position+delta), len(m.book))
	m.result = ""
	m.refreshBlurb()
	m.viewport.SetContent(m.renderBody())
	m.viewport.GotoTop()
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	q := strings.TrimSpace(m.input.Value())
	if q == "" && m.mode != ModeRecap {
		m.status = "Type a question first."
		return m, nil
	}
	m.busy = true
	m.status = m.mode.String() + "..."
	m.input.SetValue("")
	return m, m.ask(m.mode, q)
}

// ask runs the assistant call off the UI goroutine.
func (m Model) ask(mode Mode, query string) tea.Cmd {
	source, page, recap := m.SourceText(), m.CurrentPage(), m.RecapText()
	assistant, timeout := m.assistant, m.opts.Timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		start := time.Now()
		var text string
		switch mode {
		case ModeRecap:
			text = assistant.Recap(ctx, recap)
		case ModeAsk:
			text = assistant.OpenEnded(ctx, query, source, page)
		default:
			text = assistant.Lookup(ctx, query, source)
		}
		return answerMsg{mode: mode, query: query, text: text, elapsed: time.Since(start)}
	}
}

// SourceText is everything before the current page.
func (m Model) SourceText() string { return string(m.book[:m.position]) }

// CurrentPage is the page starting at the read position.
func (m Model) CurrentPage() string {
	end := min(m.position+m.opts.PageSize, len(m.book))
	return string(m.book[m.position:end])
}

// RecapText is the last RecapWindow runes of SourceText.
func (m Model) RecapText() string {
	start := max(0, m.position-m.opts.RecapWindow)
	return string(m.book[start:m.position])
}

func (m *Model) refreshBlurb() {
	if m.position == 0 {
		m.blurb = "Nothing read yet."
		return
	}
	m.blurb = m.summary.Summarize(m.RecapText(), m.opts.SummarySentences)
}

// View renders the reader layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	pct := 0
	if len(m.book) > 0 {
		pct = m.position * 100 / len(m.book)
	}
	header := lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("%s  [%s]  %d%%", m.opts.Title, m.mode, pct))
	blurb := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.blurb)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	body := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + blurb + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderBody() string {
	page := highlightBestSentence(m.CurrentPage(), m.lastQuery)
	if m.result == "" {
		return page
	}
	return answerStyle.Render(m.result) + "\n\n" + page
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	answerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// highlightBestSentence marks the sentence of text sharing most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := textutil.WordSet(query)
	if len(qTokens) == 0 {
		return text
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	for t := range textutil.WordSet(sentence) {
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
