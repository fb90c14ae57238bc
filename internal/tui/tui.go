// Package tui is the interactive search screen: a query line, a result list
// and a preview of the selected conversation.
package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/ai-session-import/internal/index"
	"github.com/Zuo-Peng/ai-session-import/internal/model"
	"github.com/Zuo-Peng/ai-session-import/internal/search"
)

const debounceDelay = 200 * time.Millisecond

// providerCycle is the order the provider filter steps through; "" is all.
var providerCycle = []string{"", model.ProviderChatGPT, model.ProviderClaudeWeb, model.ProviderClaudeCode, model.ProviderCowork}

type resultsMsg struct {
	query    string
	provider string
	results  []search.Result
	err      error
}

type debounceMsg struct {
	query    string
	provider string
}

type ui struct {
	db      *index.DB
	opts    search.Options
	input   textinput.Model
	preview viewport.Model

	query   string
	results []search.Result
	cursor  int
	offset  int
	shown   string // previewKey of the conversation on screen

	width, height int
	ready         bool
	chosen        *search.Result
}

func newUI(db *index.DB, query string, opts search.Options) ui {
	in := textinput.New()
	in.Placeholder = "Search conversations..."
	in.Prompt = "> "
	in.PromptStyle = styleInputPrompt
	in.CharLimit = 256
	in.SetValue(query)
	in.Focus()

	return ui{
		db:      db,
		opts:    opts,
		input:   in,
		preview: viewport.New(0, 0),
		query:   query,
	}
}

// Run shows the search screen until the user quits. Choosing a result puts
// the command that reopens its conversation on the clipboard.
func Run(db *index.DB, query string, opts search.Options) error {
	final, err := tea.NewProgram(newUI(db, query, opts), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if m, ok := final.(ui); ok && m.chosen != nil {
		copyCommand(os.Stdout, ReopenCommand(*m.chosen))
	}
	return nil
}

// ReopenCommand returns the shell command that brings a conversation back:
// a resume for local agent sessions, a preview for exported chats.
func ReopenCommand(r search.Result) string {
	sessionID := strings.TrimPrefix(r.ConvKey, r.Provider+":")
	switch r.Provider {
	case model.ProviderClaudeCode, model.ProviderCowork:
		return "claude --resume " + sessionID
	default:
		return fmt.Sprintf("ais preview %q", r.ConvKey)
	}
}

// copyCommand falls back to printing when no clipboard is available.
func copyCommand(w io.Writer, cmd string) {
	if err := clipboard.WriteAll(cmd); err != nil {
		fmt.Fprintln(w, cmd)
		return
	}
	fmt.Fprintf(w, "Copied to clipboard: %s\n", cmd)
}

func (m ui) Init() tea.Cmd {
	if m.query == "" {
		return textinput.Blink
	}
	return tea.Batch(textinput.Blink, m.search())
}

func (m ui) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.preview.Width, m.preview.Height = m.previewWidth(), m.bodyHeight()
		// the wrap width changed, so the preview must be redrawn
		m.shown = ""
		return m, m.loadPreview()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd

	case debounceMsg:
		if msg.query != m.query || msg.provider != m.opts.Provider {
			return m, nil
		}
		return m, m.search()

	case resultsMsg:
		if msg.query != m.query || msg.provider != m.opts.Provider {
			return m, nil
		}
		m.results, m.cursor, m.offset, m.shown = msg.results, 0, 0, ""
		if msg.err != nil {
			m.preview.SetContent("Error: " + msg.err.Error())
			return m, nil
		}
		m.preview.SetContent("")
		return m, m.loadPreview()

	case previewMsg:
		r, ok := m.selected()
		if !ok || previewKey(r) != msg.key || msg.key == m.shown {
			return m, nil
		}
		m.shown = msg.key
		if msg.err != nil {
			m.preview.SetContent("Preview error: " + msg.err.Error())
			return m, nil
		}
		m.preview.SetContent(msg.content)
		if msg.hitRow > 0 {
			m.preview.SetYOffset(msg.hitRow)
		} else {
			m.preview.GotoTop()
		}
		return m, nil
	}
	return m, nil
}

func (m ui) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Enter):
		if r, ok := m.selected(); ok {
			m.chosen = &r
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, keys.Up):
		return m.move(-1)

	case key.Matches(msg, keys.Down):
		return m.move(1)

	case key.Matches(msg, keys.Provider):
		m.opts.Provider = nextProvider(m.opts.Provider)
		return m, m.debounce()

	case key.Matches(msg, keys.ScrollUp):
		m.preview.LineUp(m.bodyHeight() / 2)
		return m, nil

	case key.Matches(msg, keys.ScrollDn):
		m.preview.LineDown(m.bodyHeight() / 2)
		return m, nil

	case key.Matches(msg, keys.PageUp):
		m.preview.LineUp(m.bodyHeight())
		return m, nil

	case key.Matches(msg, keys.PageDown):
		m.preview.LineDown(m.bodyHeight())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := m.input.Value(); q != m.query {
		m.query = q
		return m, tea.Batch(cmd, m.debounce())
	}
	return m, cmd
}

func (m ui) move(delta int) (tea.Model, tea.Cmd) {
	next := m.cursor + delta
	if next < 0 || next >= len(m.results) {
		return m, nil
	}
	m.cursor = next
	m.follow()
	return m, m.loadPreview()
}

func nextProvider(current string) string {
	for i, p := range providerCycle {
		if p == current {
			return providerCycle[(i+1)%len(providerCycle)]
		}
	}
	return ""
}

func (m ui) selected() (search.Result, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return search.Result{}, false
	}
	return m.results[m.cursor], true
}

func (m ui) search() tea.Cmd {
	db, opts := m.db, m.opts
	opts.Query = m.query
	return func() tea.Msg {
		msg := resultsMsg{query: opts.Query, provider: opts.Provider}
		if strings.TrimSpace(opts.Query) != "" {
			msg.results, msg.err = search.Search(db, opts)
		}
		return msg
	}
}

func (m ui) debounce() tea.Cmd {
	query, provider := m.query, m.opts.Provider
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceMsg{query: query, provider: provider}
	})
}

func (m ui) loadPreview() tea.Cmd {
	r, ok := m.selected()
	if !ok || previewKey(r) == m.shown {
		return nil
	}
	return renderPreview(m.db, r, m.query, m.previewWidth())
}

func (m ui) View() string {
	if !m.ready {
		return ""
	}
	h := m.bodyHeight()

	top := m.input.View()
	if m.opts.Provider != "" {
		top += "  " + styleFilter.Render("["+m.opts.Provider+"]")
	}

	list := styleListPanel.Width(m.listWidth()).Height(h).Render(m.renderList(m.listWidth(), h))
	preview := stylePreviewPanel.Width(m.previewWidth()).Height(h).Render(m.preview.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		top,
		lipgloss.JoinHorizontal(lipgloss.Top, list, preview),
		m.statusBar(),
	)
}

func (m ui) statusBar() string {
	parts := []string{fmt.Sprintf("%d results", len(m.results))}
	for _, b := range keys.statusKeys() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

// Panel sizes leave room for the rounded borders on both sides.

func (m ui) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	return max(m.width*2/5-2, 20)
}

func (m ui) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	return max(m.width-m.listWidth()-4, 20)
}

// bodyHeight excludes the input row, the status bar and the borders.
func (m ui) bodyHeight() int {
	if m.height <= 0 {
		return 20
	}
	return max(m.height-4, 4)
}
