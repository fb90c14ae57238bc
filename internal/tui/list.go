package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/ai-session-import/internal/search"
)

// rowsPerResult is the number of terminal lines each result occupies.
const rowsPerResult = 2

const badgeWidth = 5

func badge(provider string) string {
	t, ok := providerTags[provider]
	if !ok {
		return runewidth.FillRight(runewidth.Truncate(provider, badgeWidth, ""), badgeWidth)
	}
	return lipgloss.NewStyle().Foreground(t.color).Render(runewidth.FillRight(t.tag, badgeWidth))
}

// fit flattens s onto one line and cuts it to width cells.
func fit(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// formatResult renders one result as two rows:
//
//	> code  03-01 Title · project
//	       snippet
func formatResult(r search.Result, width int, selected bool) []string {
	date := r.UpdatedAt
	if len(date) >= 10 {
		date = date[5:10]
	}
	date = runewidth.FillRight(date, 5)

	heading := r.Title
	if r.Project != "" {
		heading += " · " + r.Project
	}
	// marker, badge and date with their separating spaces
	heading = fit(heading, width-2-badgeWidth-1-5-1)

	marker := "  "
	if selected {
		marker = styleSelected.Render("> ")
		heading = styleSelected.Render(heading)
	}
	first := marker + badge(r.Provider) + " " + date + " " + heading

	snippet := strings.NewReplacer(">>>", "", "<<<", "").Replace(r.Snippet)
	second := "    " + styleSnippet.Render(fit(snippet, width-4))
	return []string{first, second}
}

// renderList draws the visible slice of results into a width x height box.
func (m ui) renderList(width, height int) string {
	if len(m.results) == 0 {
		msg := "No results"
		if m.query == "" {
			msg = "Type to search"
		}
		return styleEmpty.Width(width).Height(height).Render(msg)
	}

	rows := make([]string, 0, height)
	for i := m.offset; i < len(m.results) && len(rows)+rowsPerResult <= height; i++ {
		rows = append(rows, formatResult(m.results[i], width, i == m.cursor)...)
	}
	for len(rows) < height {
		rows = append(rows, "")
	}
	return strings.Join(rows, "\n")
}

// visible is the number of whole results the list panel can show.
func (m ui) visible() int {
	return max(m.bodyHeight()/rowsPerResult, 1)
}

// follow scrolls the list so the cursor stays in view.
func (m *ui) follow() {
	n := m.visible()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+n {
		m.offset = m.cursor - n + 1
	}
}
