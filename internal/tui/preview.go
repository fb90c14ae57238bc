package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/ai-session-import/internal/index"
	"github.com/Zuo-Peng/ai-session-import/internal/render"
	"github.com/Zuo-Peng/ai-session-import/internal/search"
)

// previewMsg carries a conversation rendered off the UI goroutine.
type previewMsg struct {
	key     string
	content string
	hitRow  int
	err     error
}

func previewKey(r search.Result) string {
	return fmt.Sprintf("%s#%d", r.ConvKey, r.Seq)
}

// renderPreview renders the whole conversation of r, centred on its hit.
func renderPreview(db *index.DB, r search.Result, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content, hitRow, err := render.RenderConversation(db, r.ConvKey, render.Options{
			HitSeq:  r.Seq,
			Context: -1,
			Width:   width,
			Query:   query,
		})
		return previewMsg{key: previewKey(r), content: content, hitRow: hitRow, err: err}
	}
}
