package render

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/ai-session-import/internal/index"
	"github.com/Zuo-Peng/ai-session-import/internal/model"
	"github.com/Zuo-Peng/ai-session-import/internal/normalize"
)

func TestWrapLine(t *testing.T) {
	assert.Equal(t, []string{"abcdef"}, wrapLine("abcdef", 0))
	assert.Equal(t, []string{"abc", "def", "g"}, wrapLine("abcdefg", 3))
	// wide runes take two columns
	assert.Equal(t, []string{"日本", "語"}, wrapLine("日本語", 4))
	assert.Equal(t, []string{""}, wrapLine("", 5))

	// escape sequences take none
	rows := wrapLine(colorDim+"abc"+colorReset, 2)
	require.Len(t, rows, 2)
	assert.Equal(t, "ab", ansi.Strip(rows[0]))
	assert.Equal(t, "c", ansi.Strip(rows[1]))
	assert.True(t, strings.HasPrefix(rows[0], colorDim))
}

func TestHighlightKeywords(t *testing.T) {
	got := highlightKeywords("Bake the bread", keywordPattern("bread AND bake"))
	assert.Equal(t, colorBoldRed+"Bake"+colorReset+" the "+colorBoldRed+"bread"+colorReset, got)
	assert.Equal(t, "x and y", highlightKeywords("x and y", keywordPattern("and")))
	assert.Equal(t, "plain", highlightKeywords("plain", keywordPattern("")))

	// phrase quotes and prefix stars are query syntax, not text
	got = highlightKeywords("sourdough starter", keywordPattern(`"sour*" starter`))
	assert.Equal(t, colorBoldRed+"sour"+colorReset+"dough "+colorBoldRed+"starter"+colorReset, got)

	// the longer of two overlapping terms wins
	got = highlightKeywords("rye flour", keywordPattern("ry rye"))
	assert.Equal(t, colorBoldRed+"rye"+colorReset+" flour", got)

	// terms are literal text
	assert.Equal(t, "a"+colorBoldRed+"+b"+colorReset, highlightKeywords("a+b", keywordPattern("+b")))
}

func TestRoleStyle(t *testing.T) {
	label, color := roleStyle(index.MessageRow{Role: "assistant", Kind: "thinking"})
	assert.Equal(t, "THINK", label)
	assert.Equal(t, colorThink, color)

	label, _ = roleStyle(index.MessageRow{Role: "assistant", Kind: "tool_call", IsSubagent: true})
	assert.Equal(t, "TOOL (subagent)", label)

	label, _ = roleStyle(index.MessageRow{Role: "user", Kind: "text"})
	assert.Equal(t, "USER", label)

	label, _ = roleStyle(index.MessageRow{Role: "moderator", Kind: "text"})
	assert.Equal(t, "MODERATOR", label)
}

func TestRenderConversation(t *testing.T) {
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	c := model.Conversation{SourceID: "c1", Provider: model.ProviderClaudeWeb, Title: "Bread"}
	for i, text := range []string{"one", "two", "three sourdough", "four", "five"} {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		c.Messages = append(c.Messages, normalize.NewMessage("m", role, nil, text, ts))
	}
	normalize.Finish(&c)
	_, err = db.UpsertConversation(context.Background(), c)
	require.NoError(t, err)

	out, hitLine, err := RenderConversation(db, index.Key(model.ProviderClaudeWeb, "c1"), Options{HitSeq: 2, Context: 1, Query: "sourdough"})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), hitLine)
	assert.Contains(t, lines[0], "--- Bread [claude-web] ---")
	assert.Contains(t, out, "(1 messages before)")
	assert.Contains(t, out, "(1 messages after)")
	assert.Contains(t, lines[hitLine], ">> USER > 2025-06-01T08:00:00Z <<")
	assert.Contains(t, out, colorBoldRed+"sourdough"+colorReset)
	assert.NotContains(t, out, "  one")
	assert.Contains(t, out, "  two")

	out, hitLine, err = RenderConversation(db, index.Key(model.ProviderClaudeWeb, "c1"), Options{HitSeq: -1, Context: -1, Width: 8})
	require.NoError(t, err)
	assert.Equal(t, -1, hitLine)
	assert.Contains(t, out, "  five")
	for _, l := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(l), 8, "row %q", l)
	}

	_, _, err = RenderConversation(db, "claude-web:missing", Options{HitSeq: -1})
	assert.ErrorContains(t, err, "conversation not found")
}
