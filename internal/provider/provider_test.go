package provider

import (
	"iter"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/ai-session-import/internal/model"
)

type fakeAdapter struct {
	name    string
	matches bool
	probed  *[]string
}

func (f fakeAdapter) Name() string { return f.name }

func (f fakeAdapter) Detect(string) bool {
	if f.probed != nil {
		*f.probed = append(*f.probed, f.name)
	}
	return f.matches
}

func (f fakeAdapter) Projects(string) iter.Seq[model.Project] {
	return func(func(model.Project) bool) {}
}

func (f fakeAdapter) Conversations(string) iter.Seq[model.Conversation] {
	return func(func(model.Conversation) bool) {}
}

func TestDetect_FirstMatchWins(t *testing.T) {
	var probed []string
	d := NewDetector(
		fakeAdapter{name: "a", probed: &probed},
		fakeAdapter{name: "b", matches: true, probed: &probed},
		fakeAdapter{name: "c", matches: true, probed: &probed},
	)
	a, ok := d.Detect("/any")
	require.True(t, ok)
	assert.Equal(t, "b", a.Name())
	assert.Equal(t, []string{"a", "b"}, probed)
}

func TestDetect_NoMatch(t *testing.T) {
	d := NewDetector(fakeAdapter{name: "a"})
	a, ok := d.Detect("/any")
	assert.False(t, ok)
	assert.Nil(t, a)
}

func TestLookup(t *testing.T) {
	d := Default(nil)
	assert.Equal(t, []string{model.ProviderCowork, model.ProviderClaudeCode, model.ProviderChatGPT, model.ProviderClaudeWeb}, d.Names())

	a, ok := d.Lookup(model.ProviderChatGPT)
	require.True(t, ok)
	assert.Equal(t, model.ProviderChatGPT, a.Name())

	_, ok = d.Lookup("gemini")
	assert.False(t, ok)
}

func writeSession(t *testing.T, root, slug string) {
	t.Helper()
	dir := filepath.Join(root, "projects", slug)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	line := `{"type":"user","uuid":"u1","timestamp":"2025-01-01T00:00:00Z","message":{"role":"user","content":"hello there world"}}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s1.jsonl"), []byte(line), 0o644))
}

func TestDefault_CoworkShadowsClaudeCode(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-Users-me-app")
	writeSession(t, root, "-sessions-task")

	d := Default(nil, t.TempDir())
	cc, _ := d.Lookup(model.ProviderClaudeCode)
	require.True(t, cc.Detect(root))

	a, ok := d.Detect(root)
	require.True(t, ok)
	assert.Equal(t, model.ProviderCowork, a.Name())
}

func TestDefault_BareClaudeCode(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-Users-me-app")

	a, ok := Default(nil, t.TempDir()).Detect(root)
	require.True(t, ok)
	assert.Equal(t, model.ProviderClaudeCode, a.Name())
}

func TestDefault_WebExports(t *testing.T) {
	gpt := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(gpt, "conversations.json"), []byte(`[{"id":"c","mapping":{}}]`), 0o644))
	web := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(web, "conversations.json"), []byte(`[{"uuid":"c","chat_messages":[]}]`), 0o644))

	d := Default(nil, t.TempDir())
	a, ok := d.Detect(gpt)
	require.True(t, ok)
	assert.Equal(t, model.ProviderChatGPT, a.Name())

	a, ok = d.Detect(web)
	require.True(t, ok)
	assert.Equal(t, model.ProviderClaudeWeb, a.Name())

	_, ok = d.Detect(t.TempDir())
	assert.False(t, ok)
}
