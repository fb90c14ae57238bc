package cowork

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/ai-session-import/internal/model"
	"github.com/Zuo-Peng/ai-session-import/internal/provider/claudecode"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func userLine(uuid, ts, text string) string {
	return fmt.Sprintf(`{"type":"user","uuid":%q,"timestamp":%q,"message":{"role":"user","content":%q}}`+"\n", uuid, ts, text)
}

func assistantLine(uuid, ts, text string) string {
	return fmt.Sprintf(`{"type":"assistant","uuid":%q,"timestamp":%q,"message":{"role":"assistant","model":"claude-opus-4","content":[{"type":"text","text":%q}]}}`+"\n", uuid, ts, text)
}

func entry(id, ts string, sub bool) claudecode.Entry {
	return claudecode.Entry{RawTimestamp: ts, Message: model.Message{SourceID: id, IsSubagent: sub}}
}

func ids(entries []claudecode.Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Message.SourceID)
	}
	return out
}

func TestMerge_Chronological(t *testing.T) {
	main := []claudecode.Entry{entry("m1", "2025-01-01T10:00:02.000Z", false)}
	sub := []claudecode.Entry{entry("s1", "2025-01-01T10:00:01.000Z", true)}
	assert.Equal(t, []string{"s1", "m1"}, ids(Merge(main, sub)))
}

func TestMerge_TiesKeepMainFirst(t *testing.T) {
	ts := "2025-01-01T10:00:00.000Z"
	main := []claudecode.Entry{entry("m1", ts, false), entry("m2", ts, false)}
	sub1 := []claudecode.Entry{entry("s1", ts, true)}
	sub2 := []claudecode.Entry{entry("s2", ts, true)}
	assert.Equal(t, []string{"m1", "m2", "s1", "s2"}, ids(Merge(main, sub1, sub2)))
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil))
}

func TestDetect(t *testing.T) {
	t.Run("standard cowork slug", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "projects", "-sessions-calm-heron", "s.jsonl"), "")
		assert.True(t, New(nil).Detect(root))
	})
	t.Run("lams directory", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, LAMSDir), 0o755))
		assert.True(t, New(nil).Detect(root))
	})
	t.Run("plain claude code home", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "projects", "-Users-me-app", "s.jsonl"), "")
		assert.False(t, New(nil).Detect(root))
	})
	t.Run("missing root", func(t *testing.T) {
		assert.False(t, New(nil).Detect(filepath.Join(t.TempDir(), "missing")))
	})
}

func TestConversations_SubagentMerge(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "projects", "-sessions-calm-heron")
	writeFile(t, filepath.Join(dir, "sess.jsonl"),
		userLine("u1", "2025-01-01T10:00:00.000Z", "Summarise the quarterly report please")+
			assistantLine("a1", "2025-01-01T10:00:10.000Z", "Delegating to a helper."))
	writeFile(t, filepath.Join(dir, "sess", "subagents", "agent-1.jsonl"),
		userLine("su1", "2025-01-01T10:00:05.000Z", "Read report.pdf")+
			assistantLine("sa1", "2025-01-01T10:00:10.000Z", "Report read."))
	writeFile(t, filepath.Join(dir, "sess", "subagents", "notes.txt"), "ignored")

	convs := slices.Collect(New(nil).Conversations(root))
	require.Len(t, convs, 1)
	c := convs[0]
	assert.Equal(t, model.ProviderCowork, c.Provider)
	assert.Equal(t, "sess", c.SourceID)
	assert.Equal(t, "-sessions-calm-heron", c.ProjectSourceID)
	assert.Equal(t, "Summarise the quarterly report please", c.Title)
	assert.Equal(t, "claude-opus-4", c.Model)

	var order []string
	for _, m := range c.Messages {
		order = append(order, m.SourceID)
	}
	assert.Equal(t, []string{"u1", "su1", "a1", "sa1"}, order)
	assert.False(t, c.Messages[0].IsSubagent)
	assert.True(t, c.Messages[1].IsSubagent)
	assert.False(t, c.Messages[2].IsSubagent)
	assert.True(t, c.Messages[3].IsSubagent)
	assert.Equal(t, 4, c.MessageCount)
}

func TestConversations_TitleNeedsMoreThanTenChars(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "projects", "-sessions-x")
	writeFile(t, filepath.Join(dir, "s.jsonl"),
		userLine("u1", "2025-01-01T10:00:00Z", "hi there!!")+
			userLine("u2", "2025-01-01T10:00:01Z", "Build the landing page"))

	convs := slices.Collect(New(nil).Conversations(root))
	require.Len(t, convs, 1)
	assert.Equal(t, "Build the landing page", convs[0].Title)
}

func TestConversations_DropsEmptySessionsAndIgnoresPlainSlugs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "projects", "-sessions-x", "empty.jsonl"), "{bad json\n")
	writeFile(t, filepath.Join(root, "projects", "-Users-me-app", "s.jsonl"),
		userLine("u1", "2025-01-01T10:00:00Z", "belongs to claude code"))

	a := New(nil)
	assert.Empty(t, slices.Collect(a.Conversations(root)))

	projects := slices.Collect(a.Projects(root))
	require.Len(t, projects, 1)
	assert.Equal(t, "-sessions-x", projects[0].SourceID)
}

func TestLAMS_LabelsAndCollisions(t *testing.T) {
	root := t.TempDir()
	lams := filepath.Join(root, LAMSDir)
	line := userLine("u1", "2025-01-01T10:00:00Z", "Plan the offsite agenda")
	writeFile(t, filepath.Join(lams, "acct", "org1", ".claude", "projects", "-sessions-dup", "a.jsonl"), line)
	writeFile(t, filepath.Join(lams, "acct", "org2", ".claude", "projects", "-sessions-dup", "b.jsonl"), line)

	a := New(nil)
	require.True(t, a.Detect(root))

	projects := slices.Collect(a.Projects(root))
	require.Len(t, projects, 2)
	assert.Equal(t, "acct_org1_.claude_-sessions-dup", projects[0].SourceID)
	assert.Equal(t, "acct_org2_.claude_-sessions-dup", projects[1].SourceID)
	assert.Equal(t, "dup", projects[0].Name)
	assert.Equal(t, 1, projects[0].ConversationCount)

	convs := slices.Collect(a.Conversations(root))
	require.Len(t, convs, 2)
	assert.Equal(t, "acct_org1_.claude_-sessions-dup", convs[0].ProjectSourceID)
	assert.Equal(t, "acct_org2_.claude_-sessions-dup", convs[1].ProjectSourceID)
}

func TestLAMS_DepthBound(t *testing.T) {
	root := t.TempDir()
	lams := filepath.Join(root, LAMSDir)
	line := userLine("u1", "2025-01-01T10:00:00Z", "Deeply nested session")
	writeFile(t, filepath.Join(lams, "1", "2", "3", "4", "5", "projects", "-sessions-ok", "s.jsonl"), line)
	writeFile(t, filepath.Join(lams, "1", "2", "3", "4", "5", "6", "projects", "-sessions-deep", "s.jsonl"), line)

	projects := slices.Collect(New(nil).Projects(root))
	require.Len(t, projects, 1)
	assert.Equal(t, "1_2_3_4_5_-sessions-ok", projects[0].SourceID)
}

func TestAutoRoots(t *testing.T) {
	r1, r2 := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(r1, "projects", "-sessions-one", "a.jsonl"),
		userLine("u1", "2025-01-01T10:00:00Z", "First root session"))
	writeFile(t, filepath.Join(r2, LAMSDir, "acct", "projects", "-sessions-two", "b.jsonl"),
		userLine("u2", "2025-01-01T10:00:00Z", "Second root session"))

	a := New(nil, r1, r2)
	assert.True(t, a.Detect(AutoRoot))
	convs := slices.Collect(a.Conversations(AutoRoot))
	require.Len(t, convs, 2)
	assert.Equal(t, "-sessions-one", convs[0].ProjectSourceID)
	assert.Equal(t, "acct_-sessions-two", convs[1].ProjectSourceID)

	// an explicit root ignores the auto list
	assert.Len(t, slices.Collect(a.Conversations(r1)), 1)
}

func TestDeterministic(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "projects", "-sessions-x")
	writeFile(t, filepath.Join(dir, "s.jsonl"), userLine("u1", "2025-01-01T10:00:03Z", "Main thread message"))
	writeFile(t, filepath.Join(dir, "s", "subagents", "agent-b.jsonl"), userLine("b", "2025-01-01T10:00:01Z", "sub b"))
	writeFile(t, filepath.Join(dir, "s", "subagents", "agent-a.jsonl"), userLine("a", "2025-01-01T10:00:01Z", "sub a"))

	a := New(nil)
	first := slices.Collect(a.Conversations(root))
	second := slices.Collect(a.Conversations(root))
	require.Len(t, first, 1)
	assert.Equal(t, first, second)
	assert.Equal(t, "a", first[0].Messages[0].SourceID)
	assert.Equal(t, "b", first[0].Messages[1].SourceID)
}
