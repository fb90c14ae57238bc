package search

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/ai-session-import/internal/index"
	"github.com/Zuo-Peng/ai-session-import/internal/model"
	"github.com/Zuo-Peng/ai-session-import/internal/normalize"
)

func seed(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, db.UpsertProject(ctx, model.Project{SourceID: "p1", Provider: model.ProviderChatGPT, Name: "Kitchen"}))

	ts := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	convs := []model.Conversation{
		{
			SourceID: "c1", Provider: model.ProviderChatGPT, Title: "Bread", UpdatedAt: ts, ProjectSourceID: "p1",
			Messages: []model.Message{
				normalize.NewMessage("m1", model.RoleUser, nil, "how do I bake sourdough bread", ts),
				normalize.NewMessage("m2", model.RoleAssistant, nil, "sourdough needs an active starter", ts),
			},
		},
		{
			SourceID: "c2", Provider: model.ProviderClaudeCode, Title: "Deploy", UpdatedAt: ts.AddDate(0, 1, 0),
			Messages: []model.Message{
				normalize.NewMessage("m1", model.RoleUser, nil, "sourdough is off topic here", ts),
				normalize.NewMessage("m2", model.RoleAssistant, nil, "部署到生产环境", ts),
			},
		},
	}
	for _, c := range convs {
		normalize.Finish(&c)
		_, err := db.UpsertConversation(ctx, c)
		require.NoError(t, err)
	}
	return db
}

func TestSearch_FTSDedupsPerConversation(t *testing.T) {
	db := seed(t)
	results, err := Search(db, Options{Query: "sourdough"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	keys := []string{results[0].ConvKey, results[1].ConvKey}
	assert.ElementsMatch(t, []string{"chatgpt:c1", "claude-code:c2"}, keys)
	for _, r := range results {
		assert.Contains(t, r.Snippet, ">>>sourdough<<<")
		if r.ConvKey == "chatgpt:c1" {
			assert.Equal(t, "Kitchen", r.Project)
			assert.Equal(t, "Bread", r.Title)
		}
	}
}

func TestSearch_Filters(t *testing.T) {
	db := seed(t)

	results, err := Search(db, Options{Query: "sourdough", Provider: model.ProviderClaudeCode})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "claude-code:c2", results[0].ConvKey)

	results, err = Search(db, Options{Query: "sourdough", Role: "assistant"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Seq)

	results, err = Search(db, Options{Query: "sourdough", Since: "2025-05-15"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "claude-code:c2", results[0].ConvKey)
}

func TestSearch_CJKFallsBackToLike(t *testing.T) {
	db := seed(t)
	results, err := Search(db, Options{Query: "生产"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "部署到>>>生产<<<环境", results[0].Snippet)
	assert.Equal(t, "assistant", results[0].Role)
}

func TestMakeSnippet(t *testing.T) {
	assert.Equal(t, "...bc >>>key<<< de...", makeSnippet("abc key def", "KEY", 3))
	assert.Equal(t, "ab >>>KEY<<< de...", makeSnippet("ab KEY def", "key", 3))
	assert.Equal(t, "abcdef...", makeSnippet("abcdefghij", "zz", 3))
	assert.Equal(t, "short", makeSnippet("short", "zz", 3))
}
