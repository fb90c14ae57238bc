package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Zuo-Peng/ai-session-import/internal/model"
)

func TestWordCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"a  b\tc", 3},
		{"one\ntwo\n\nthree ", 3},
		{"[Tool: Read]", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WordCount(tt.in), "WordCount(%q)", tt.in)
	}
}

func TestTimestamp_SecondsAndMillisAgree(t *testing.T) {
	secs := Timestamp(float64(1700000000))
	millis := Timestamp(float64(1700000000000))
	assert.True(t, secs.Equal(millis))
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), secs)

	assert.True(t, Timestamp(int64(1700000000)).Equal(secs))
	assert.True(t, Timestamp(json.Number("1700000000000")).Equal(secs))
}

func TestTimestamp_FractionalSeconds(t *testing.T) {
	got := Timestamp(1700000000.5)
	assert.Equal(t, 500*time.Millisecond, got.Sub(time.Unix(1700000000, 0).UTC()))
}

func TestTimestamp_Strings(t *testing.T) {
	want := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, want, Timestamp("2025-01-02T03:04:05Z"))
	assert.Equal(t, want, Timestamp("2025-01-02T04:04:05+01:00"))
	assert.Equal(t, want, Timestamp("2025-01-02T03:04:05"))
	assert.Equal(t, want.Add(123*time.Millisecond), Timestamp("2025-01-02T03:04:05.123Z"))
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Timestamp("2025-01-02"))
}

func TestTimestamp_UnknownIsEpoch(t *testing.T) {
	for _, v := range []any{nil, "", "not a date", "yesterday", true, map[string]any{}, json.Number("x")} {
		assert.Equal(t, model.Epoch, Timestamp(v), "Timestamp(%#v)", v)
	}
	var nilPtr *float64
	assert.Equal(t, model.Epoch, Timestamp(nilPtr))
	assert.False(t, IsKnown(Timestamp(nil)))
}

func TestFlatten(t *testing.T) {
	parts := []model.ContentPart{
		{Kind: model.PartText, Text: "hello world"},
		{Kind: model.PartThinking, Text: "pondering"},
		{Kind: model.PartCode, Text: "fmt.Println(1)", Language: "go"},
		{Kind: model.PartToolCall, ToolName: "Read", Text: "Used tool: Read"},
		{Kind: model.PartToolResult, ToolName: "Read"},
		{Kind: model.PartImage, FileName: "cat.png"},
		{Kind: model.PartFile, FileName: "notes.pdf"},
		{Kind: model.PartKind("hologram"), Text: "ignored"},
		{Kind: model.PartText},
	}
	want := "hello world\npondering\nfmt.Println(1)\n[Tool: Read]\n[Tool Result: Read]\n[Image: cat.png]\n[File: notes.pdf]"
	assert.Equal(t, want, Flatten(parts))
	assert.Equal(t, "[Image]", Flatten([]model.ContentPart{{Kind: model.PartImage}}))
	assert.Equal(t, "", Flatten(nil))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 80))
	assert.Equal(t, "line one line two", Truncate("line one\nline two", 80))
	assert.Equal(t, "abcde...", Truncate("abcdefgh", 5))
	assert.Equal(t, "日本語...", Truncate("日本語テキスト", 3))
}

func TestNewMessage_DerivesWordCount(t *testing.T) {
	m := NewMessage("m1", model.RoleUser, nil, "three little words", model.Epoch)
	assert.Equal(t, 3, m.WordCount)
}

func TestFinish(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	c := model.Conversation{
		CreatedAt: model.Epoch,
		Messages: []model.Message{
			{Role: model.RoleUser, Text: "hi there", WordCount: 99, Timestamp: t2},
			{Role: model.RoleAssistant, Text: "a b c", Model: "m-small", Timestamp: model.Epoch},
			{Role: model.RoleAssistant, Text: "d", Model: "m-large", Timestamp: t1},
			{Role: model.RoleAssistant, Text: "e", Model: "m-large"},
			{Role: model.RoleUser, Text: "f", Model: "user-model-ignored"},
		},
	}
	Finish(&c)

	assert.Equal(t, 5, c.MessageCount)
	assert.Equal(t, 2, c.Messages[0].WordCount)
	assert.Equal(t, 8, c.TotalWords)
	assert.Equal(t, "m-large", c.Model)
	assert.Equal(t, t1, c.CreatedAt)
	assert.Equal(t, t2, c.UpdatedAt)
}

func TestPrimaryModel_TieGoesToFirstSeen(t *testing.T) {
	msgs := []model.Message{
		{Role: model.RoleAssistant, Model: "b"},
		{Role: model.RoleAssistant, Model: "a"},
		{Role: model.RoleAssistant, Model: "a"},
		{Role: model.RoleAssistant, Model: "b"},
	}
	assert.Equal(t, "b", PrimaryModel(msgs))
	assert.Equal(t, "", PrimaryModel(nil))
}

func TestFinish_NoKnownTimestamps(t *testing.T) {
	c := model.Conversation{Messages: []model.Message{{Role: model.RoleUser, Text: "x"}}}
	Finish(&c)
	assert.Equal(t, model.Epoch, c.CreatedAt)
	assert.Equal(t, model.Epoch, c.UpdatedAt)
}
