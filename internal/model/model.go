package model

import "time"

// Provider tags.
const (
	ProviderChatGPT    = "chatgpt"
	ProviderClaudeWeb  = "claude-web"
	ProviderClaudeCode = "claude-code"
	ProviderCowork     = "cowork"
)

// Epoch is the instant used for timestamps that could not be determined.
// Consumers must treat it as "unknown", not as a real date.
var Epoch = time.Unix(0, 0).UTC()

type PartKind string

const (
	PartText       PartKind = "text"
	PartCode       PartKind = "code"
	PartImage      PartKind = "image"
	PartFile       PartKind = "file"
	PartToolCall   PartKind = "tool_call"
	PartToolResult PartKind = "tool_result"
	PartThinking   PartKind = "thinking"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// IsCanonical reports whether r is one of the four canonical roles.
func (r Role) IsCanonical() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	}
	return false
}

type ContentPart struct {
	Kind     PartKind
	Text     string // display text; for tool calls a synthesized label
	Language string // code parts
	ToolName string // tool_call / tool_result
	FileName string // image / file
	MimeType string
}

type Message struct {
	SourceID   string
	Role       Role
	Parts      []ContentPart
	Text       string // flattened plain-text projection
	WordCount  int    // always derived from Text
	Timestamp  time.Time
	Model      string
	IsSubagent bool
}

type Conversation struct {
	SourceID        string
	Provider        string
	Title           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	MessageCount    int
	TotalWords      int
	Model           string // mode of assistant models
	ProjectSourceID string
	Messages        []Message
}

// Project groups conversations. Zero times are absent values and a zero
// ConversationCount means no hint is available.
type Project struct {
	SourceID          string
	Provider          string
	Name              string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ConversationCount int
}
