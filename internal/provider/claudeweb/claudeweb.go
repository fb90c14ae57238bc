// Package claudeweb reads claude.ai data exports: a flat array of
// conversations whose messages carry typed content blocks, plus an optional
// projects document.
package claudeweb

import (
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/Zuo-Peng/ai-session-import/internal/jsondoc"
	"github.com/Zuo-Peng/ai-session-import/internal/model"
	"github.com/Zuo-Peng/ai-session-import/internal/normalize"
)

const (
	ConversationsFile = "conversations.json"
	ProjectsFile      = "projects.json"
	Untitled          = "Untitled"
)

type rawConversation struct {
	UUID         string            `json:"uuid"`
	Name         string            `json:"name"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
	ProjectUUID  string            `json:"project_uuid"`
	ChatMessages []json.RawMessage `json:"chat_messages"`
}

// rawMessage keeps its blocks undecoded so one malformed block costs only
// that block.
type rawMessage struct {
	UUID      string            `json:"uuid"`
	Sender    string            `json:"sender"`
	CreatedAt string            `json:"created_at"`
	Text      string            `json:"text"`
	Content   []json.RawMessage `json:"content"`
}

type rawBlock struct {
	Type     string          `json:"type"`
	Text     string          `json:"text"`
	Thinking string          `json:"thinking"`
	Name     string          `json:"name"`
	Input    json.RawMessage `json:"input"`
}

type rawToolInput struct {
	Title string `json:"title"`
}

type rawProject struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// artifactTools create a named document from their input title.
var artifactTools = map[string]bool{
	"artifacts":   true,
	"create_file": true,
}

type Adapter struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{log: log.Named(model.ProviderClaudeWeb)}
}

func (a *Adapter) Name() string { return model.ProviderClaudeWeb }

func (a *Adapter) Detect(root string) bool {
	path, ok := jsondoc.Resolve(root, ConversationsFile)
	if !ok {
		return false
	}
	return jsondoc.FirstHas(path, "chat_messages")
}

// Projects reads the optional projects document. Exports without one have no
// projects.
func (a *Adapter) Projects(root string) iter.Seq[model.Project] {
	return func(yield func(model.Project) bool) {
		path, ok := a.projectsPath(root)
		if !ok {
			return
		}
		var err error
		for el := range jsondoc.Elements(path, &err) {
			var rp rawProject
			if err := json.Unmarshal(el, &rp); err != nil || rp.UUID == "" {
				continue
			}
			p := model.Project{
				SourceID: rp.UUID,
				Provider: model.ProviderClaudeWeb,
				Name:     strings.TrimSpace(rp.Name),
			}
			if t := normalize.Timestamp(rp.CreatedAt); normalize.IsKnown(t) {
				p.CreatedAt = t
			}
			if t := normalize.Timestamp(rp.UpdatedAt); normalize.IsKnown(t) {
				p.UpdatedAt = t
			}
			if p.Name == "" {
				p.Name = Untitled
			}
			if !yield(p) {
				return
			}
		}
		if err != nil {
			a.log.Debug("stop reading projects", zap.String("path", path), zap.Error(err))
		}
	}
}

func (a *Adapter) projectsPath(root string) (string, bool) {
	if path, ok := jsondoc.Resolve(root, ProjectsFile); ok {
		return path, true
	}
	if conv, ok := jsondoc.Resolve(root, ConversationsFile); ok {
		return jsondoc.Sibling(conv, ProjectsFile)
	}
	return "", false
}

// Conversations decodes one conversation per pull; array order is
// conversational order, so no reordering happens.
func (a *Adapter) Conversations(root string) iter.Seq[model.Conversation] {
	return func(yield func(model.Conversation) bool) {
		path, ok := jsondoc.Resolve(root, ConversationsFile)
		if !ok {
			return
		}
		var err error
		for el := range jsondoc.Elements(path, &err) {
			var rc rawConversation
			if err := json.Unmarshal(el, &rc); err != nil {
				a.log.Debug("skip conversation", zap.Error(err))
				continue
			}
			conv, ok := a.convert(rc)
			if !ok {
				continue
			}
			if !yield(conv) {
				return
			}
		}
		if err != nil {
			a.log.Debug("stop reading export", zap.String("path", path), zap.Error(err))
		}
	}
}

func (a *Adapter) convert(rc rawConversation) (model.Conversation, bool) {
	if rc.UUID == "" {
		return model.Conversation{}, false
	}
	conv := model.Conversation{
		SourceID:        rc.UUID,
		Provider:        model.ProviderClaudeWeb,
		Title:           strings.TrimSpace(rc.Name),
		CreatedAt:       normalize.Timestamp(rc.CreatedAt),
		UpdatedAt:       normalize.Timestamp(rc.UpdatedAt),
		ProjectSourceID: rc.ProjectUUID,
	}
	if conv.Title == "" {
		conv.Title = Untitled
	}
	for i, el := range rc.ChatMessages {
		var rm rawMessage
		if err := json.Unmarshal(el, &rm); err != nil {
			a.log.Debug("skip message", zap.String("conversation", rc.UUID), zap.Int("index", i), zap.Error(err))
			continue
		}
		msg, ok := convertMessage(rm, a.blocks(rm))
		if !ok {
			continue
		}
		if msg.SourceID == "" {
			msg.SourceID = fmt.Sprintf("%s:%d", rc.UUID, i)
		}
		conv.Messages = append(conv.Messages, msg)
	}
	if len(conv.Messages) == 0 {
		return model.Conversation{}, false
	}
	normalize.Finish(&conv)
	return conv, true
}

// Role maps a sender value to a role: "human" is the user, anything else is
// kept as written.
func Role(sender string) model.Role {
	if sender == "human" {
		return model.RoleUser
	}
	return model.Role(sender)
}

// blocks decodes the content blocks of rm, dropping any that do not fit.
func (a *Adapter) blocks(rm rawMessage) []rawBlock {
	blocks := make([]rawBlock, 0, len(rm.Content))
	for i, el := range rm.Content {
		var b rawBlock
		if err := json.Unmarshal(el, &b); err != nil {
			a.log.Debug("skip block", zap.String("message", rm.UUID), zap.Int("index", i), zap.Error(err))
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks
}

func convertMessage(rm rawMessage, blocks []rawBlock) (model.Message, bool) {
	var parts []model.ContentPart
	var texts []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if b.Text == "" {
				continue
			}
			texts = append(texts, b.Text)
			parts = append(parts, model.ContentPart{Kind: model.PartText, Text: b.Text})
		case "thinking":
			if b.Thinking == "" {
				continue
			}
			parts = append(parts, model.ContentPart{Kind: model.PartThinking, Text: b.Thinking})
		case "tool_use":
			parts = append(parts, model.ContentPart{Kind: model.PartToolCall, ToolName: b.Name, Text: ToolLabel(b.Name, b.Input)})
		case "tool_result":
			parts = append(parts, model.ContentPart{Kind: model.PartToolResult, ToolName: b.Name})
		}
	}
	// older exports carry the text inline without content blocks
	if len(rm.Content) == 0 && rm.Text != "" {
		texts = append(texts, rm.Text)
		parts = append(parts, model.ContentPart{Kind: model.PartText, Text: rm.Text})
	}
	if len(parts) == 0 {
		return model.Message{}, false
	}

	text := strings.Join(texts, "\n")
	if text == "" {
		var labels []model.ContentPart
		for _, p := range parts {
			if p.Kind != model.PartThinking {
				labels = append(labels, p)
			}
		}
		text = normalize.Flatten(labels)
	}
	return normalize.NewMessage(rm.UUID, Role(rm.Sender), parts, text, normalize.Timestamp(rm.CreatedAt)), true
}

// ToolLabel describes a tool call. Artifact tools with a title are named
// after the artifact; other calls get a generic label.
func ToolLabel(name string, input json.RawMessage) string {
	var in rawToolInput
	if artifactTools[name] && len(input) > 0 && json.Unmarshal(input, &in) == nil {
		if title := strings.TrimSpace(in.Title); title != "" {
			return "Created artifact: " + title
		}
	}
	if name == "" {
		return "Used tool"
	}
	return "Used tool: " + name
}
