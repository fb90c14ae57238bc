// Package chatgpt reads ChatGPT data exports. Each conversation is stored as
// a DAG of message nodes in which regenerations and edits fork; the adapter
// keeps only the final edited branch.
package chatgpt

import (
	"encoding/json"
	"iter"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Zuo-Peng/ai-session-import/internal/jsondoc"
	"github.com/Zuo-Peng/ai-session-import/internal/model"
	"github.com/Zuo-Peng/ai-session-import/internal/normalize"
)

const (
	ConversationsFile = "conversations.json"
	Untitled          = "Untitled"
)

type Adapter struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{log: log.Named(model.ProviderChatGPT)}
}

func (a *Adapter) Name() string { return model.ProviderChatGPT }

// Detect reports whether root holds a conversations.json whose first
// conversation carries a node mapping.
func (a *Adapter) Detect(root string) bool {
	path, ok := jsondoc.Resolve(root, ConversationsFile)
	if !ok {
		return false
	}
	return jsondoc.FirstHas(path, "mapping")
}

// Conversations decodes one conversation per pull.
func (a *Adapter) Conversations(root string) iter.Seq[model.Conversation] {
	return func(yield func(model.Conversation) bool) {
		for raw := range a.conversations(root) {
			conv, ok := a.convert(raw)
			if !ok {
				continue
			}
			if !yield(conv) {
				return
			}
		}
	}
}

func (a *Adapter) conversations(root string) iter.Seq[rawConversation] {
	return func(yield func(rawConversation) bool) {
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
			if !yield(rc) {
				return
			}
		}
		if err != nil {
			a.log.Debug("stop reading export", zap.String("path", path), zap.Error(err))
		}
	}
}

func (a *Adapter) convert(rc rawConversation) (model.Conversation, bool) {
	id := rc.sourceID()
	if id == "" {
		return model.Conversation{}, false
	}
	created := normalize.Timestamp(rc.CreateTime)
	conv := model.Conversation{
		SourceID:        id,
		Provider:        model.ProviderChatGPT,
		Title:           strings.TrimSpace(rc.Title),
		CreatedAt:       created,
		UpdatedAt:       normalize.Timestamp(rc.UpdateTime),
		ProjectSourceID: rc.groupID(),
	}
	if conv.Title == "" {
		conv.Title = Untitled
	}

	for _, pn := range linearize(a.nodes(id, rc.Mapping)) {
		if len(pn.node.Message) == 0 || string(pn.node.Message) == "null" {
			continue
		}
		var m rawMessage
		if err := json.Unmarshal(pn.node.Message, &m); err != nil {
			a.log.Debug("skip message", zap.String("conversation", id), zap.String("node", pn.id), zap.Error(err))
			continue
		}
		if msg, ok := convertMessage(pn.id, &m, created); ok {
			conv.Messages = append(conv.Messages, msg)
		}
	}
	if len(conv.Messages) == 0 {
		return model.Conversation{}, false
	}
	normalize.Finish(&conv)
	return conv, true
}

// nodes decodes the node structure of a mapping. Nodes that fail to decode
// are left out; their messages stay undecoded until the walk reaches them.
func (a *Adapter) nodes(convID string, mapping map[string]json.RawMessage) map[string]rawNode {
	out := make(map[string]rawNode, len(mapping))
	for id, raw := range mapping {
		var n rawNode
		if err := json.Unmarshal(raw, &n); err != nil {
			a.log.Debug("skip node", zap.String("conversation", convID), zap.String("node", id), zap.Error(err))
			continue
		}
		out[id] = n
	}
	return out
}

type pathNode struct {
	id   string
	node rawNode
}

// linearize walks the main branch: from the root it always follows the last
// child, which is the most recent edit or regeneration.
func linearize(mapping map[string]rawNode) []pathNode {
	root, ok := findRoot(mapping)
	if !ok {
		return nil
	}
	var path []pathNode
	visited := make(map[string]bool, len(mapping))
	for id := root; ; {
		node, ok := mapping[id]
		if !ok || visited[id] {
			break
		}
		visited[id] = true
		path = append(path, pathNode{id: id, node: node})
		if len(node.Children) == 0 {
			break
		}
		id = node.Children[len(node.Children)-1]
	}
	return path
}

// findRoot returns the node whose parent is absent from the mapping. Exports
// have exactly one; if several appear the smallest id wins so that repeated
// runs agree.
func findRoot(mapping map[string]rawNode) (string, bool) {
	var candidates []string
	for id, node := range mapping {
		if node.Parent == nil || *node.Parent == "" {
			candidates = append(candidates, id)
			continue
		}
		if _, ok := mapping[*node.Parent]; !ok {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	return slices.Min(candidates), true
}

func convertMessage(nodeID string, m *rawMessage, fallback time.Time) (model.Message, bool) {
	if m.Metadata.IsVisuallyHidden {
		return model.Message{}, false
	}
	role := model.Role(m.Author.Role)
	if !role.IsCanonical() {
		return model.Message{}, false
	}

	parts := contentParts(m)
	text := normalize.Flatten(parts)
	if strings.TrimSpace(text) == "" && role != model.RoleSystem {
		return model.Message{}, false
	}

	ts := normalize.Timestamp(m.CreateTime)
	if !normalize.IsKnown(ts) {
		ts = fallback
	}
	id := m.ID
	if id == "" {
		id = nodeID
	}
	msg := normalize.NewMessage(id, role, parts, text, ts)
	if role == model.RoleAssistant {
		msg.Model = m.Metadata.ModelSlug
	}
	return msg, true
}

func contentParts(m *rawMessage) []model.ContentPart {
	c := m.Content
	switch c.ContentType {
	case "code":
		if c.Text == "" {
			return nil
		}
		return []model.ContentPart{{Kind: model.PartCode, Text: c.Text, Language: c.Language}}
	case "multimodal_text":
		var parts []model.ContentPart
		for _, raw := range c.Parts {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				if s = strings.TrimSpace(s); s != "" {
					parts = append(parts, model.ContentPart{Kind: model.PartText, Text: s})
				}
				continue
			}
			var asset rawAsset
			if err := json.Unmarshal(raw, &asset); err == nil && asset.ContentType == "image_asset_pointer" {
				parts = append(parts, model.ContentPart{Kind: model.PartImage, FileName: asset.AssetPointer})
			}
		}
		return parts
	case "execution_output":
		tool := "python"
		if m.Author.Name != nil && *m.Author.Name != "" {
			tool = *m.Author.Name
		}
		return []model.ContentPart{{Kind: model.PartToolResult, ToolName: tool, Text: c.Text}}
	}

	// "text" and anything unrecognised: keep the string parts
	text := strings.TrimSpace(strings.Join(stringParts(c.Parts), "\n"))
	if text == "" {
		text = strings.TrimSpace(c.Text)
	}
	if text == "" {
		return nil
	}
	return []model.ContentPart{{Kind: model.PartText, Text: text}}
}

func stringParts(raw []json.RawMessage) []string {
	var out []string
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil && s != "" {
			out = append(out, s)
		}
	}
	return out
}
