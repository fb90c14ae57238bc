package chatgpt

import "encoding/json"

// rawConversation leaves its nodes undecoded: a malformed node, often on a
// branch the walk never visits, must not cost the whole conversation.
type rawConversation struct {
	ID             string                     `json:"id"`
	ConversationID string                     `json:"conversation_id"`
	Title          string                     `json:"title"`
	CreateTime     any                        `json:"create_time"`
	UpdateTime     any                        `json:"update_time"`
	Mapping        map[string]json.RawMessage `json:"mapping"`
	GizmoID        *string                    `json:"gizmo_id"`
}

func (c rawConversation) sourceID() string {
	if c.ID != "" {
		return c.ID
	}
	return c.ConversationID
}

func (c rawConversation) groupID() string {
	if c.GizmoID == nil {
		return ""
	}
	return *c.GizmoID
}

type rawNode struct {
	ID       string          `json:"id"`
	Parent   *string         `json:"parent"`
	Children []string        `json:"children"`
	Message  json.RawMessage `json:"message"`
}

type rawMessage struct {
	ID     string `json:"id"`
	Author struct {
		Role string  `json:"role"`
		Name *string `json:"name"`
	} `json:"author"`
	CreateTime any        `json:"create_time"`
	Content    rawContent `json:"content"`
	Metadata   struct {
		ModelSlug        string `json:"model_slug"`
		IsVisuallyHidden bool   `json:"is_visually_hidden_from_conversation"`
	} `json:"metadata"`
}

type rawContent struct {
	ContentType string            `json:"content_type"`
	Parts       []json.RawMessage `json:"parts"`
	Text        string            `json:"text"`
	Language    string            `json:"language"`
}

type rawAsset struct {
	ContentType  string `json:"content_type"`
	AssetPointer string `json:"asset_pointer"`
}
