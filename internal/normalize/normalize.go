// Package normalize holds the pure helpers every provider adapter shares:
// timestamp coercion, word counting, content flattening and the builders that
// keep derived message and conversation fields consistent.
package normalize

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/Zuo-Peng/ai-session-import/internal/model"
)

// epoch values above this are milliseconds
const msThreshold = 1e12

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// WordCount splits on whitespace runs and counts the non-empty tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Timestamp coerces a raw JSON value into an instant. Numbers above 1e12 are
// epoch milliseconds, other numbers epoch seconds; strings are parsed as
// calendar instants. Anything else yields model.Epoch.
func Timestamp(v any) time.Time {
	switch x := v.(type) {
	case nil:
		return model.Epoch
	case float64:
		return fromNumber(x)
	case float32:
		return fromNumber(float64(x))
	case int:
		return fromNumber(float64(x))
	case int64:
		return fromNumber(float64(x))
	case *float64:
		if x == nil {
			return model.Epoch
		}
		return fromNumber(*x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return model.Epoch
		}
		return fromNumber(f)
	case string:
		return parseString(x)
	case time.Time:
		if x.IsZero() {
			return model.Epoch
		}
		return x.UTC()
	}
	return model.Epoch
}

func fromNumber(n float64) time.Time {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return model.Epoch
	}
	if n > msThreshold {
		return time.UnixMilli(int64(n)).UTC()
	}
	sec, frac := math.Modf(n)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}

func parseString(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Epoch
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return model.Epoch
}

// IsKnown reports whether t is a real instant rather than the unknown marker.
func IsKnown(t time.Time) bool {
	return !t.IsZero() && !t.Equal(model.Epoch)
}

// Flatten renders parts as one line each. The bracket labels are indexed and
// counted, so their format must not change.
func Flatten(parts []model.ContentPart) string {
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		var line string
		switch p.Kind {
		case model.PartText, model.PartThinking, model.PartCode:
			line = p.Text
		case model.PartToolCall:
			line = label("Tool", p.ToolName)
		case model.PartToolResult:
			line = label("Tool Result", p.ToolName)
		case model.PartImage:
			line = label("Image", p.FileName)
		case model.PartFile:
			line = label("File", p.FileName)
		}
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func label(kind, name string) string {
	if name == "" {
		return "[" + kind + "]"
	}
	return "[" + kind + ": " + name + "]"
}

// Truncate collapses newlines to spaces and cuts s to max runes, appending
// "..." when something was cut.
func Truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max])) + "..."
}

// NewMessage builds a message whose word count is derived from text.
func NewMessage(sourceID string, role model.Role, parts []model.ContentPart, text string, ts time.Time) model.Message {
	return model.Message{
		SourceID:  sourceID,
		Role:      role,
		Parts:     parts,
		Text:      text,
		WordCount: WordCount(text),
		Timestamp: ts,
	}
}

// Finish recomputes the aggregate fields of c from its messages. Unset
// CreatedAt/UpdatedAt are filled from the earliest and latest known message
// timestamps, or model.Epoch when none is known.
func Finish(c *model.Conversation) {
	c.MessageCount = len(c.Messages)
	c.TotalWords = 0
	for i := range c.Messages {
		c.Messages[i].WordCount = WordCount(c.Messages[i].Text)
		c.TotalWords += c.Messages[i].WordCount
	}
	c.Model = PrimaryModel(c.Messages)

	first, last := Span(c.Messages)
	if !IsKnown(c.CreatedAt) {
		c.CreatedAt = first
	}
	if !IsKnown(c.UpdatedAt) {
		c.UpdatedAt = last
	}
}

// Span returns the earliest and latest known message timestamps.
func Span(msgs []model.Message) (first, last time.Time) {
	first, last = model.Epoch, model.Epoch
	for _, m := range msgs {
		if !IsKnown(m.Timestamp) {
			continue
		}
		if !IsKnown(first) || m.Timestamp.Before(first) {
			first = m.Timestamp
		}
		if !IsKnown(last) || m.Timestamp.After(last) {
			last = m.Timestamp
		}
	}
	return first, last
}

// PrimaryModel returns the most used assistant model. Ties go to the model
// seen first.
func PrimaryModel(msgs []model.Message) string {
	counts := make(map[string]int)
	var order []string
	for _, m := range msgs {
		if m.Role != model.RoleAssistant || m.Model == "" {
			continue
		}
		if counts[m.Model] == 0 {
			order = append(order, m.Model)
		}
		counts[m.Model]++
	}
	best := ""
	for _, name := range order {
		if counts[name] > counts[best] {
			best = name
		}
	}
	return best
}
