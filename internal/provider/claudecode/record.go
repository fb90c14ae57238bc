package claudecode

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Zuo-Peng/ai-session-import/internal/model"
	"github.com/Zuo-Peng/ai-session-import/internal/normalize"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

// model id Claude Code writes for locally generated assistant records
const syntheticModel = "<synthetic>"

// controlMarkers prefix user records that carry harness output rather than
// something the user typed.
var controlMarkers = []string{
	"<command-name>",
	"<command-message>",
	"<command-args>",
	"<local-command-stdout>",
	"<local-command-stderr>",
	"<system-reminder>",
	"Caveat:",
	"[Request interrupted",
}

type record struct {
	Type      string          `json:"type"`
	UUID      string          `json:"uuid"`
	IsMeta    bool            `json:"isMeta"`
	Timestamp string          `json:"timestamp"`
	Message   json.RawMessage `json:"message"`
}

type recordMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Model   string          `json:"model"`
}

type contentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Thinking string `json:"thinking"`
	Name     string `json:"name"`
	Source   *struct {
		MediaType string `json:"media_type"`
	} `json:"source"`
}

// Entry is one message read from a session log together with its raw
// timestamp string, which sorts chronologically as written.
type Entry struct {
	RawTimestamp string
	Message      model.Message
}

// IsControlMessage reports whether a user record's text is harness output.
func IsControlMessage(text string) bool {
	text = strings.TrimSpace(text)
	for _, m := range controlMarkers {
		if strings.HasPrefix(text, m) {
			return true
		}
	}
	return false
}

// ReadLog reads one per-line JSON session log. Malformed lines and lines
// longer than maxLineSize are skipped. When reading stops early the entries
// read so far are returned with the error.
func ReadLog(path, sessionID string, subagent bool) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	var entries []Entry
	var buf []byte
	lineNum := 0
	for {
		line, tooLong, err := nextLine(r, buf)
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		buf = line
		lineNum++
		if tooLong || len(line) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.IsMeta || (rec.Type != "user" && rec.Type != "assistant") {
			continue
		}

		msg, ok := convertRecord(rec)
		if !ok {
			continue
		}
		if msg.SourceID == "" {
			msg.SourceID = fmt.Sprintf("%s:%d", sessionID, lineNum)
		}
		msg.IsSubagent = subagent
		entries = append(entries, Entry{RawTimestamp: rec.Timestamp, Message: msg})
	}
}

// nextLine returns the next line of r without its line ending, reusing buf.
// A line over maxLineSize is consumed in full but not kept; tooLong reports
// it.
func nextLine(r *bufio.Reader, buf []byte) ([]byte, bool, error) {
	line := buf[:0]
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxLineSize+1 {
				tooLong, line = true, line[:0]
			} else {
				line = append(line, chunk...)
			}
		}
		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF && (len(line) > 0 || tooLong):
			// last line without a newline
		case err != nil:
			return nil, false, err
		}
		return bytes.TrimRight(line, "\r\n"), tooLong, nil
	}
}

func convertRecord(rec record) (model.Message, bool) {
	var msg recordMessage
	if err := json.Unmarshal(rec.Message, &msg); err != nil {
		return model.Message{}, false
	}
	ts := normalize.Timestamp(rec.Timestamp)

	if rec.Type == "user" {
		text, parts := userContent(msg.Content)
		if text == "" || IsControlMessage(text) {
			return model.Message{}, false
		}
		return normalize.NewMessage(rec.UUID, model.RoleUser, parts, normalize.Flatten(parts), ts), true
	}

	parts := assistantContent(msg.Content)
	if len(parts) == 0 {
		return model.Message{}, false
	}
	text := normalize.Flatten(parts)
	if text == "" {
		return model.Message{}, false
	}
	m := normalize.NewMessage(rec.UUID, model.RoleAssistant, parts, text, ts)
	if msg.Model != syntheticModel {
		m.Model = msg.Model
	}
	return m, true
}

// userContent returns the typed text of a user record and its parts. Tool
// results sent back on the user's turn carry no typed text.
func userContent(raw json.RawMessage) (string, []model.ContentPart) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return "", nil
		}
		return s, []model.ContentPart{{Kind: model.PartText, Text: s}}
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", nil
	}
	var texts []string
	var images []model.ContentPart
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if t := strings.TrimSpace(b.Text); t != "" {
				texts = append(texts, t)
			}
		case "image":
			p := model.ContentPart{Kind: model.PartImage}
			if b.Source != nil {
				p.MimeType = b.Source.MediaType
			}
			images = append(images, p)
		}
	}
	text := strings.Join(texts, "\n")
	if text == "" {
		return "", nil
	}
	parts := append([]model.ContentPart{{Kind: model.PartText, Text: text}}, images...)
	return text, parts
}

func assistantContent(raw json.RawMessage) []model.ContentPart {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return []model.ContentPart{{Kind: model.PartText, Text: s}}
		}
		return nil
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil
	}
	var parts []model.ContentPart
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if t := strings.TrimSpace(b.Text); t != "" {
				parts = append(parts, model.ContentPart{Kind: model.PartText, Text: t})
			}
		case "thinking":
			if t := strings.TrimSpace(b.Thinking); t != "" {
				parts = append(parts, model.ContentPart{Kind: model.PartThinking, Text: t})
			}
		case "tool_use":
			parts = append(parts, model.ContentPart{
				Kind:     model.PartToolCall,
				ToolName: b.Name,
				Text:     "Used tool: " + b.Name,
			})
		case "tool_result":
			parts = append(parts, model.ContentPart{Kind: model.PartToolResult, ToolName: b.Name})
		}
	}
	return parts
}
