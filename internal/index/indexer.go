package index

import (
	"context"
	"fmt"
	"time"

	"github.com/Zuo-Peng/ai-session-import/internal/model"
	"github.com/Zuo-Peng/ai-session-import/internal/normalize"
)

// Key identifies a stored entity: sources only guarantee unique ids within
// one provider.
func Key(provider, sourceID string) string {
	return provider + ":" + sourceID
}

// formatTime stores unknown instants as the empty string.
func formatTime(t time.Time) string {
	if !normalize.IsKnown(t) {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// messageKind picks the display kind of a stored message: text when any part
// carries prose, otherwise the kind of its first part.
func messageKind(m model.Message) string {
	for _, p := range m.Parts {
		if p.Kind == model.PartText || p.Kind == model.PartCode {
			return string(model.PartText)
		}
	}
	if len(m.Parts) == 0 {
		return string(model.PartText)
	}
	return string(m.Parts[0].Kind)
}

func (d *DB) UpsertProject(ctx context.Context, p model.Project) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO projects (project_key, provider, source_id, name, created_at, updated_at, conversation_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_key) DO UPDATE SET
			name = excluded.name,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			conversation_count = excluded.conversation_count`,
		Key(p.Provider, p.SourceID),
		p.Provider,
		p.SourceID,
		p.Name,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
		p.ConversationCount,
	)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}

// UpsertConversation replaces the stored conversation and all of its
// messages. The project reference resolves only against a project of the
// same provider imported earlier.
func (d *DB) UpsertConversation(ctx context.Context, c model.Conversation) (bool, error) {
	convKey := Key(c.Provider, c.SourceID)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	projectKey := ""
	if c.ProjectSourceID != "" {
		key := Key(c.Provider, c.ProjectSourceID)
		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects WHERE project_key = ?", key).Scan(&n); err != nil {
			return false, fmt.Errorf("resolve project: %w", err)
		}
		if n > 0 {
			projectKey = key
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (conv_key, provider, source_id, title, created_at, updated_at,
			message_count, total_words, model, project_source_id, project_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(conv_key) DO UPDATE SET
			title = excluded.title,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			message_count = excluded.message_count,
			total_words = excluded.total_words,
			model = excluded.model,
			project_source_id = excluded.project_source_id,
			project_key = excluded.project_key`,
		convKey,
		c.Provider,
		c.SourceID,
		c.Title,
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
		c.MessageCount,
		c.TotalWords,
		c.Model,
		c.ProjectSourceID,
		projectKey,
	)
	if err != nil {
		return false, fmt.Errorf("upsert conversation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE conv_key = ?", convKey); err != nil {
		return false, fmt.Errorf("clear messages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (conv_key, seq, source_id, ts, role, kind, text, word_count, model, is_subagent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	for i, m := range c.Messages {
		_, err := stmt.ExecContext(ctx,
			convKey,
			i,
			m.SourceID,
			formatTime(m.Timestamp),
			string(m.Role),
			messageKind(m),
			m.Text,
			m.WordCount,
			m.Model,
			m.IsSubagent,
		)
		if err != nil {
			return false, fmt.Errorf("insert message %s: %w", m.SourceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return projectKey != "", nil
}
