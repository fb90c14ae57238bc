package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);

CREATE TABLE IF NOT EXISTS projects (
    project_key        TEXT PRIMARY KEY,
    provider           TEXT NOT NULL,
    source_id          TEXT NOT NULL,
    name               TEXT NOT NULL DEFAULT '',
    created_at         TEXT NOT NULL DEFAULT '',
    updated_at         TEXT NOT NULL DEFAULT '',
    conversation_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS conversations (
    conv_key          TEXT PRIMARY KEY,
    provider          TEXT NOT NULL,
    source_id         TEXT NOT NULL,
    title             TEXT NOT NULL DEFAULT '',
    created_at        TEXT NOT NULL DEFAULT '',
    updated_at        TEXT NOT NULL DEFAULT '',
    message_count     INTEGER NOT NULL DEFAULT 0,
    total_words       INTEGER NOT NULL DEFAULT 0,
    model             TEXT NOT NULL DEFAULT '',
    project_source_id TEXT NOT NULL DEFAULT '',
    project_key       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS messages (
    conv_key    TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    source_id   TEXT NOT NULL DEFAULT '',
    ts          TEXT NOT NULL DEFAULT '',
    role        TEXT NOT NULL,
    kind        TEXT NOT NULL DEFAULT 'text',
    text        TEXT NOT NULL,
    word_count  INTEGER NOT NULL DEFAULT 0,
    model       TEXT NOT NULL DEFAULT '',
    is_subagent INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (conv_key, seq)
);

CREATE INDEX IF NOT EXISTS conversations_project ON conversations(project_key);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    text,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, text) VALUES('delete', old.rowid, old.text);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, text) VALUES('delete', old.rowid, old.text);
    INSERT INTO messages_fts(rowid, text) VALUES (new.rowid, new.text);
END;
`

// schemaVersion should be bumped whenever the tables change shape. An older
// database is rebuilt from scratch; imports are repeatable.
const schemaVersion = "1"

var dropAll = []string{
	"DROP TRIGGER IF EXISTS messages_ai",
	"DROP TRIGGER IF EXISTS messages_ad",
	"DROP TRIGGER IF EXISTS messages_au",
	"DROP TABLE IF EXISTS messages_fts",
	"DROP TABLE IF EXISTS messages",
	"DROP TABLE IF EXISTS conversations",
	"DROP TABLE IF EXISTS projects",
}

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// a single connection keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) migrate() error {
	if _, err := d.db.Exec("CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)"); err != nil {
		return fmt.Errorf("init meta: %w", err)
	}
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read schema version: %w", err)
	}
	if ver != "" && ver != schemaVersion {
		for _, stmt := range dropAll {
			if _, err := d.db.Exec(stmt); err != nil {
				return fmt.Errorf("reset schema: %w", err)
			}
		}
	}
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	if _, err := d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

// SchemaVersion returns the version recorded in the database.
func (d *DB) SchemaVersion() (string, error) {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	return ver, err
}

func (d *DB) count(query string, args ...any) (int, error) {
	var n int
	err := d.db.QueryRow(query, args...).Scan(&n)
	return n, err
}

func (d *DB) ProjectCount() (int, error) {
	return d.count("SELECT COUNT(*) FROM projects")
}

func (d *DB) ConversationCount() (int, error) {
	return d.count("SELECT COUNT(*) FROM conversations")
}

func (d *DB) MessageCount() (int, error) {
	return d.count("SELECT COUNT(*) FROM messages")
}

// ProviderCounts returns the number of stored conversations per provider.
func (d *DB) ProviderCounts() (map[string]int, error) {
	rows, err := d.db.Query("SELECT provider, COUNT(*) FROM conversations GROUP BY provider")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var provider string
		var n int
		if err := rows.Scan(&provider, &n); err != nil {
			return nil, err
		}
		counts[provider] = n
	}
	return counts, rows.Err()
}

type ConversationRow struct {
	ConvKey         string
	Provider        string
	SourceID        string
	Title           string
	CreatedAt       string
	UpdatedAt       string
	MessageCount    int
	TotalWords      int
	Model           string
	ProjectSourceID string
	ProjectName     string
}

// GetConversation returns nil, nil when key is not stored.
func (d *DB) GetConversation(convKey string) (*ConversationRow, error) {
	var c ConversationRow
	err := d.db.QueryRow(`
		SELECT c.conv_key, c.provider, c.source_id, c.title, c.created_at, c.updated_at,
		       c.message_count, c.total_words, c.model, c.project_source_id, COALESCE(p.name, '')
		FROM conversations c
		LEFT JOIN projects p ON p.project_key = c.project_key
		WHERE c.conv_key = ?`,
		convKey,
	).Scan(&c.ConvKey, &c.Provider, &c.SourceID, &c.Title, &c.CreatedAt, &c.UpdatedAt,
		&c.MessageCount, &c.TotalWords, &c.Model, &c.ProjectSourceID, &c.ProjectName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type MessageRow struct {
	ConvKey    string
	Seq        int
	SourceID   string
	Ts         string
	Role       string
	Kind       string
	Text       string
	WordCount  int
	Model      string
	IsSubagent bool
}

const messageColumns = "conv_key, seq, source_id, ts, role, kind, text, word_count, model, is_subagent"

func scanMessages(rows *sql.Rows, hitSeq int) ([]MessageRow, int, error) {
	var msgs []MessageRow
	hitIdx := -1
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.ConvKey, &m.Seq, &m.SourceID, &m.Ts, &m.Role, &m.Kind, &m.Text, &m.WordCount, &m.Model, &m.IsSubagent); err != nil {
			return nil, -1, err
		}
		if m.Seq == hitSeq {
			hitIdx = len(msgs)
		}
		msgs = append(msgs, m)
	}
	return msgs, hitIdx, rows.Err()
}

// GetMessagesWindow returns up to context messages either side of the
// message at hitSeq, or every message when hitSeq is negative. startPos is
// the number of messages before the window and total the conversation's
// message count. Sequence numbers are dense, so positions equal seq values.
func (d *DB) GetMessagesWindow(convKey string, hitSeq, context int) (msgs []MessageRow, hitIdx int, startPos int, total int, err error) {
	total, err = d.count("SELECT COUNT(*) FROM messages WHERE conv_key = ?", convKey)
	if err != nil {
		return nil, -1, 0, 0, err
	}

	limit := total
	if hitSeq >= 0 && hitSeq < total {
		startPos = max(hitSeq-context, 0)
		limit = min(hitSeq+context+1, total) - startPos
	}

	rows, err := d.db.Query(
		"SELECT "+messageColumns+" FROM messages WHERE conv_key = ? ORDER BY seq LIMIT ? OFFSET ?",
		convKey, limit, startPos,
	)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	defer rows.Close()

	msgs, hitIdx, err = scanMessages(rows, hitSeq)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	return msgs, hitIdx, startPos, total, nil
}
