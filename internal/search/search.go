package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/ai-session-import/internal/index"
)

type Result struct {
	ConvKey   string
	Seq       int
	UpdatedAt string
	Provider  string
	Title     string
	Project   string
	Snippet   string
	Role      string
	Rank      float64
}

type Options struct {
	Query    string
	Provider string // "" = all
	Role     string // "" = all, "user", "assistant", ...
	Since    string // "" = no filter, e.g. "2024-01-01"
	Limit    int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	runes := []rune(text)
	idx := strings.Index(strings.ToLower(text), strings.ToLower(query))
	if idx < 0 || query == "" {
		// no match, return head
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}
	qLen := len([]rune(query))
	runePos := len([]rune(text[:idx]))
	start := max(runePos-contextChars, 0)
	end := min(runePos+qLen+contextChars, len(runes))

	prefix, suffix := "", ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	// wrap the matched part with markers
	return prefix + string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+qLen]) + "<<<" +
		string(runes[runePos+qLen:end]) + suffix
}

func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	// Fetch more results before dedup so we still have enough after
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}

	// Deduplicate: keep only the best-ranked result per conversation
	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		if seen[r.ConvKey] {
			continue
		}
		seen[r.ConvKey] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

// filters returns the shared WHERE conditions after the match condition.
func filters(opts Options) ([]string, []any) {
	var conditions []string
	var args []any
	if opts.Provider != "" {
		conditions = append(conditions, "c.provider = ?")
		args = append(args, opts.Provider)
	}
	if opts.Role != "" {
		conditions = append(conditions, "m.role = ?")
		args = append(args, opts.Role)
	}
	if opts.Since != "" {
		conditions = append(conditions, "c.updated_at >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

const resultColumns = `
			m.conv_key,
			m.seq,
			c.updated_at,
			c.provider,
			c.title,
			COALESCE(p.name, '')`

const resultJoins = `
		JOIN conversations c ON m.conv_key = c.conv_key
		LEFT JOIN projects p ON p.project_key = c.project_key`

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"messages_fts MATCH ?"}
	args := []any{opts.Query}
	more, moreArgs := filters(opts)
	conditions = append(conditions, more...)
	args = append(args, moreArgs...)

	query := fmt.Sprintf(`
		SELECT %s,
			snippet(messages_fts, 0, '>>>','<<<', '...', 40) as snip,
			m.role,
			bm25(messages_fts, 1.0) as rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid %s
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, resultColumns, resultJoins, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	// LIKE match for CJK substring search
	conditions := []string{"m.text LIKE ?"}
	args := []any{"%" + opts.Query + "%"}
	more, moreArgs := filters(opts)
	conditions = append(conditions, more...)
	args = append(args, moreArgs...)

	query := fmt.Sprintf(`
		SELECT %s,
			m.text,
			m.role
		FROM messages m %s
		WHERE %s
		ORDER BY c.updated_at DESC
		LIMIT ?
	`, resultColumns, resultJoins, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var fullText string
		if err := rows.Scan(
			&r.ConvKey, &r.Seq, &r.UpdatedAt,
			&r.Provider, &r.Title, &r.Project,
			&fullText, &r.Role,
		); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(fullText, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.ConvKey, &r.Seq, &r.UpdatedAt,
			&r.Provider, &r.Title, &r.Project,
			&r.Snippet, &r.Role, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
