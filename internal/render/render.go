package render

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/Zuo-Peng/ai-session-import/internal/index"
)

const (
	colorReset   = "\033[0m"
	colorUser    = "\033[1;34m" // bold blue
	colorAssist  = "\033[1;32m" // bold green
	colorThink   = "\033[2;35m" // dim magenta for thinking
	colorTool    = "\033[36m"   // cyan for tool calls and results
	colorDim     = "\033[2m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
)

type Options struct {
	HitSeq  int    // message to center on, -1 for none
	Context int    // messages before/after hit to show
	Width   int    // wrap width (0 = no wrap)
	Query   string // search query for keyword highlighting
}

// queryTerm matches the bare words of an FTS5 query; quotes, prefix stars
// and grouping are not part of what shows up in the text.
var queryTerm = regexp.MustCompile(`[^\s"*()^:]+`)

var fts5Operators = map[string]bool{"AND": true, "OR": true, "NOT": true, "NEAR": true}

// keywordPattern builds one case-insensitive alternation of the query's
// terms, longest first so overlapping terms mark the longer match.
func keywordPattern(query string) *regexp.Regexp {
	var terms []string
	for _, t := range queryTerm.FindAllString(query, -1) {
		if !fts5Operators[strings.ToUpper(t)] {
			terms = append(terms, regexp.QuoteMeta(t))
		}
	}
	if len(terms) == 0 {
		return nil
	}
	sort.SliceStable(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })
	return regexp.MustCompile("(?i)" + strings.Join(terms, "|"))
}

func highlightKeywords(text string, re *regexp.Regexp) string {
	if re == nil {
		return text
	}
	return re.ReplaceAllString(text, colorBoldRed+"$0"+colorReset)
}

// wrapLine splits line into rows of at most width cells. Escape sequences
// take no cells and wide runes take two.
func wrapLine(line string, width int) []string {
	if width <= 0 {
		return []string{line}
	}
	return strings.Split(ansi.Hardwrap(line, width, true), "\n")
}

// roleStyle returns the label and color of a stored message.
func roleStyle(m index.MessageRow) (label, color string) {
	switch {
	case m.Kind == "thinking":
		label, color = "THINK", colorThink
	case m.Kind == "tool_call" || m.Kind == "tool_result" || m.Role == "tool":
		label, color = "TOOL", colorTool
	case m.Role == "user":
		label, color = "USER", colorUser
	case m.Role == "assistant":
		label, color = "ASST", colorAssist
	case m.Role == "system":
		label, color = "SYS", colorDim
	default:
		label, color = strings.ToUpper(m.Role), colorDim
	}
	if m.IsSubagent {
		label += " (subagent)"
	}
	return label, color
}

// page accumulates rendered rows and counts them so callers can scroll to
// the hit.
type page struct {
	b     strings.Builder
	width int
	rows  int
}

func (p *page) line(format string, args ...any) {
	for _, row := range wrapLine(fmt.Sprintf(format, args...), p.width) {
		p.b.WriteString(row)
		p.b.WriteByte('\n')
		p.rows++
	}
}

func (p *page) dim(format string, args ...any) {
	p.line(colorDim+format+colorReset, args...)
}

// RenderConversation renders a window of a stored conversation. It returns
// the text and the row of the hit message header, or -1 without a hit.
func RenderConversation(db *index.DB, convKey string, opts Options) (string, int, error) {
	switch {
	case opts.Context == 0:
		opts.Context = 10
	case opts.Context < 0:
		opts.Context = math.MaxInt32
	}

	conv, err := db.GetConversation(convKey)
	if err != nil {
		return "", -1, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return "", -1, fmt.Errorf("conversation not found: %s", convKey)
	}

	msgs, hitIdx, before, total, err := db.GetMessagesWindow(convKey, opts.HitSeq, opts.Context)
	if err != nil {
		return "", -1, fmt.Errorf("get messages: %w", err)
	}
	if total == 0 {
		return "(empty conversation)", -1, nil
	}

	keywords := keywordPattern(opts.Query)
	p := &page{width: opts.Width}
	hitRow := -1

	title := fmt.Sprintf("%s [%s]", conv.Title, conv.Provider)
	if conv.ProjectName != "" {
		title += " " + conv.ProjectName
	}
	p.dim("--- %s ---", title)
	p.dim("%s  %d messages  %d words  %s", conv.CreatedAt, conv.MessageCount, conv.TotalWords, conv.Model)
	if before > 0 {
		p.dim("... (%d messages before) ...", before)
	}

	for i, m := range msgs {
		if i > 0 {
			p.dim("%s", strings.Repeat("-", 50))
		}
		label, color := roleStyle(m)
		if i == hitIdx {
			hitRow = p.rows
			p.line("%s>> %s > %s <<%s", colorHit, label, m.Ts, colorReset)
		} else {
			p.line("%s%s >%s %s%s%s", color, label, colorReset, colorDim, m.Ts, colorReset)
		}

		body := m.Text
		if m.Kind == "thinking" {
			body = colorDim + body + colorReset
		}
		for _, l := range strings.Split(highlightKeywords(body, keywords), "\n") {
			p.line("  %s", l)
		}
		p.line("")
	}

	if after := total - before - len(msgs); after > 0 {
		p.dim("... (%d messages after) ...", after)
	}
	return p.b.String(), hitRow, nil
}
