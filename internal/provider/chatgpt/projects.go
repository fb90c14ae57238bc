package chatgpt

import (
	"iter"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Zuo-Peng/ai-session-import/internal/model"
	"github.com/Zuo-Peng/ai-session-import/internal/normalize"
)

const (
	nameTokens      = 4
	UntitledProject = "Untitled project"
)

var stopwords = map[string]bool{
	"a": true, "about": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "can": true, "chat": true, "do": true, "for": true, "from": true,
	"how": true, "i": true, "in": true, "into": true, "is": true, "it": true, "me": true,
	"my": true, "new": true, "of": true, "on": true, "or": true, "the": true, "this": true,
	"that": true, "to": true, "using": true, "vs": true, "what": true, "why": true,
	"with": true, "you": true, "your": true,
}

type group struct {
	id      string
	titles  []string
	count   int
	created time.Time
	updated time.Time
}

// Projects groups conversations by their custom GPT id. The whole export is
// read before the first project is produced.
func (a *Adapter) Projects(root string) iter.Seq[model.Project] {
	return func(yield func(model.Project) bool) {
		var order []*group
		byID := make(map[string]*group)
		for rc := range a.conversations(root) {
			id := rc.groupID()
			if id == "" {
				continue
			}
			g, ok := byID[id]
			if !ok {
				g = &group{id: id, created: model.Epoch, updated: model.Epoch}
				byID[id] = g
				order = append(order, g)
			}
			g.count++
			g.titles = append(g.titles, strings.TrimSpace(rc.Title))
			if t := normalize.Timestamp(rc.CreateTime); normalize.IsKnown(t) && (!normalize.IsKnown(g.created) || t.Before(g.created)) {
				g.created = t
			}
			if t := normalize.Timestamp(rc.UpdateTime); normalize.IsKnown(t) && t.After(g.updated) {
				g.updated = t
			}
		}

		for _, g := range order {
			p := model.Project{
				SourceID:          g.id,
				Provider:          model.ProviderChatGPT,
				Name:              ProjectName(g.titles),
				ConversationCount: g.count,
			}
			if normalize.IsKnown(g.created) {
				p.CreatedAt = g.created
			}
			if normalize.IsKnown(g.updated) {
				p.UpdatedAt = g.updated
			}
			if !yield(p) {
				return
			}
		}
	}
}

// ProjectName builds a name from the most frequent meaningful words of the
// group's titles, ties going to the word seen first. With no usable word the
// first non-empty title is used.
func ProjectName(titles []string) string {
	counts := make(map[string]int)
	var order []string
	for _, title := range titles {
		for _, tok := range tokenize(title) {
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	if len(order) == 0 {
		for _, t := range titles {
			if t != "" {
				return t
			}
		}
		return UntitledProject
	}

	// stable sort keeps first-seen order among equal counts
	slices.SortStableFunc(order, func(x, y string) int {
		return counts[y] - counts[x]
	})
	if len(order) > nameTokens {
		order = order[:nameTokens]
	}
	return cases.Title(language.English).String(strings.Join(order, " "))
}

func tokenize(title string) []string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var out []string
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}
