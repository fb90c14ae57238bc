// Package claudecode reads Claude Code session logs from a home directory
// laid out as <root>/projects/<slug>/<session>.jsonl.
package claudecode

import (
	"iter"
	"path/filepath"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Zuo-Peng/ai-session-import/internal/model"
	"github.com/Zuo-Peng/ai-session-import/internal/normalize"
	"github.com/Zuo-Peng/ai-session-import/internal/scan"
)

const (
	ProjectsDir     = "projects"
	TitleMaxRunes   = 80
	UntitledSession = "Untitled session"
)

type Adapter struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{log: log.Named(model.ProviderClaudeCode)}
}

func (a *Adapter) Name() string { return model.ProviderClaudeCode }

// Detect reports whether root holds a projects directory with at least one
// non-Cowork project.
func (a *Adapter) Detect(root string) bool {
	slugs, err := scan.ProjectDirs(filepath.Join(root, ProjectsDir))
	if err != nil {
		return false
	}
	for _, slug := range slugs {
		if !IsCoworkSlug(slug) {
			return true
		}
	}
	return false
}

// Projects yields one project per slug directory that holds sessions.
func (a *Adapter) Projects(root string) iter.Seq[model.Project] {
	return func(yield func(model.Project) bool) {
		projectsDir := filepath.Join(root, ProjectsDir)
		for _, slug := range a.slugs(projectsDir) {
			files, err := scan.SessionLogs(filepath.Join(projectsDir, slug))
			if err != nil {
				a.log.Debug("skip project", zap.String("slug", slug), zap.Error(err))
				continue
			}
			if len(files) == 0 {
				continue
			}
			p := model.Project{
				SourceID:          slug,
				Provider:          model.ProviderClaudeCode,
				Name:              DecodeProjectPath(slug),
				UpdatedAt:         scan.Newest(files),
				ConversationCount: len(files),
			}
			if !yield(p) {
				return
			}
		}
	}
}

// Conversations yields one conversation per session log, reading a single
// file per pull.
func (a *Adapter) Conversations(root string) iter.Seq[model.Conversation] {
	return func(yield func(model.Conversation) bool) {
		projectsDir := filepath.Join(root, ProjectsDir)
		for _, slug := range a.slugs(projectsDir) {
			files, err := scan.SessionLogs(filepath.Join(projectsDir, slug))
			if err != nil {
				a.log.Debug("skip project", zap.String("slug", slug), zap.Error(err))
				continue
			}
			for _, f := range files {
				entries, err := ReadLog(f.Path, f.ID, false)
				if err != nil {
					a.log.Debug("read session", zap.String("path", f.Path), zap.Error(err))
				}
				conv, ok := BuildConversation(model.ProviderClaudeCode, f.ID, slug, entries, 0)
				if !ok {
					continue
				}
				if !yield(conv) {
					return
				}
			}
		}
	}
}

func (a *Adapter) slugs(projectsDir string) []string {
	all, err := scan.ProjectDirs(projectsDir)
	if err != nil {
		a.log.Debug("list projects", zap.String("dir", projectsDir), zap.Error(err))
		return nil
	}
	slugs := all[:0]
	for _, s := range all {
		if !IsCoworkSlug(s) {
			slugs = append(slugs, s)
		}
	}
	return slugs
}

// BuildConversation assembles ordered entries into a conversation. The title
// comes from the first main-log user message longer than minTitleRunes.
// Sessions without messages are reported as not ok.
func BuildConversation(provider, sessionID, projectSourceID string, entries []Entry, minTitleRunes int) (model.Conversation, bool) {
	if len(entries) == 0 {
		return model.Conversation{}, false
	}
	conv := model.Conversation{
		SourceID:        sessionID,
		Provider:        provider,
		Title:           UntitledSession,
		ProjectSourceID: projectSourceID,
		Messages:        make([]model.Message, 0, len(entries)),
	}
	titled := false
	for _, e := range entries {
		conv.Messages = append(conv.Messages, e.Message)
		if titled || e.Message.Role != model.RoleUser || e.Message.IsSubagent {
			continue
		}
		if utf8.RuneCountInString(e.Message.Text) > minTitleRunes {
			conv.Title = normalize.Truncate(e.Message.Text, TitleMaxRunes)
			titled = true
		}
	}
	normalize.Finish(&conv)
	return conv, true
}
