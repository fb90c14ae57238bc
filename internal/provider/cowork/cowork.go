// Package cowork reads Cowork agent sessions. Cowork shares the Claude Code
// log format but lives under reserved project slugs, inside nested "local
// agent mode sessions" trees, and splits work across subagent logs that are
// merged back into the parent session's timeline.
package cowork

import (
	"iter"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/Zuo-Peng/ai-session-import/internal/model"
	"github.com/Zuo-Peng/ai-session-import/internal/provider/claudecode"
	"github.com/Zuo-Peng/ai-session-import/internal/scan"
)

const (
	// AutoRoot selects the well-known locations instead of a single root.
	AutoRoot = "auto"
	// LAMSDir holds local agent mode sessions.
	LAMSDir       = "local-agent-mode-sessions"
	MaxLAMSDepth  = 5
	MinTitleRunes = 10
)

// CoworkToolNames lists tools only Cowork sessions use. Nothing consults it
// yet; classification relies on directory layout alone.
var CoworkToolNames = []string{
	"allow_cowork_file_delete",
	"present_files",
	"request_cowork_directory",
}

type Adapter struct {
	log       *zap.Logger
	autoRoots []string
}

// New returns a Cowork adapter. autoRoots replaces the well-known locations
// used for AutoRoot; when empty DefaultRoots is used.
func New(log *zap.Logger, autoRoots ...string) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	if len(autoRoots) == 0 {
		autoRoots = DefaultRoots()
	}
	return &Adapter{log: log.Named(model.ProviderCowork), autoRoots: autoRoots}
}

// DefaultRoots returns the Claude Code home and the desktop app data
// directory.
func DefaultRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".claude"), appDataDir(home)}
}

func appDataDir(home string) string {
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "Claude")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "Claude")
	}
	return filepath.Join(home, ".config", "Claude")
}

func (a *Adapter) Name() string { return model.ProviderCowork }

func (a *Adapter) roots(root string) []string {
	if root == "" || root == AutoRoot {
		return a.autoRoots
	}
	return []string{root}
}

// Detect requires a Cowork slug in the standard projects layout or a LAMS
// directory. A plain Claude Code home does not match.
func (a *Adapter) Detect(root string) bool {
	for _, r := range a.roots(root) {
		if scan.IsDir(filepath.Join(r, LAMSDir)) {
			return true
		}
		slugs, err := scan.ProjectDirs(filepath.Join(r, claudecode.ProjectsDir))
		if err != nil {
			continue
		}
		for _, slug := range slugs {
			if claudecode.IsCoworkSlug(slug) {
				return true
			}
		}
	}
	return false
}

func (a *Adapter) Projects(root string) iter.Seq[model.Project] {
	return func(yield func(model.Project) bool) {
		for _, src := range a.discover(root) {
			files, err := scan.SessionLogs(src.Dir)
			if err != nil {
				a.log.Debug("skip project", zap.String("dir", src.Dir), zap.Error(err))
				continue
			}
			if len(files) == 0 {
				continue
			}
			p := model.Project{
				SourceID:          src.SourceID,
				Provider:          model.ProviderCowork,
				Name:              projectName(src.Slug),
				UpdatedAt:         scan.Newest(files),
				ConversationCount: len(files),
			}
			if !yield(p) {
				return
			}
		}
	}
}

// Conversations yields one conversation per main session log with its
// subagent logs merged in.
func (a *Adapter) Conversations(root string) iter.Seq[model.Conversation] {
	return func(yield func(model.Conversation) bool) {
		for _, src := range a.discover(root) {
			files, err := scan.SessionLogs(src.Dir)
			if err != nil {
				a.log.Debug("skip project", zap.String("dir", src.Dir), zap.Error(err))
				continue
			}
			for _, f := range files {
				conv, ok := a.session(src, f)
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

func (a *Adapter) session(src projectSource, f scan.SessionFile) (model.Conversation, bool) {
	main, err := claudecode.ReadLog(f.Path, f.ID, false)
	if err != nil {
		a.log.Debug("read session", zap.String("path", f.Path), zap.Error(err))
	}

	var subs [][]claudecode.Entry
	for _, path := range scan.Subagents(src.Dir, f.ID) {
		id := strings.TrimSuffix(filepath.Base(path), scan.LogExt)
		entries, err := claudecode.ReadLog(path, id, true)
		if err != nil {
			a.log.Debug("read subagent", zap.String("path", path), zap.Error(err))
		}
		subs = append(subs, entries)
	}

	return claudecode.BuildConversation(model.ProviderCowork, f.ID, src.SourceID, Merge(main, subs...), MinTitleRunes)
}

// projectName strips the reserved prefix from Cowork slugs; other slugs are
// decoded like Claude Code project paths.
func projectName(slug string) string {
	if claudecode.IsCoworkSlug(slug) {
		if name := strings.TrimPrefix(slug, claudecode.CoworkSlugPrefix); name != "" {
			return name
		}
	}
	return claudecode.DecodeProjectPath(slug)
}
