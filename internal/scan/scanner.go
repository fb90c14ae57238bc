// Package scan discovers per-session JSONL logs in the Claude projects layout:
// <projects>/<slug>/<session>.jsonl with optional
// <projects>/<slug>/<session>/subagents/agent-*.jsonl side logs.
package scan

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	LogExt         = ".jsonl"
	SubagentsDir   = "subagents"
	SubagentPrefix = "agent-"
)

type SessionFile struct {
	Path  string
	ID    string // file name without extension
	Mtime time.Time
	Size  int64
}

// IsDir reports whether path exists and is a directory (symlinks followed).
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// isDirEntry reports whether the entry is a directory or a symlink that
// resolves to one.
func isDirEntry(entry os.DirEntry, parent string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	return IsDir(filepath.Join(parent, entry.Name()))
}

// ProjectDirs returns the names of the child directories of projectsDir in
// lexical order. A missing directory yields no names and no error.
func ProjectDirs(projectsDir string) ([]string, error) {
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if isDirEntry(e, projectsDir) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// SessionLogs returns the session logs stored directly in dir, in lexical
// order. Top-level agent-* side logs and index files are not sessions.
func SessionLogs(dir string) ([]SessionFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []SessionFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) != LogExt {
			continue
		}
		if strings.HasPrefix(name, SubagentPrefix) || strings.Contains(name, "sessions-index") {
			continue
		}
		sf := SessionFile{
			Path: filepath.Join(dir, name),
			ID:   strings.TrimSuffix(name, LogExt),
		}
		if info, err := e.Info(); err == nil {
			sf.Mtime = info.ModTime()
			sf.Size = info.Size()
		}
		files = append(files, sf)
	}
	return files, nil
}

// Subagents returns the subagent logs recorded for a session, in lexical
// order. Sessions without a subagents directory have none.
func Subagents(projectDir, sessionID string) []string {
	dir := filepath.Join(projectDir, sessionID, SubagentsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, SubagentPrefix) || filepath.Ext(name) != LogExt {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths
}

// Newest returns the latest modification time among files.
func Newest(files []SessionFile) time.Time {
	var t time.Time
	for _, f := range files {
		if f.Mtime.After(t) {
			t = f.Mtime
		}
	}
	return t
}
