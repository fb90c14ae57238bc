package cowork

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Zuo-Peng/ai-session-import/internal/provider/claudecode"
	"github.com/Zuo-Peng/ai-session-import/internal/scan"
)

// projectSource is one slug directory holding session logs.
type projectSource struct {
	SourceID string
	Slug     string
	Dir      string
}

type lamsItem struct {
	dir   string
	label string
	depth int
}

// discover lists project sources under every root: Cowork slugs of the
// standard layout first, then nested LAMS projects directories.
func (a *Adapter) discover(root string) []projectSource {
	var out []projectSource
	for _, r := range a.roots(root) {
		out = append(out, a.standard(r)...)
		out = append(out, a.lams(filepath.Join(r, LAMSDir))...)
	}
	return out
}

func (a *Adapter) standard(root string) []projectSource {
	projectsDir := filepath.Join(root, claudecode.ProjectsDir)
	slugs, err := scan.ProjectDirs(projectsDir)
	if err != nil {
		a.log.Debug("list projects", zap.String("dir", projectsDir), zap.Error(err))
		return nil
	}
	var out []projectSource
	for _, slug := range slugs {
		if !claudecode.IsCoworkSlug(slug) {
			continue
		}
		out = append(out, projectSource{SourceID: slug, Slug: slug, Dir: filepath.Join(projectsDir, slug)})
	}
	return out
}

// lams walks a LAMS tree breadth first, at most MaxLAMSDepth levels below
// lamsRoot. Every directory with a projects child contributes its slugs,
// labeled by the underscore-joined names walked to reach it.
func (a *Adapter) lams(lamsRoot string) []projectSource {
	if !scan.IsDir(lamsRoot) {
		return nil
	}
	var out []projectSource
	queue := []lamsItem{{dir: lamsRoot}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		projectsDir := filepath.Join(item.dir, claudecode.ProjectsDir)
		if scan.IsDir(projectsDir) {
			slugs, err := scan.ProjectDirs(projectsDir)
			if err != nil {
				a.log.Debug("list projects", zap.String("dir", projectsDir), zap.Error(err))
			}
			for _, slug := range slugs {
				out = append(out, projectSource{
					SourceID: joinLabel(item.label, slug),
					Slug:     slug,
					Dir:      filepath.Join(projectsDir, slug),
				})
			}
		}

		if item.depth >= MaxLAMSDepth {
			continue
		}
		children, err := scan.ProjectDirs(item.dir)
		if err != nil {
			a.log.Debug("walk lams", zap.String("dir", item.dir), zap.Error(err))
			continue
		}
		for _, name := range children {
			if name == claudecode.ProjectsDir {
				continue
			}
			queue = append(queue, lamsItem{
				dir:   filepath.Join(item.dir, name),
				label: joinLabel(item.label, name),
				depth: item.depth + 1,
			})
		}
	}
	return out
}

func joinLabel(label, name string) string {
	if label == "" {
		return name
	}
	return label + "_" + name
}
