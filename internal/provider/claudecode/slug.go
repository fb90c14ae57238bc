package claudecode

import "strings"

// CoworkSlugPrefix marks project slugs that belong to Cowork sessions. The
// Claude-Code and Cowork adapters partition the projects directory on it.
const CoworkSlugPrefix = "-sessions-"

// home directory markers in a decoded project path
var homeMarkers = []string{"users", "home"}

// IsCoworkSlug reports whether a project slug is reserved for Cowork.
func IsCoworkSlug(slug string) bool {
	return strings.HasPrefix(slug, CoworkSlugPrefix)
}

// DecodeProjectPath turns a path-encoded project slug into a display name.
// Paths under a home directory are named from the segment after the user
// name onward; other paths by their last segment.
//
//	-Users-jem-code-app  -> code/app
//	-var-data-myapp      -> myapp
func DecodeProjectPath(slug string) string {
	path := strings.TrimPrefix(strings.ReplaceAll(slug, "-", "/"), "/")
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return slug
	}

	for i, s := range segments {
		if !isHomeMarker(s) {
			continue
		}
		if i+2 < len(segments) {
			return strings.Join(segments[i+2:], "/")
		}
		break
	}
	return segments[len(segments)-1]
}

func isHomeMarker(s string) bool {
	for _, m := range homeMarkers {
		if strings.EqualFold(s, m) {
			return true
		}
	}
	return false
}
