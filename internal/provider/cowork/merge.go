package cowork

import (
	"slices"
	"strings"

	"github.com/Zuo-Peng/ai-session-import/internal/provider/claudecode"
)

// Merge orders main-log and subagent entries by their raw timestamp strings,
// which sort chronologically as written. The sort is stable and main entries
// come first in the input, so on equal timestamps main-log messages precede
// subagent ones.
func Merge(main []claudecode.Entry, subagents ...[]claudecode.Entry) []claudecode.Entry {
	n := len(main)
	for _, s := range subagents {
		n += len(s)
	}
	all := make([]claudecode.Entry, 0, n)
	all = append(all, main...)
	for _, s := range subagents {
		all = append(all, s...)
	}
	slices.SortStableFunc(all, func(x, y claudecode.Entry) int {
		return strings.Compare(x.RawTimestamp, y.RawTimestamp)
	})
	return all
}
