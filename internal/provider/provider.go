// Package provider defines the adapter contract shared by every export format
// and picks the adapter that understands a given root.
package provider

import (
	"iter"

	"go.uber.org/zap"

	"github.com/Zuo-Peng/ai-session-import/internal/model"
	"github.com/Zuo-Peng/ai-session-import/internal/provider/chatgpt"
	"github.com/Zuo-Peng/ai-session-import/internal/provider/claudecode"
	"github.com/Zuo-Peng/ai-session-import/internal/provider/claudeweb"
	"github.com/Zuo-Peng/ai-session-import/internal/provider/cowork"
)

// Adapter reads one export format. Detect must be cheap and free of side
// effects. Both sequences are lazy and independent of each other.
type Adapter interface {
	Name() string
	Detect(root string) bool
	Projects(root string) iter.Seq[model.Project]
	Conversations(root string) iter.Seq[model.Conversation]
}

var (
	_ Adapter = (*chatgpt.Adapter)(nil)
	_ Adapter = (*claudeweb.Adapter)(nil)
	_ Adapter = (*claudecode.Adapter)(nil)
	_ Adapter = (*cowork.Adapter)(nil)
)

// Detector tries adapters in registration order.
type Detector struct {
	adapters []Adapter
}

func NewDetector(adapters ...Adapter) *Detector {
	return &Detector{adapters: adapters}
}

// Default registers the built-in adapters. Cowork comes before Claude-Code
// because a Cowork tree also looks like a Claude-Code tree.
func Default(log *zap.Logger, coworkRoots ...string) *Detector {
	return NewDetector(
		cowork.New(log, coworkRoots...),
		claudecode.New(log),
		chatgpt.New(log),
		claudeweb.New(log),
	)
}

// Detect returns the first adapter whose layout matches root.
func (d *Detector) Detect(root string) (Adapter, bool) {
	for _, a := range d.adapters {
		if a.Detect(root) {
			return a, true
		}
	}
	return nil, false
}

// Lookup returns the adapter registered under the provider tag name.
func (d *Detector) Lookup(name string) (Adapter, bool) {
	for _, a := range d.adapters {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

// Names lists the registered provider tags in detection order.
func (d *Detector) Names() []string {
	names := make([]string, 0, len(d.adapters))
	for _, a := range d.adapters {
		names = append(names, a.Name())
	}
	return names
}
