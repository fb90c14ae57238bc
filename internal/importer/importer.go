// Package importer drains an adapter's sequences into a persistence sink.
package importer

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Zuo-Peng/ai-session-import/internal/model"
)

// Source is the part of a provider adapter the importer reads from.
type Source interface {
	Name() string
	Projects(root string) iter.Seq[model.Project]
	Conversations(root string) iter.Seq[model.Conversation]
}

// Sink persists canonical entities, upserting by (provider, source id).
type Sink interface {
	UpsertProject(ctx context.Context, p model.Project) error
	// UpsertConversation reports whether the conversation's project reference
	// matched an already stored project.
	UpsertConversation(ctx context.Context, c model.Conversation) (projectResolved bool, err error)
}

type Report struct {
	Provider      string
	Projects      int
	Conversations int
	Messages      int
	Words         int
	Unresolved    int // conversations whose project was not found
	Failed        int
	Err           error // every per-item failure, combined
}

func (r Report) String() string {
	return fmt.Sprintf("provider=%s projects=%d conversations=%d messages=%d words=%d unresolved=%d failed=%d",
		r.Provider, r.Projects, r.Conversations, r.Messages, r.Words, r.Unresolved, r.Failed)
}

// Run imports every project and then every conversation found under root.
// A failing item is recorded in the report and the run continues. The
// returned error is non-nil only when ctx ends the run early.
func Run(ctx context.Context, src Source, root string, sink Sink, log *zap.Logger) (Report, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := Report{Provider: src.Name()}

	for p := range src.Projects(root) {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		if err := sink.UpsertProject(ctx, p); err != nil {
			r.fail(log, fmt.Errorf("project %s: %w", p.SourceID, err))
			continue
		}
		r.Projects++
	}

	for c := range src.Conversations(root) {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		resolved, err := sink.UpsertConversation(ctx, c)
		if err != nil {
			r.fail(log, fmt.Errorf("conversation %s: %w", c.SourceID, err))
			continue
		}
		r.Conversations++
		r.Messages += c.MessageCount
		r.Words += c.TotalWords
		if c.ProjectSourceID != "" && !resolved {
			r.Unresolved++
			log.Debug("project not found",
				zap.String("conversation", c.SourceID),
				zap.String("project", c.ProjectSourceID))
		}
	}
	return r, nil
}

func (r *Report) fail(log *zap.Logger, err error) {
	r.Failed++
	r.Err = multierr.Append(r.Err, err)
	log.Warn("import failed", zap.String("provider", r.Provider), zap.Error(err))
}
