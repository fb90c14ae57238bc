package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Zuo-Peng/ai-session-import/internal/config"
	"github.com/Zuo-Peng/ai-session-import/internal/importer"
	"github.com/Zuo-Peng/ai-session-import/internal/index"
	"github.com/Zuo-Peng/ai-session-import/internal/logging"
	"github.com/Zuo-Peng/ai-session-import/internal/model"
	"github.com/Zuo-Peng/ai-session-import/internal/provider"
	"github.com/Zuo-Peng/ai-session-import/internal/provider/cowork"
)

// job is one adapter run over one root.
type job struct {
	source provider.Adapter
	root   string
}

func importCmd() *cobra.Command {
	var providerName string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import [path]",
		Short: "Import a conversation export or local Claude session logs",
		Long: `Import conversations into the local database.

With a path, the export format is detected (or forced with --provider):
  ChatGPT / claude.ai exports: the unpacked directory or its conversations.json
  Claude Code / Cowork: a Claude home directory holding projects/

Without a path, the configured Claude home and the Cowork locations are imported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logging.Sync(log)

			detector := provider.Default(log, cfg.CoworkRoots...)
			jobs, err := planJobs(detector, cfg, providerName, args)
			if err != nil {
				return err
			}

			var sink importer.Sink = newDryRunSink()
			if !dryRun {
				db, err := index.OpenDB(cfg.DBPath)
				if err != nil {
					return fmt.Errorf("open db: %w", err)
				}
				defer db.Close()
				sink = db
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			var failures error
			for _, j := range jobs {
				fmt.Fprintf(os.Stderr, "Importing %s from %s\n", colorizeProvider(j.source.Name()), j.root)
				report, err := importer.Run(ctx, j.source, j.root, sink, log)
				printReport(report)
				if err != nil {
					return fmt.Errorf("import %s: %w", j.source.Name(), err)
				}
				failures = multierr.Append(failures, report.Err)
			}
			if n := len(multierr.Errors(failures)); n > 0 {
				log.Debug("import finished with failures", zap.Error(failures))
				return fmt.Errorf("%d items failed to import", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&providerName, "provider", "", "Force the export format (chatgpt/claude-web/claude-code/cowork)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Read and count without writing to the database")

	return cmd
}

func planJobs(d *provider.Detector, cfg *config.Config, providerName string, args []string) ([]job, error) {
	if len(args) == 0 {
		return localJobs(d, cfg, providerName)
	}
	root := args[0]
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}
	if providerName != "" {
		a, ok := d.Lookup(providerName)
		if !ok {
			return nil, fmt.Errorf("unknown provider %q (want one of %v)", providerName, d.Names())
		}
		return []job{{source: a, root: root}}, nil
	}
	a, ok := d.Detect(root)
	if !ok {
		return nil, fmt.Errorf("no known export format under %s", root)
	}
	return []job{{source: a, root: root}}, nil
}

// localJobs imports the sessions stored on this machine: Cowork from its
// well-known locations, then Claude Code from the configured home.
func localJobs(d *provider.Detector, cfg *config.Config, providerName string) ([]job, error) {
	candidates := []job{}
	if a, ok := d.Lookup(model.ProviderCowork); ok && a.Detect(cowork.AutoRoot) {
		candidates = append(candidates, job{source: a, root: cowork.AutoRoot})
	}
	if a, ok := d.Lookup(model.ProviderClaudeCode); ok && a.Detect(cfg.ClaudeRoot) {
		candidates = append(candidates, job{source: a, root: cfg.ClaudeRoot})
	}

	var jobs []job
	for _, j := range candidates {
		if providerName == "" || j.source.Name() == providerName {
			jobs = append(jobs, j)
		}
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no local sessions found under %s", cfg.ClaudeRoot)
	}
	return jobs, nil
}

func printReport(r importer.Report) {
	fmt.Fprintln(os.Stderr, styleTitle.Render("Done. ")+styleDim.Render(r.String()))
	fmt.Fprintln(os.Stderr, row("Projects", r.Projects))
	fmt.Fprintln(os.Stderr, row("Conversations", r.Conversations))
	fmt.Fprintln(os.Stderr, row("Messages", r.Messages))
	fmt.Fprintln(os.Stderr, row("Words", r.Words))
	if r.Unresolved > 0 {
		fmt.Fprintln(os.Stderr, row("Unresolved", styleWarn.Render(fmt.Sprint(r.Unresolved))))
	}
	if r.Failed > 0 {
		fmt.Fprintln(os.Stderr, row("Failed", styleFail.Render(fmt.Sprint(r.Failed))))
		for _, err := range multierr.Errors(r.Err) {
			fmt.Fprintln(os.Stderr, styleDim.Render("  "+err.Error()))
		}
	}
}

// dryRunSink accepts everything and remembers project keys so resolution
// is still reported.
type dryRunSink struct {
	projects map[string]struct{}
}

func newDryRunSink() *dryRunSink {
	return &dryRunSink{projects: make(map[string]struct{})}
}

func (s *dryRunSink) UpsertProject(_ context.Context, p model.Project) error {
	s.projects[index.Key(p.Provider, p.SourceID)] = struct{}{}
	return nil
}

func (s *dryRunSink) UpsertConversation(_ context.Context, c model.Conversation) (bool, error) {
	_, ok := s.projects[index.Key(c.Provider, c.ProjectSourceID)]
	return ok, nil
}
