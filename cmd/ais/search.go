package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-session-import/internal/index"
	"github.com/Zuo-Peng/ai-session-import/internal/search"
	"github.com/Zuo-Peng/ai-session-import/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string, color bool) string {
	if !color {
		snippet = strings.ReplaceAll(snippet, ">>>", "")
		return strings.ReplaceAll(snippet, "<<<", "")
	}
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func searchCmd() *cobra.Command {
	var providerName, role, since string
	var limit int
	var tsv bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across imported conversations",
		Long: `Search imported conversations using FTS5. On a terminal this opens an
interactive search screen; Enter copies the command that reopens the chosen
conversation. Otherwise (or with --tsv) output is TSV for fzf integration:
  convKey, message, updatedAt, provider, project, title, snippet

Recommended shell function (add to .zshrc):
  aisf() {
    ais search "$*" | fzf \
      --ansi \
      --delimiter='\t' --with-nth=3.. \
      --preview 'ais preview {1} --hit {2} --context 5 --query {q}' \
      --preview-window=right:60%:wrap \
      --preview-debounce=150
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			opts := search.Options{
				Query:    args[0],
				Provider: providerName,
				Role:     role,
				Since:    since,
				Limit:    limit,
			}
			color := isTerminal(os.Stdout)
			if color && !tsv {
				return tui.Run(db, args[0], opts)
			}

			results, err := search.Search(db, opts)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				updated, provider := r.UpdatedAt, r.Provider
				if color {
					updated = sColorDim + updated + sColorReset
					provider = colorizeProvider(provider)
				}
				project := r.Project
				if project == "" {
					project = "-"
				}
				// first two fields (convKey, message) stay plain for fzf {1} {2}
				fmt.Printf("%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
					r.ConvKey,
					r.Seq,
					updated,
					provider,
					oneLine(project),
					oneLine(r.Title),
					colorizeSnippet(oneLine(r.Snippet), color),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&providerName, "provider", "", "Filter by provider (chatgpt/claude-web/claude-code/cowork)")
	cmd.Flags().StringVar(&role, "role", "", "Filter by role (user/assistant)")
	cmd.Flags().StringVar(&since, "since", "", "Filter conversations updated since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")
	cmd.Flags().BoolVar(&tsv, "tsv", false, "Print TSV even when stdout is a terminal")

	return cmd
}
