package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-session-import/internal/index"
	"github.com/Zuo-Peng/ai-session-import/internal/render"
)

func previewCmd() *cobra.Command {
	var hitSeq int
	var context int
	var query string
	var width int

	cmd := &cobra.Command{
		Use:   "preview <convKey>",
		Short: "Preview a conversation with context around a hit",
		Args:  cobra.ExactArgs(1),
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

			if width < 0 {
				width = termWidth()
			}
			out, _, err := render.RenderConversation(db, args[0], render.Options{
				HitSeq:  hitSeq,
				Context: context,
				Width:   width,
				Query:   query,
			})
			if err != nil {
				return err
			}

			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&hitSeq, "hit", -1, "Message number to highlight")
	cmd.Flags().IntVar(&context, "context", 10, "Messages before/after hit to show (negative = all)")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")
	cmd.Flags().IntVar(&width, "width", -1, "Wrap width (0 = no wrap, default terminal width)")

	return cmd
}
