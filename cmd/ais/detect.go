package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-session-import/internal/logging"
	"github.com/Zuo-Peng/ai-session-import/internal/provider"
)

func detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <path>",
		Short: "Print the export format found at a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logging.Sync(log)

			a, ok := provider.Default(log, cfg.CoworkRoots...).Detect(args[0])
			if !ok {
				return fmt.Errorf("no known export format under %s", args[0])
			}
			fmt.Println(a.Name())
			return nil
		},
	}
}
