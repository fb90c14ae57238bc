package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-session-import/internal/index"
	"github.com/Zuo-Peng/ai-session-import/internal/logging"
	"github.com/Zuo-Peng/ai-session-import/internal/provider"
	"github.com/Zuo-Peng/ai-session-import/internal/provider/claudecode"
	"github.com/Zuo-Peng/ai-session-import/internal/provider/cowork"
	"github.com/Zuo-Peng/ai-session-import/internal/scan"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify roots, DB, FTS5, and show stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			defer logging.Sync(log)
			detector := provider.Default(log, cfg.CoworkRoots...)

			// check roots
			fmt.Println(styleTitle.Render("=== Roots ==="))
			checkRoot(detector, "Claude", cfg.ClaudeRoot)
			coworkRoots := cfg.CoworkRoots
			if len(coworkRoots) == 0 {
				coworkRoots = cowork.DefaultRoots()
			}
			for _, r := range coworkRoots {
				checkRoot(detector, "Cowork", r)
			}

			// session log counts
			fmt.Println(styleTitle.Render("\n=== Session Logs ==="))
			slugs, err := scan.ProjectDirs(filepath.Join(cfg.ClaudeRoot, claudecode.ProjectsDir))
			if err != nil {
				fmt.Println(styleFail.Render(fmt.Sprintf("  scan error: %v", err)))
			} else {
				var code, work int
				for _, slug := range slugs {
					files, _ := scan.SessionLogs(filepath.Join(cfg.ClaudeRoot, claudecode.ProjectsDir, slug))
					if claudecode.IsCoworkSlug(slug) {
						work += len(files)
					} else {
						code += len(files)
					}
				}
				fmt.Println("  " + row("Claude Code", code))
				fmt.Println("  " + row("Cowork", work))
			}

			// check DB
			fmt.Println(styleTitle.Render("\n=== Database ==="))
			fmt.Println("  " + row("Path", cfg.DBPath))
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  " + row("Status", styleWarn.Render("NOT FOUND (run 'ais import' first)")))
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			projectCount, err := db.ProjectCount()
			if err != nil {
				return fmt.Errorf("count projects: %w", err)
			}
			convCount, err := db.ConversationCount()
			if err != nil {
				return fmt.Errorf("count conversations: %w", err)
			}
			msgCount, err := db.MessageCount()
			if err != nil {
				return fmt.Errorf("count messages: %w", err)
			}

			fmt.Println("  " + row("Projects", projectCount))
			fmt.Println("  " + row("Conversations", convCount))
			fmt.Println("  " + row("Messages", msgCount))

			counts, err := db.ProviderCounts()
			if err != nil {
				return fmt.Errorf("count providers: %w", err)
			}
			names := make([]string, 0, len(counts))
			for name := range counts {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				fmt.Println("    " + row(name, counts[name]))
			}

			// check FTS5
			fmt.Println(styleTitle.Render("\n=== FTS5 ==="))
			var ftsCount int
			err = db.Raw().QueryRow("SELECT COUNT(*) FROM messages_fts").Scan(&ftsCount)
			if err != nil {
				fmt.Println(styleFail.Render(fmt.Sprintf("  FTS5 error: %v", err)))
			} else {
				fmt.Println("  " + row("FTS5 entries", ftsCount))
				if ftsCount == msgCount {
					fmt.Println("  " + row("Status", styleOK.Render("OK (synced)")))
				} else {
					fmt.Println("  " + row("Status", styleFail.Render(fmt.Sprintf("MISMATCH (messages=%d, fts=%d)", msgCount, ftsCount))))
				}
			}

			// check DB file size
			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Println(styleTitle.Render(fmt.Sprintf("\n=== DB Size: %.1f MB ===", sizeMB)))
			}

			return nil
		},
	}
}

func checkRoot(d *provider.Detector, name, path string) {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		fmt.Println("  " + row(name, path+" "+styleDim.Render("(NOT FOUND)")))
	case !info.IsDir():
		fmt.Println("  " + row(name, path+" "+styleWarn.Render("(NOT A DIRECTORY)")))
	default:
		status := styleWarn.Render("(no sessions)")
		if a, ok := d.Detect(path); ok {
			status = styleOK.Render("(OK: " + a.Name() + ")")
		}
		fmt.Println("  " + row(name, path+" "+status))
	}
}
