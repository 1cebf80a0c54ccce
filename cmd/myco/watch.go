package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DarrenZal/MycoMind/internal/application/handlers"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/watcher"
)

type watchFlags struct {
	expectedType string
	indexNote    bool
	debounce     time.Duration
}

func newWatchCmd() *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-extract source files as they change",
		Long: `Watches a directory tree and runs extraction on every changed source file.
The vault and the .mycomind directory are ignored. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.expectedType, "type", "t", "", "Treat each file as one entity of this type")
	cmd.Flags().BoolVar(&flags.indexNote, "index-note", false, "Rewrite the index note after every batch")
	cmd.Flags().DurationVar(&flags.debounce, "debounce", watcher.DefaultDebounce, "Quiet period before a batch is processed")

	return cmd
}

func runWatch(cmd *cobra.Command, dir string, flags watchFlags) error {
	ctx := cmd.Context()

	return withExtractDeps(true, func(d *ExtractDeps) error {
		w, err := watcher.New(dir, watcher.Config{
			Debounce: flags.debounce,
			Exclude:  []string{d.VaultPath(), config.ConfigDir(d.BasePath)},
			Accept:   d.Loader.Supports,
		}, d.Logger)
		if err != nil {
			return err
		}

		opts := handlers.ExtractOptions{
			Extraction: d.ExtractionOptions(),
			WriteIndex: flags.indexNote,
		}
		opts.Extraction.ExpectedType = flags.expectedType

		fmt.Printf("Watching %s (Ctrl-C to stop)\n", dir)
		return w.Run(ctx, func(ctx context.Context, paths []string) {
			existing := presentFiles(paths)
			if len(existing) == 0 {
				return
			}
			fmt.Printf("\n%s: %d changed files\n", time.Now().Format("15:04:05"), len(existing))
			for _, p := range existing {
				fmt.Printf("  %s\n", p)
			}

			result, err := d.Handler.Handle(ctx, d.Ontology, existing, opts)
			if err != nil {
				d.Logger.Error("extraction failed", zap.Strings("paths", existing), zap.Error(err))
				if result != nil {
					printErrors(os.Stderr, "Errors", result.Errors)
				}
				return
			}
			printExtractResult(result, d.Notes.NotesDir(), false)
		})
	})
}

// presentFiles drops paths that were removed before the batch ran.
func presentFiles(paths []string) []string {
	var out []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}
