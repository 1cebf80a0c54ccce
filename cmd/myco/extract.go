package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DarrenZal/MycoMind/internal/application/handlers"
)

type extractFlags struct {
	pattern      string
	expectedType string
	indexNote    bool
	dryRun       bool
	noCache      bool
	threshold    float64
}

func newExtractCmd() *cobra.Command {
	var flags extractFlags

	cmd := &cobra.Command{
		Use:   "extract <path>...",
		Short: "Extract entities from source files into vault notes",
		Long: `Loads Markdown, text, HTML and PDF sources, extracts entities that match
the ontology with the configured LLM, and writes one note per entity into the
vault. Directories are searched with --pattern.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.pattern, "pattern", "p", handlers.DefaultSourcePattern, "Glob for files inside directories (supports **)")
	cmd.Flags().StringVarP(&flags.expectedType, "type", "t", "", "Treat each file as one entity of this type")
	cmd.Flags().BoolVar(&flags.indexNote, "index-note", false, "Write an index note linking every extracted entity")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Extract and resolve without writing notes")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "Ignore cached extractions")
	cmd.Flags().Float64Var(&flags.threshold, "threshold", -1, "Minimum confidence to keep a record (default: processing.quality_threshold)")

	return cmd
}

func runExtract(cmd *cobra.Command, args []string, flags extractFlags) error {
	ctx := cmd.Context()

	return withExtractDeps(!flags.noCache, func(d *ExtractDeps) error {
		opts := handlers.ExtractOptions{
			Pattern:    flags.pattern,
			Extraction: d.ExtractionOptions(),
			WriteIndex: flags.indexNote,
			DryRun:     flags.dryRun,
			OnFile: func(path string) {
				fmt.Printf("Loading %s\n", path)
			},
		}
		opts.Extraction.ExpectedType = flags.expectedType
		if flags.threshold >= 0 {
			opts.Extraction.QualityThreshold = flags.threshold
		}
		opts.Extraction.OnProgress = func(completed, total int) {
			fmt.Fprintf(os.Stderr, "\rChunks: %d/%d", completed, total)
			if completed == total {
				fmt.Fprintln(os.Stderr)
			}
		}

		result, err := d.Handler.Handle(ctx, d.Ontology, args, opts)
		if err != nil {
			if result != nil {
				printErrors(os.Stderr, "Errors", result.Errors)
			}
			return err
		}

		printExtractResult(result, d.Notes.NotesDir(), flags.dryRun)
		return nil
	})
}

func printExtractResult(result *handlers.ExtractResult, notesDir string, dryRun bool) {
	fmt.Println()
	printSummary(os.Stdout, result.Batch.Summary)
	if result.Graph != nil {
		printReport(os.Stdout, result.Graph.Report)
		printWarnings(os.Stdout, result.Graph.Warnings)
	}

	switch {
	case dryRun:
		fmt.Printf("Dry run: %d records not written\n", len(result.Batch.Records))
		for _, r := range result.Batch.Records {
			fmt.Printf("  - [%s] %s\n", r.Type, r.Name())
		}
	default:
		fmt.Printf("Wrote %d notes to %s\n", len(result.Notes), notesDir)
		if result.IndexNote != "" {
			fmt.Printf("Index: %s\n", result.IndexNote)
		}
	}

	printErrors(os.Stderr, "Errors", result.Errors)
}
