package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DarrenZal/MycoMind/internal/application/handlers"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/emitters"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/notes"
)

type convertFlags struct {
	format  string
	out     string
	baseIRI string
	pattern string
	report  bool
}

func newConvertCmd() *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "convert [vault]",
		Short: "Convert vault notes into a graph format",
		Long: fmt.Sprintf(`Reads every note with frontmatter, resolves WikiLinks to canonical
identifiers and writes the graph. Formats: %s.`, strings.Join(emitters.FormatNames(), ", ")),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "jsonld", "Output format ("+strings.Join(emitters.FormatNames(), ", ")+")")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&flags.baseIRI, "base-iri", "", "Base IRI (default: graph.base_iri)")
	cmd.Flags().StringVarP(&flags.pattern, "pattern", "p", "", "Glob for notes inside the vault (default: **/*.md)")
	cmd.Flags().BoolVar(&flags.report, "report", false, "List unresolved WikiLinks")

	return cmd
}

func runConvert(cmd *cobra.Command, args []string, flags convertFlags) error {
	ctx := cmd.Context()

	return withConvertHandler(func(d *Deps, h *handlers.ConvertHandler) error {
		vault := vaultArg(d, args)
		baseIRI := flags.baseIRI
		if baseIRI == "" {
			baseIRI = d.Config.Graph.BaseIRI
		}

		result, err := h.Handle(ctx, d.Ontology, vault, handlers.ConvertOptions{
			Pattern: flags.pattern,
			Format:  flags.format,
			BaseIRI: baseIRI,
		})
		if err != nil {
			return err
		}

		if flags.out == "" {
			if _, err := os.Stdout.Write(result.Output); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		} else {
			if err := os.WriteFile(flags.out, result.Output, 0644); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Wrote %s graph to %s\n", result.Format, flags.out)
		}

		printReport(os.Stderr, result.Graph.Report)
		printErrors(os.Stderr, "Skipped notes", result.Problems)
		if flags.report {
			printLinkReport(result.ResolveResult)
		}
		return nil
	})
}

// vaultArg returns the vault given on the command line, or the configured one.
func vaultArg(d *Deps, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return d.VaultPath()
}

func printLinkReport(resolved *handlers.ResolveResult) {
	lines := notes.UnresolvedLinks(resolved.Records)
	if len(lines) == 0 {
		fmt.Fprintln(os.Stderr, "Every WikiLink resolves to a note.")
		return
	}
	fmt.Fprintf(os.Stderr, "Unresolved WikiLinks (%d):\n", len(lines))
	for _, line := range lines {
		fmt.Fprintf(os.Stderr, "  %s\n", line)
	}
	printWarnings(os.Stderr, resolved.Graph.Warnings)
}
