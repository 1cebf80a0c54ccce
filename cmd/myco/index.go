package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DarrenZal/MycoMind/internal/application/handlers"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/vectordb/qdrant"
)

type indexFlags struct {
	pattern string
	stubs   bool
}

func newIndexCmd() *cobra.Command {
	var flags indexFlags

	cmd := &cobra.Command{
		Use:   "index [vault]",
		Short: "Index vault entities for similarity search",
		Long:  "Resolves the vault, embeds every entity and upserts it into Qdrant. Reindexing overwrites the same points.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.pattern, "pattern", "p", "", "Glob for notes inside the vault (default: **/*.md)")
	cmd.Flags().BoolVar(&flags.stubs, "stubs", false, "Index stub entities too")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string, flags indexFlags) error {
	ctx := cmd.Context()

	return withQueryHandler(func(d *Deps, h *handlers.QueryHandler, repo *qdrant.Repository) error {
		result, err := h.HandleIndex(ctx, d.Ontology, vaultArg(d, args), flags.pattern, flags.stubs)
		if err != nil {
			return err
		}

		fmt.Printf("Indexed %d entities (%d stubs skipped)\n", result.Indexed, result.Skipped)
		if total, err := repo.Count(ctx); err == nil {
			fmt.Printf("Collection now holds %d entities\n", total)
		}
		printErrors(os.Stderr, "Skipped notes", result.Problems)
		return nil
	})
}

type searchFlags struct {
	entityType string
	limit      int
}

func newSearchCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find indexed entities similar to the text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.entityType, "type", "t", "", "Only return entities of this type")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", DefaultSearchLimit, "Maximum number of results")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, flags searchFlags) error {
	ctx := cmd.Context()

	return withQueryHandler(func(d *Deps, h *handlers.QueryHandler, _ *qdrant.Repository) error {
		var result *handlers.QueryResult
		var err error
		if flags.entityType != "" {
			if !d.Ontology.HasType(flags.entityType) {
				return fmt.Errorf("unknown type %q (types: %v)", flags.entityType, d.Ontology.TypeNames())
			}
			result, err = h.HandleByType(ctx, query, flags.entityType, flags.limit)
		} else {
			result, err = h.Handle(ctx, query, flags.limit)
		}
		if err != nil {
			return err
		}

		if len(result.Hits) == 0 {
			fmt.Println("No matching entities.")
			return nil
		}
		for i, hit := range result.Hits {
			stub := ""
			if hit.Stub {
				stub = " (stub)"
			}
			fmt.Printf("%2d. [%s] %s%s  %.3f\n", i+1, hit.Type, hit.Name, stub, hit.Score)
		}
		return nil
	})
}
