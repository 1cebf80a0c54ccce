package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/DarrenZal/MycoMind/internal/application/handlers"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/relationaldb/sqlite"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past extraction runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withRunLog(func(repo *sqlite.Repository) error {
				runs, err := handlers.NewHistoryHandler(repo).Handle(ctx, limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Println("No runs recorded.")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "STARTED\tONTOLOGY\tDOCS\tCHUNKS\tCACHED\tFAILED\tRECORDS\tDURATION")
				for _, r := range runs {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
						r.StartedAt.Local().Format("2006-01-02 15:04"), r.Ontology, r.Documents,
						r.ChunksTotal, r.ChunksCached, r.ChunksFailed, r.RecordsAccepted, r.Duration().Round(time.Second))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultHistoryLimit, "Maximum number of runs")
	return cmd
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the extraction cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show cache location and size",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRunLog(func(repo *sqlite.Repository) error {
					n, err := repo.CacheSize(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Printf("%s: %d cached chunks\n", repo.Path(), n)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "purge",
			Short: "Delete expired cache entries",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRunLog(func(repo *sqlite.Repository) error {
					n, err := repo.Purge(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Printf("Purged %d expired entries\n", n)
					return nil
				})
			},
		},
	)

	return cmd
}
