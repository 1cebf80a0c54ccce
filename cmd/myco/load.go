package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DarrenZal/MycoMind/internal/application/handlers"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/graphdb/neo4j"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/graphdb/sparql"
)

const (
	targetNeo4j  = "neo4j"
	targetFuseki = "fuseki"
)

type loadFlags struct {
	target  string
	baseIRI string
	pattern string
	dryRun  bool
	clear   bool
}

func newLoadCmd() *cobra.Command {
	var flags loadFlags

	cmd := &cobra.Command{
		Use:   "load [vault]",
		Short: "Load the vault graph into Neo4j or a SPARQL triple store",
		Long: `Resolves the vault and loads it into the chosen target. The neo4j target
runs the generated Cypher statements; the fuseki target uploads Turtle through
the SPARQL Graph Store protocol.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.target, "target", "t", targetNeo4j, "Graph store ("+targetNeo4j+", "+targetFuseki+")")
	cmd.Flags().StringVar(&flags.baseIRI, "base-iri", "", "Base IRI (default: graph.base_iri)")
	cmd.Flags().StringVarP(&flags.pattern, "pattern", "p", "", "Glob for notes inside the vault (default: **/*.md)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print the statements instead of executing them")
	cmd.Flags().BoolVar(&flags.clear, "clear", false, "Delete existing data before loading")

	return cmd
}

func runLoad(cmd *cobra.Command, args []string, flags loadFlags) error {
	switch flags.target {
	case targetNeo4j:
	case targetFuseki:
		return runLoadTriples(cmd, args, flags)
	default:
		return fmt.Errorf("unknown load target %q (%s, %s)", flags.target, targetNeo4j, targetFuseki)
	}
	ctx := cmd.Context()

	return withLoadHandler(flags.dryRun, func(d *Deps, h *handlers.LoadHandler, store *neo4j.Store) error {
		if store != nil {
			if err := store.Ping(ctx); err != nil {
				return err
			}
			if flags.clear {
				if err := store.Clear(ctx); err != nil {
					return fmt.Errorf("clearing graph: %w", err)
				}
				fmt.Println("Cleared existing graph.")
			}
		}

		baseIRI := flags.baseIRI
		if baseIRI == "" {
			baseIRI = d.Config.Graph.BaseIRI
		}

		result, err := h.Handle(ctx, d.Ontology, vaultArg(d, args), handlers.LoadOptions{
			Pattern: flags.pattern,
			BaseIRI: baseIRI,
			DryRun:  flags.dryRun,
		})
		if err != nil {
			return err
		}

		if flags.dryRun {
			fmt.Println(strings.Join(result.Statements, "\n"))
		} else {
			fmt.Printf("Loaded %d entities and %d edges (%d statements)\n",
				len(result.Graph.Entities), len(result.Graph.Edges), len(result.Statements))
		}
		printReport(os.Stderr, result.Graph.Report)
		printErrors(os.Stderr, "Skipped notes", result.Problems)
		return nil
	})
}

func runLoadTriples(cmd *cobra.Command, args []string, flags loadFlags) error {
	ctx := cmd.Context()

	return withTripleLoadHandler(flags.dryRun, func(d *Deps, h *handlers.TripleLoadHandler, store *sparql.Store) error {
		if store != nil {
			if err := store.Ping(ctx); err != nil {
				return err
			}
		}

		baseIRI := flags.baseIRI
		if baseIRI == "" {
			baseIRI = d.Config.Graph.BaseIRI
		}

		result, err := h.Handle(ctx, d.Ontology, vaultArg(d, args), handlers.TripleLoadOptions{
			Pattern: flags.pattern,
			BaseIRI: baseIRI,
			Replace: flags.clear,
			DryRun:  flags.dryRun,
		})
		if err != nil {
			return err
		}

		if flags.dryRun {
			if _, err := os.Stdout.Write(result.Turtle); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		} else {
			count, err := store.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Loaded %d entities into %s (%d triples in the graph)\n",
				len(result.Graph.Entities), d.Config.Fuseki.Dataset, count)
		}
		printReport(os.Stderr, result.Graph.Report)
		printErrors(os.Stderr, "Skipped notes", result.Problems)
		return nil
	})
}
