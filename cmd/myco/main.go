// Package main provides the entry point for the myco CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"

	globalDir      string
	globalOntology string
	globalVerbose  bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "myco",
		Short:         "Schema-guided knowledge extraction into linked notes and graphs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&globalDir, "config-dir", "", "Directory containing .mycomind (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&globalOntology, "ontology", "", "Ontology file (overrides the configured one)")
	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newInitCmd(),
		newOntologyCmd(),
		newExtractCmd(),
		newWatchCmd(),
		newConvertCmd(),
		newLoadCmd(),
		newIndexCmd(),
		newSearchCmd(),
		newHistoryCmd(),
		newCacheCmd(),
	)

	return rootCmd
}
