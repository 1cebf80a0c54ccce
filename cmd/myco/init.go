package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DarrenZal/MycoMind/internal/application/handlers"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a MycoMind project",
		Long:  "Creates .mycomind/config.yaml with defaults and a starter ontology.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	base, err := basePath()
	if err != nil {
		return err
	}

	result, err := handlers.NewInitHandler().Handle(base)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s\n", result.ConfigPath)
	if result.OntologyKept {
		fmt.Printf("Kept existing ontology %s\n", result.OntologyPath)
	} else {
		fmt.Printf("Created %s\n", result.OntologyPath)
	}
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Set OPENAI_API_KEY (or ANTHROPIC_API_KEY with llm.provider: anthropic)")
	fmt.Println("  2. Edit the ontology, then run: myco ontology validate")
	fmt.Println("  3. Extract notes: myco extract <path>")
	return nil
}
