package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DarrenZal/MycoMind/internal/application/handlers"
	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/services"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
)

func newOntologyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ontology",
		Short: "Inspect the ontology",
	}

	var typeName string
	describeCmd := &cobra.Command{
		Use:   "describe",
		Short: "Show the flattened entity types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOntology(func(h *handlers.OntologyHandler, ont *entities.Ontology) error {
				desc, err := h.HandleDescribe(ont, typeName)
				if err != nil {
					return err
				}
				printDescription(desc)
				return nil
			})
		},
	}
	describeCmd.Flags().StringVarP(&typeName, "type", "t", "", "Describe one entity type")

	var promptType string
	promptCmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the extraction instructions sent to the LLM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOntology(func(h *handlers.OntologyHandler, ont *entities.Ontology) error {
				prompt, err := h.HandlePrompt(ont, promptType)
				if err != nil {
					return err
				}
				fmt.Println(prompt)
				return nil
			})
		},
	}
	promptCmd.Flags().StringVarP(&promptType, "type", "t", "", "Render file-as-entity instructions for this type")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "validate",
			Short: "Validate the ontology",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withOntology(func(h *handlers.OntologyHandler, ont *entities.Ontology) error {
					fmt.Printf("Ontology %q (version %s) is valid: %d types\n", ont.Name, ont.Version, len(ont.TypeNames()))
					fmt.Printf("Types: %s\n", strings.Join(ont.TypeNames(), ", "))
					return nil
				})
			},
		},
		describeCmd,
		promptCmd,
		newOntologyImportCmd(),
	)

	return cmd
}

func newOntologyImportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "import <vocabulary.jsonld>",
		Short: "Convert an RDFS or OWL vocabulary in JSON-LD into ontology YAML",
		Long: `Classes become entity types and rdfs:subClassOf becomes extends.
Properties attach to their rdfs:domain or schema:domainIncludes classes:
a range that is an imported class makes a relationship, an XSD range makes
a typed property.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOntologyImport(args[0], out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	return cmd
}

func runOntologyImport(path, out string) error {
	result, err := handlers.NewOntologyHandler(services.NewOntologyService()).HandleImport(path)
	if err != nil {
		return err
	}

	if out == "" {
		if _, err := os.Stdout.Write(result.YAML); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	} else {
		if err := os.WriteFile(out, result.YAML, 0644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote ontology %q with %d types to %s\n", result.Ontology.Name, len(result.Ontology.TypeNames()), out)
	}
	for _, s := range result.Skipped {
		fmt.Fprintf(os.Stderr, "skipped: %s\n", s)
	}
	return nil
}

// withOntology loads the ontology without building any pipeline.
func withOntology(fn func(*handlers.OntologyHandler, *entities.Ontology) error) error {
	return withConfig(func(base string, cfg *config.Config, logger *zap.Logger) error {
		h := handlers.NewOntologyHandler(services.NewOntologyService())
		ont, err := h.HandleLoad(ontologyPath(base, cfg))
		if err != nil {
			return err
		}
		return fn(h, ont)
	})
}

func printDescription(desc *handlers.OntologyDescription) {
	fmt.Printf("%s (version %s, fingerprint %s)\n", desc.Name, desc.Version, desc.Fingerprint)
	if desc.Description != "" {
		fmt.Println(desc.Description)
	}
	for _, t := range desc.Types {
		fmt.Println()
		header := t.Name
		if t.Extends != "" {
			header += " extends " + t.Extends
		}
		fmt.Println(header)
		if t.Description != "" {
			fmt.Printf("  %s\n", t.Description)
		}
		if len(t.Properties) > 0 {
			fmt.Println("  Properties:")
			for _, p := range t.Properties {
				fmt.Printf("    - %s\n", p)
			}
		}
		if len(t.Relationships) > 0 {
			fmt.Println("  Relationships:")
			for _, r := range t.Relationships {
				fmt.Printf("    - %s\n", r)
			}
		}
	}
}
