// Package handlers contains application use case handlers.
package handlers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
)

// StarterOntologyYAML is the ontology written by init.
const StarterOntologyYAML = `name: Regen Commons
version: 1.0.0
description: People, organizations and projects of a bioregional network
entities:
  Person:
    description: A human being
    properties:
      name: {type: string, required: true}
      description: string
      role: string
      email: {type: string, format: email}
    relationships:
      knows:
        target: Person
        bidirectional: true
      memberOf:
        target: Organization
        inverse: hasMember
      worksOn:
        target: Project
        inverse: hasContributor
  Organization:
    description: A group working toward shared goals
    properties:
      name: {type: string, required: true}
      description: string
      website: {type: string, format: uri}
      founded: date
    relationships:
      hasMember: Person
      runs:
        target: Project
        inverse: runBy
  Project:
    description: A concrete initiative
    properties:
      name: {type: string, required: true}
      description: string
      activityStatus:
        type: string
        enum: [alive, dormant, completed, archived]
      tags:
        type: array
        items: {type: string}
      startDate: date
    relationships:
      hasContributor: Person
      runBy: Organization
`

// InitHandler handles workspace initialization.
type InitHandler struct{}

// NewInitHandler creates a new init handler.
func NewInitHandler() *InitHandler {
	return &InitHandler{}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath   string
	OntologyPath string
	// OntologyKept is true when an existing ontology file was left alone.
	OntologyKept bool
}

// Handle writes the default config and a starter ontology.
func (h *InitHandler) Handle(basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("mycomind already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	result := &InitResult{
		ConfigPath:   config.ConfigFilePath(basePath),
		OntologyPath: config.ResolvePath(basePath, cfg.Ontology),
	}

	if _, err := os.Stat(result.OntologyPath); err == nil {
		result.OntologyKept = true
		return result, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking ontology: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(result.OntologyPath), 0755); err != nil {
		return nil, fmt.Errorf("creating ontology directory: %w", err)
	}
	if err := os.WriteFile(result.OntologyPath, []byte(StarterOntologyYAML), 0644); err != nil {
		return nil, fmt.Errorf("writing starter ontology: %w", err)
	}

	return result, nil
}
