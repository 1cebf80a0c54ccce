package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# MycoMind Configuration

ontology: ontology.yaml

llm:
  provider: openai # or anthropic
  model: gpt-4o-mini
  max_tokens: 4000
  timeout: 60s
  max_retries: 3
  # api_key: your-api-key (or set OPENAI_API_KEY env var)
  # anthropic_api_key: your-api-key (or set ANTHROPIC_API_KEY env var)

embedder:
  provider: openai
  model: text-embedding-3-small
  # api_key: your-api-key (or set OPENAI_API_KEY env var)

qdrant:
  host: localhost
  port: 6334
  # collection: myco_<ontology name>
  # api_key: your-api-key (for Qdrant Cloud)

neo4j:
  uri: bolt://localhost:7687
  username: neo4j
  database: neo4j
  # password: set NEO4J_PASSWORD env var

fuseki:
  url: http://localhost:3030
  dataset: mycomind
  timeout: 60s
  # graph: named graph IRI (default graph when empty)
  # username: admin
  # password: set FUSEKI_PASSWORD env var

cache:
  enabled: true
  path: cache.db
  ttl: 1h

processing:
  chunk_size: 4000
  chunk_overlap: 200
  max_attempts: 3
  concurrency: 4
  quality_threshold: 0.7
  chunk_timeout: 90s

vault:
  path: vault
  notes_folder: Extracted Knowledge
  max_filename_length: 100
  tags: [extracted]

graph:
  base_iri: http://mycomind.org/kg/

logging:
  level: info
  format: console

metrics:
  # textfile: /var/lib/node_exporter/textfile_collector/myco.prom
`

// WriteDefault creates the .mycomind directory and writes a default config file.
func WriteDefault(basePath string) error {
	configDir := ConfigDir(basePath)
	configFile := ConfigFilePath(basePath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Write writes the given config to the config file.
func Write(basePath string, cfg *Config) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)
	configFile := filepath.Join(configDir, DefaultConfigFile)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Secrets may be present, so the file is private.
	if err := os.WriteFile(configFile, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
