// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// DefaultConfigDir is the directory name for MycoMind configuration.
	DefaultConfigDir = ".mycomind"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultOntologyFile is the ontology written by init.
	DefaultOntologyFile = "ontology.yaml"
	// DefaultBaseIRI is the namespace used by the linked-data emitters.
	DefaultBaseIRI = "http://mycomind.org/kg/"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static infrastructure configuration (read-only after init).
// Values come from the YAML file; environment variables override them.
type Config struct {
	Ontology   string           `yaml:"ontology,omitempty"`
	LLM        LLMConfig        `yaml:"llm,omitempty"`
	Embedder   EmbedderConfig   `yaml:"embedder,omitempty"`
	Qdrant     QdrantConfig     `yaml:"qdrant,omitempty"`
	Neo4j      Neo4jConfig      `yaml:"neo4j,omitempty"`
	Fuseki     FusekiConfig     `yaml:"fuseki,omitempty"`
	Cache      CacheConfig      `yaml:"cache,omitempty"`
	Processing ProcessingConfig `yaml:"processing,omitempty"`
	Vault      VaultConfig      `yaml:"vault,omitempty"`
	Graph      GraphConfig      `yaml:"graph,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	Metrics    MetricsConfig    `yaml:"metrics,omitempty"`
}

// LLMConfig holds configuration for the LLM provider.
type LLMConfig struct {
	Provider        string        `yaml:"provider,omitempty" env:"MYCO_LLM_PROVIDER"`
	Model           string        `yaml:"model,omitempty" env:"MYCO_LLM_MODEL"`
	APIKey          string        `yaml:"api_key,omitempty" env:"OPENAI_API_KEY"`
	AnthropicAPIKey string        `yaml:"anthropic_api_key,omitempty" env:"ANTHROPIC_API_KEY"`
	MaxTokens       int           `yaml:"max_tokens,omitempty"`
	Temperature     float32       `yaml:"temperature,omitempty"`
	Timeout         time.Duration `yaml:"timeout,omitempty"`
	// MaxRetries bounds transport-level retries (rate limits, 5xx) inside
	// the client, separate from validation retries.
	MaxRetries int `yaml:"max_retries,omitempty"`
}

// Key returns the API key for the configured provider.
func (c LLMConfig) Key() string {
	if c.Provider == "anthropic" {
		return c.AnthropicAPIKey
	}
	return c.APIKey
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty" env:"OPENAI_API_KEY"`
}

// QdrantConfig holds configuration for the Qdrant vector database.
type QdrantConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIKey     string `yaml:"api_key,omitempty" env:"QDRANT_API_KEY"`
}

// Neo4jConfig holds configuration for the property-graph store.
type Neo4jConfig struct {
	URI      string `yaml:"uri,omitempty" env:"NEO4J_URI"`
	Username string `yaml:"username,omitempty" env:"NEO4J_USERNAME"`
	Password string `yaml:"password,omitempty" env:"NEO4J_PASSWORD"`
	Database string `yaml:"database,omitempty"`
}

// FusekiConfig holds configuration for the RDF triple store. Any server
// speaking the SPARQL Graph Store protocol works; the layout of URLs
// follows Apache Jena Fuseki.
type FusekiConfig struct {
	URL      string        `yaml:"url,omitempty" env:"FUSEKI_URL"`
	Dataset  string        `yaml:"dataset,omitempty"`
	Graph    string        `yaml:"graph,omitempty"`
	Username string        `yaml:"username,omitempty" env:"FUSEKI_USERNAME"`
	Password string        `yaml:"password,omitempty" env:"FUSEKI_PASSWORD"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// CacheConfig holds configuration for the SQLite extraction cache and run log.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Path    string        `yaml:"path,omitempty"`
	TTL     time.Duration `yaml:"ttl,omitempty"`
}

// ProcessingConfig controls chunking, retries and concurrency.
type ProcessingConfig struct {
	ChunkSize        int           `yaml:"chunk_size,omitempty"`
	ChunkOverlap     int           `yaml:"chunk_overlap,omitempty"`
	MaxAttempts      int           `yaml:"max_attempts,omitempty"`
	Concurrency      int           `yaml:"concurrency,omitempty"`
	QualityThreshold float64       `yaml:"quality_threshold,omitempty"`
	ChunkTimeout     time.Duration `yaml:"chunk_timeout,omitempty"`
}

// VaultConfig controls where and how notes are written.
type VaultConfig struct {
	Path              string   `yaml:"path,omitempty"`
	NotesFolder       string   `yaml:"notes_folder,omitempty"`
	MaxFilenameLength int      `yaml:"max_filename_length,omitempty"`
	Tags              []string `yaml:"tags,omitempty"`
}

// GraphConfig controls graph emission.
type GraphConfig struct {
	BaseIRI string `yaml:"base_iri,omitempty"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" env:"MYCO_LOG_LEVEL"`
	Format string `yaml:"format,omitempty"`
}

// MetricsConfig controls Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Ontology: DefaultOntologyFile,
		LLM: LLMConfig{
			Provider:   "openai",
			Model:      "gpt-4o-mini",
			MaxTokens:  4000,
			Timeout:    60 * time.Second,
			MaxRetries: 3,
		},
		Embedder: EmbedderConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Qdrant: QdrantConfig{
			Host: "localhost",
			Port: 6334,
		},
		Neo4j: Neo4jConfig{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		Fuseki: FusekiConfig{
			URL:     "http://localhost:3030",
			Dataset: "mycomind",
			Timeout: 60 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "cache.db",
			TTL:     time.Hour,
		},
		Processing: ProcessingConfig{
			ChunkSize:        4000,
			ChunkOverlap:     200,
			MaxAttempts:      3,
			Concurrency:      4,
			QualityThreshold: 0.7,
			ChunkTimeout:     90 * time.Second,
		},
		Vault: VaultConfig{
			Path:              "vault",
			NotesFolder:       "Extracted Knowledge",
			MaxFilenameLength: 100,
			Tags:              []string{"extracted"},
		},
		Graph: GraphConfig{
			BaseIRI: DefaultBaseIRI,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from the .mycomind directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	if _, err := os.Stat(configFile); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file not found: %s (run 'myco init' first)", configFile)
	}

	// Start with defaults
	cfg := Default()

	if err := cleanenv.ReadConfig(configFile, cfg); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported llm provider %q (openai, anthropic)", c.LLM.Provider)
	}
	if c.Processing.ChunkSize <= 0 {
		return errors.New("processing.chunk_size must be positive")
	}
	if c.Processing.ChunkOverlap < 0 || c.Processing.ChunkOverlap >= c.Processing.ChunkSize {
		return errors.New("processing.chunk_overlap must be between 0 and chunk_size")
	}
	if c.Processing.QualityThreshold < 0 || c.Processing.QualityThreshold > 1 {
		return errors.New("processing.quality_threshold must be between 0 and 1")
	}
	if c.Graph.BaseIRI != "" && !strings.HasSuffix(c.Graph.BaseIRI, "/") && !strings.HasSuffix(c.Graph.BaseIRI, "#") {
		c.Graph.BaseIRI += "/"
	}
	return nil
}

// ConfigDir returns the path to the .mycomind config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// Exists checks if a MycoMind config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}

// ResolvePath makes a configured path absolute. Relative paths are taken
// from the config directory.
func ResolvePath(basePath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(ConfigDir(basePath), p)
}

// SanitizeName converts an ontology name to a valid collection suffix.
func SanitizeName(name string) string {
	// Convert to lowercase
	name = strings.ToLower(name)

	// Replace spaces and hyphens with underscores
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")

	// Remove any characters that aren't alphanumeric or underscore
	name = reNonAlphanumeric.ReplaceAllString(name, "")

	// Remove consecutive underscores
	name = reMultipleUnderscores.ReplaceAllString(name, "_")

	// Trim leading/trailing underscores
	name = strings.Trim(name, "_")

	if name == "" {
		return "default"
	}

	return name
}

// CollectionName returns the configured Qdrant collection, or one derived
// from the ontology name.
func (c *Config) CollectionName(ontologyName string) string {
	if c.Qdrant.Collection != "" {
		return c.Qdrant.Collection
	}
	return "myco_" + SanitizeName(ontologyName)
}
