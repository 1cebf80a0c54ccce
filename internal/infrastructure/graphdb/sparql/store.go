// Package sparql provides a TripleStore that talks the SPARQL 1.1 Graph
// Store protocol, laid out the way Apache Jena Fuseki serves datasets.
package sparql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
)

const (
	// ContentTypeTurtle is the media type of Turtle uploads.
	ContentTypeTurtle = "text/turtle"
	// ContentTypeNTriples is the media type of N-Triples uploads.
	ContentTypeNTriples = "application/n-triples"
	// ContentTypeJSONLD is the media type of JSON-LD uploads.
	ContentTypeJSONLD = "application/ld+json"

	resultsJSON = "application/sparql-results+json"
	retries     = 2
)

// Store implements ports.TripleStore over HTTP.
type Store struct {
	client  *resty.Client
	dataset string
	graph   string
	logger  *zap.Logger
}

// NewStore creates a store for cfg.Dataset on the server at cfg.URL.
func NewStore(cfg config.FusekiConfig, logger *zap.Logger) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("fuseki url is required")
	}
	if cfg.Dataset == "" {
		return nil, errors.New("fuseki dataset is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.URL, "/")).
		SetRetryCount(retries).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	if cfg.Username != "" {
		client.SetBasicAuth(cfg.Username, cfg.Password)
	}

	return &Store{
		client:  client,
		dataset: strings.Trim(cfg.Dataset, "/"),
		graph:   cfg.Graph,
		logger:  logger.Named("sparql"),
	}, nil
}

// Ping checks that the server answers.
func (s *Store) Ping(ctx context.Context) error {
	resp, err := s.client.R().SetContext(ctx).Get("/$/ping")
	if err != nil {
		return fmt.Errorf("connecting to triple store: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("connecting to triple store: %s", resp.Status())
	}
	return nil
}

// Upload implements ports.TripleStore. A PUT replaces the target graph and
// a POST merges into it.
func (s *Store) Upload(ctx context.Context, contentType string, data []byte, replace bool) error {
	req := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(data)
	if s.graph != "" {
		req.SetQueryParam("graph", s.graph)
	}

	method := http.MethodPost
	if replace {
		method = http.MethodPut
	}
	resp, err := req.Execute(method, s.path("data"))
	if err != nil {
		return fmt.Errorf("uploading %s: %w", contentType, err)
	}
	if resp.IsError() {
		return fmt.Errorf("uploading %s: %s: %s", contentType, resp.Status(), strings.TrimSpace(resp.String()))
	}

	s.logger.Debug("graph uploaded",
		zap.String("method", method),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)))
	return nil
}

// Count returns the number of triples in the target graph.
func (s *Store) Count(ctx context.Context) (int, error) {
	query := "SELECT (COUNT(*) AS ?n) WHERE { ?s ?p ?o }"
	if s.graph != "" {
		query = fmt.Sprintf("SELECT (COUNT(*) AS ?n) WHERE { GRAPH <%s> { ?s ?p ?o } }", s.graph)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Accept", resultsJSON).
		SetFormData(map[string]string{"query": query}).
		Post(s.path("sparql"))
	if err != nil {
		return 0, fmt.Errorf("counting triples: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("counting triples: %s", resp.Status())
	}

	var results struct {
		Results struct {
			Bindings []map[string]struct {
				Value string `json:"value"`
			} `json:"bindings"`
		} `json:"results"`
	}
	if err := json.Unmarshal(resp.Body(), &results); err != nil {
		return 0, fmt.Errorf("decoding query results: %w", err)
	}
	if len(results.Results.Bindings) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(results.Results.Bindings[0]["n"].Value)
	if err != nil {
		return 0, fmt.Errorf("decoding triple count: %w", err)
	}
	return n, nil
}

func (s *Store) path(service string) string {
	return "/" + s.dataset + "/" + service
}
