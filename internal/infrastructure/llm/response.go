// Package llm holds the provider-independent parts of the LLM adapters:
// response decoding, error classification and transport retries.
package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

var (
	// jsonBlockPattern matches JSON inside markdown code blocks.
	jsonBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?([\\[{].*[\\]}])\\s*```")
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ErrEmptyResponse is returned when a provider answers with no content.
var ErrEmptyResponse = errors.New("empty response from model")

// ParseExtraction decodes a model response into a RawExtraction. Accepted
// shapes are {"entities": [...]}, a bare array of entities, and a single
// entity object.
func ParseExtraction(content string) (*entities.RawExtraction, error) {
	raw := ExtractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON found in response: %s", truncate(content, 200))
	}

	if strings.HasPrefix(raw, "[") {
		var list []entities.RawEntity
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf("parsing entity list: %w", err)
		}
		return &entities.RawExtraction{Entities: nonNil(list)}, nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("parsing response object: %w", err)
	}

	list, hasEntities := obj["entities"]
	if !hasEntities {
		if _, typed := obj["type"]; typed {
			return &entities.RawExtraction{Entities: []entities.RawEntity{obj}}, nil
		}
		if _, typed := obj["entity_type"]; typed {
			return &entities.RawExtraction{Entities: []entities.RawEntity{obj}}, nil
		}
		return nil, errors.New(`response has no "entities" list`)
	}

	out := &entities.RawExtraction{Entities: []entities.RawEntity{}}
	if meta, ok := obj["metadata"].(map[string]any); ok {
		out.Metadata = meta
	}
	if list == nil {
		return out, nil
	}
	items, ok := list.([]any)
	if !ok {
		return nil, fmt.Errorf(`"entities" must be a list, got %T`, list)
	}
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("entity %d is not an object", i+1)
		}
		out.Entities = append(out.Entities, m)
	}
	return out, nil
}

// ExtractJSON pulls the JSON document out of a model response. It handles
// markdown code fences, leading prose and trailing commas.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)
	if matches := jsonBlockPattern.FindStringSubmatch(content); len(matches) > 1 {
		content = matches[1]
	}

	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return ""
	}
	closing := "}"
	if content[start] == '[' {
		closing = "]"
	}
	end := strings.LastIndex(content, closing)
	if end < start {
		return ""
	}
	return trailingCommaPattern.ReplaceAllString(content[start:end+1], "$1")
}

func nonNil(list []entities.RawEntity) []entities.RawEntity {
	if list == nil {
		return []entities.RawEntity{}
	}
	return list
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
