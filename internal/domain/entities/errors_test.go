package entities

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *SchemaError
		expected string
	}{
		{
			name:     "unknown type",
			err:      &SchemaError{Kind: KindUnknownType, Key: "Spaceship"},
			expected: "SchemaError: unknown type Spaceship",
		},
		{
			name:     "missing required",
			err:      &SchemaError{Kind: KindMissingRequired, Type: "Person", Key: "name"},
			expected: "SchemaError: missing required property name",
		},
		{
			name: "enum violation lists allowed values",
			err: &SchemaError{
				Kind:    KindInvalidProperty,
				Key:     "activityStatus",
				Detail:  `value "unknown_value" is not allowed`,
				Allowed: []string{"alive", "dormant"},
			},
			expected: `SchemaError: invalid property activityStatus: value "unknown_value" is not allowed (allowed values: alive, dormant)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestOntologyErrors_Unwrap(t *testing.T) {
	errs := OntologyErrors{
		{Type: "A", Reason: "cyclic inheritance"},
		{Type: "B", Reason: "duplicate type"},
	}
	wrapped := fmt.Errorf("loading ontology: %w", errs)

	var oe *OntologyError
	require.True(t, errors.As(wrapped, &oe))
	assert.Equal(t, "A", oe.Type)
	assert.True(t, IsOntologyError(wrapped))
	assert.Contains(t, wrapped.Error(), "2 ontology errors")
	assert.Contains(t, wrapped.Error(), "OntologyError: cyclic inheritance")
}

func TestResolvedGraph_CheckIntegrity(t *testing.T) {
	t.Run("valid graph", func(t *testing.T) {
		g := &ResolvedGraph{
			Entities: []ResolvedEntity{
				{ID: "Person/a", Relationships: map[string][]string{"knows": {"Entity/b"}}},
				{ID: "Entity/b", Stub: true},
			},
			Edges: []Edge{{Source: "Person/a", Relation: "knows", Target: "Entity/b"}},
		}
		assert.NoError(t, g.CheckIntegrity("cypher"))
	})

	t.Run("duplicate identifier", func(t *testing.T) {
		g := &ResolvedGraph{Entities: []ResolvedEntity{{ID: "Person/a"}, {ID: "Person/a"}}}
		var ee *EmissionError
		require.ErrorAs(t, g.CheckIntegrity("jsonld"), &ee)
		assert.Equal(t, "duplicate identifier", ee.Reason)
	})

	t.Run("dangling reference", func(t *testing.T) {
		g := &ResolvedGraph{
			Entities: []ResolvedEntity{
				{ID: "Person/a", Relationships: map[string][]string{"knows": {"Person/missing"}}},
			},
		}
		var ee *EmissionError
		require.ErrorAs(t, g.CheckIntegrity("cypher"), &ee)
		assert.Contains(t, ee.Reason, "Person/missing")
	})
}
