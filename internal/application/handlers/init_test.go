package handlers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
)

func TestInitHandler_Handle_Success(t *testing.T) {
	tmpDir := t.TempDir()

	result, err := NewInitHandler().Handle(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, config.ConfigFilePath(tmpDir), result.ConfigPath)
	assert.Equal(t, filepath.Join(tmpDir, config.DefaultConfigDir, config.DefaultOntologyFile), result.OntologyPath)
	assert.False(t, result.OntologyKept)

	assert.True(t, config.Exists(tmpDir))
	data, err := os.ReadFile(result.OntologyPath)
	require.NoError(t, err)
	assert.Equal(t, StarterOntologyYAML, string(data))
}

func TestInitHandler_Handle_AlreadyInitialized(t *testing.T) {
	tmpDir := t.TempDir()

	err := config.WriteDefault(tmpDir)
	require.NoError(t, err)

	_, err = NewInitHandler().Handle(tmpDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
}

func TestInitHandler_Handle_KeepsExistingOntology(t *testing.T) {
	tmpDir := t.TempDir()
	ontologyPath := filepath.Join(tmpDir, config.DefaultConfigDir, config.DefaultOntologyFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(ontologyPath), 0755))
	require.NoError(t, os.WriteFile(ontologyPath, []byte("name: mine\n"), 0644))

	result, err := NewInitHandler().Handle(tmpDir)

	require.NoError(t, err)
	assert.True(t, result.OntologyKept)
	data, err := os.ReadFile(ontologyPath)
	require.NoError(t, err)
	assert.Equal(t, "name: mine\n", string(data))
}
