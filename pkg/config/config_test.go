package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("NEO4J_URI", "neo4j+s://example.databases.neo4j.io")
	t.Setenv("NEO4J_USER", "neo4j")
	t.Setenv("NEO4J_PASSWORD", "secret")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "neo4j", cfg.Neo4jDatabase)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_MissingNeo4jURI(t *testing.T) {
	setRequired(t)
	t.Setenv("NEO4J_URI", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_AcceptsUsernameAlias(t *testing.T) {
	setRequired(t)
	t.Setenv("NEO4J_USER", "")
	t.Setenv("NEO4J_USERNAME", "aura-user")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "aura-user", cfg.Neo4jUser)
}
