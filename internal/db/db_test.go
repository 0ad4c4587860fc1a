package db

import (
	"testing"

	"github.com/AdamBeresnev/esports-bracket/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrationsSQLite(t *testing.T) {
	database, err := InitDB(config.DatabaseConfig{Driver: "sqlite3", DSN: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, RunMigrations(database))
	// A second run is a no-op.
	require.NoError(t, RunMigrations(database))

	var tables []string
	err = database.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'schema_%' ORDER BY name")
	require.NoError(t, err)
	assert.Equal(t, []string{"matches", "teams", "tournament_teams", "tournaments", "veto_steps"}, tables)
}

func TestInitDBUnknownDriver(t *testing.T) {
	_, err := InitDB(config.DatabaseConfig{Driver: "nope", DSN: "x"})
	assert.Error(t, err)
}
