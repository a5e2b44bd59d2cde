package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Leaderboard.DefaultLimit)
	assert.Equal(t, 50, cfg.Leaderboard.MaxLimit)
	assert.Equal(t, 1, cfg.Leaderboard.DefaultMinGames)
	assert.True(t, cfg.Ingest.GroupByMatchID)
	assert.NotEmpty(t, cfg.DBPath)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
db_path: /tmp/rt.db
ingest:
  group_by_match_id: false
leaderboard:
  default_limit: 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/rt.db", cfg.DBPath)
	assert.False(t, cfg.Ingest.GroupByMatchID)
	assert.Equal(t, 10, cfg.Leaderboard.DefaultLimit)
	assert.Equal(t, 50, cfg.Leaderboard.MaxLimit, "unset keys keep their defaults")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "db_path: /tmp/file.db\n")
	t.Setenv("ROUNDTABLE_DB", "/tmp/env.db")
	t.Setenv("ROUNDTABLE_GROUP_BY_MATCH_ID", "false")
	t.Setenv("ROUNDTABLE_LEADERBOARD_MIN_GAMES", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
	assert.False(t, cfg.Ingest.GroupByMatchID)
	assert.Equal(t, 3, cfg.Leaderboard.DefaultMinGames)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "leaderboard: [1, 2"))
		assert.Error(t, err)
	})
	t.Run("bad env int", func(t *testing.T) {
		t.Setenv("ROUNDTABLE_LEADERBOARD_LIMIT", "many")
		_, err := Load("")
		assert.ErrorContains(t, err, "ROUNDTABLE_LEADERBOARD_LIMIT")
	})
	t.Run("default above max", func(t *testing.T) {
		_, err := Load(writeFile(t, "leaderboard:\n  default_limit: 80\n"))
		assert.ErrorContains(t, err, "exceeds max_limit")
	})
}
