package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDropNeedsConfirmation(t *testing.T) {
	t.Setenv("ROUNDTABLE_GROUP_BY_MATCH_ID", "")
	dir := t.TempDir()
	db := filepath.Join(dir, "stats.db")
	conf := filepath.Join(dir, "absent.yaml")
	require.NoError(t, runRoot(t, "--db", db, "--config", conf, "ingest", writeReport(t, dir, 423456789)))

	require.NoError(t, runRoot(t, "--db", db, "--config", conf, "drop"))
	assert.FileExists(t, db)

	require.NoError(t, runRoot(t, "--db", db, "--config", conf, "drop", "--yes"))
	assert.NoFileExists(t, db)
	_, err := os.Stat(db + "-wal")
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, runRoot(t, "--db", db, "--config", conf, "drop", "--yes"), "dropping twice is harmless")
}
