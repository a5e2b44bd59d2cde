package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/Igor-Kaminski/round-table-bot/internal/storage"
)

var dropYes bool

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the stats database",
	Long: `Permanently delete the SQLite stats database together with its WAL side
files. Every stored match, player, handle and alias is lost. Without --yes the
command only reports what would be removed.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropYes, "yes", "y", false, "really delete the database")
	dropCmd.Flags().BoolVarP(&dropYes, "force", "f", false, "alias for --yes")
}

// dbFiles are the database file and the side files SQLite may leave next to it.
func dbFiles() []string {
	return []string{dbPath, dbPath + "-wal", dbPath + "-shm"}
}

func runDrop(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		cMuted.Fprintf(os.Stdout, "No database at %s, nothing to drop.\n", dbPath)
		return nil
	}

	if !dropYes {
		db, err := storage.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		matches, records, err := db.CountRows(cmd.Context())
		db.Close()
		if err != nil {
			return err
		}
		cWarn.Fprintf(os.Stderr, "%s holds %d matches (%d player lines).\n", dbPath, matches, records)
		fmt.Fprintln(os.Stderr, "Re-run with --yes to delete it.")
		return nil
	}

	var removed int
	for _, path := range dbFiles() {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed++
			logger.Debug("removed", "path", path)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	cOK.Fprintf(os.Stdout, "Dropped %s (%d files)\n", dbPath, removed)
	return nil
}
