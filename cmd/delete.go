package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <match-id>",
	Short: "Delete a stored match and its player records",
	Long: `Remove one match and every player record of it. Player identities, their
handles and aliases are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	matchID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid match id %q: %w", args[0], err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.db.DeleteMatch(cmd.Context(), matchID)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintf(os.Stdout, "No match %d stored, nothing deleted.\n", matchID)
		return nil
	}
	logger.Info("deleted match", "match_id", matchID, "rows", n)
	cOK.Fprintf(os.Stdout, "Deleted match %d (%d rows)\n", matchID, n)
	return nil
}
