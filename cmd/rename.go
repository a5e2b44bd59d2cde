package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename <handle> <new-name>",
	Short: "Change the primary name of a linked player",
	Long: `Rename the player linked to handle. The previous name is kept as an alias
so reports that still use it resolve to the same player.`,
	Args: cobra.ExactArgs(2),
	RunE: runRename,
}

func runRename(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	changed, err := a.dir.Rename(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintf(os.Stdout, "%s is already named %s\n", args[0], args[1])
		return nil
	}
	cOK.Fprintf(os.Stdout, "Renamed %s to %s\n", args[0], args[1])
	return nil
}
