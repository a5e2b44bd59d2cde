package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var linkForce bool

var linkCmd = &cobra.Command{
	Use:   "link <name> <handle>",
	Short: "Link a player name to an external account handle",
	Long: `Attach an external handle (for example a Discord user id) to the player
known by name, creating the player if the name is new. A handle already
linked to someone else is moved only with --force. A player already linked to
a different handle is never relinked; unlink it first.`,
	Args: cobra.ExactArgs(2),
	RunE: runLink,
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink <handle>",
	Short: "Remove an external handle from its player",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnlink,
}

func init() {
	linkCmd.Flags().BoolVarP(&linkForce, "force", "f", false, "move the handle if another player holds it")
}

func runLink(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	name, handle := args[0], args[1]
	if _, err := a.dir.Link(cmd.Context(), name, handle, linkForce); err != nil {
		return err
	}
	cOK.Fprintf(os.Stdout, "Linked %s to %s\n", name, handle)
	return nil
}

func runUnlink(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.dir.Unlink(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Unlinked %s\n", args[0])
	return nil
}
