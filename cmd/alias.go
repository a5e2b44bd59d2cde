package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Igor-Kaminski/round-table-bot/internal/identity"
)

var aliasCmd = &cobra.Command{
	Use:   "alias",
	Short: "Manage the alternate names of a linked player",
}

var aliasAddCmd = &cobra.Command{
	Use:   "add <handle> <alias>",
	Short: "Add an alternate name",
	Args:  cobra.ExactArgs(2),
	RunE:  runAliasAdd,
}

var aliasRemoveCmd = &cobra.Command{
	Use:     "remove <handle> <alias>",
	Aliases: []string{"rm"},
	Short:   "Remove an alternate name",
	Args:    cobra.ExactArgs(2),
	RunE:    runAliasRemove,
}

var aliasListCmd = &cobra.Command{
	Use:   "list <handle>",
	Short: "List a player's alternate names",
	Args:  cobra.ExactArgs(1),
	RunE:  runAliasList,
}

func init() {
	aliasCmd.AddCommand(aliasAddCmd)
	aliasCmd.AddCommand(aliasRemoveCmd)
	aliasCmd.AddCommand(aliasListCmd)
}

func runAliasAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	added, err := a.dir.AddAlias(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	if !added {
		fmt.Fprintf(os.Stdout, "%s already resolves to %s\n", args[1], args[0])
		return nil
	}
	cOK.Fprintf(os.Stdout, "Added alias %s to %s\n", args[1], args[0])
	return nil
}

func runAliasRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.dir.RemoveAlias(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(os.Stdout, "%s has no alias %s\n", args[0], args[1])
		return nil
	}
	cOK.Fprintf(os.Stdout, "Removed alias %s from %s\n", args[1], args[0])
	return nil
}

func runAliasList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.dir.ByHandle(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if p == nil {
		return identity.ErrUnknownHandle
	}
	if len(p.Aliases) == 0 {
		fmt.Fprintf(os.Stdout, "%s has no aliases\n", p.Name)
		return nil
	}
	fmt.Fprintf(os.Stdout, "%s: %s\n", p.Name, strings.Join(p.Aliases, ", "))
	return nil
}
