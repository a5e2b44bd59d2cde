package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cOK       = color.New(color.FgGreen)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long: `Open a persistent session. Every roundtable command can be typed without
the program name, e.g. 'leaderboard kda -n 5'. Quote names that contain
spaces. Type 'help' for the command list or 'exit' to leave.`,
	Args: cobra.NoArgs,
}

// RunE is assigned here rather than in the literal to break the
// shellCmd -> runShell -> shellHelp -> shellCmd initialization cycle.
func init() {
	shellCmd.RunE = runShell
}

func runShell(cmd *cobra.Command, _ []string) error {
	cGreeting.Println("roundtable shell")
	cMuted.Printf("database: %s\n", dbPath)
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("roundtable")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		tokens, err := shlex.Split(scanner.Text())
		if err != nil {
			cError.Fprintf(os.Stderr, "%v\n", err)
			continue
		}
		if len(tokens) == 0 {
			continue
		}

		switch tokens[0] {
		case "exit", "quit":
			return nil
		case "help":
			if len(tokens) == 1 {
				shellHelp()
				continue
			}
		case "shell":
			cWarn.Fprintln(os.Stderr, "already in a shell")
			continue
		}

		resetFlags(rootCmd)
		rootCmd.SetArgs(tokens)
		if err := rootCmd.ExecuteContext(cmd.Context()); err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	var rows []entry
	for _, c := range rootCmd.Commands() {
		if !c.IsAvailableCommand() || c == shellCmd {
			continue
		}
		rows = append(rows, entry{c.Name(), c.Short})
	}
	rows = append(rows,
		entry{"help <command>", "show usage for one command"},
		entry{"exit / quit", "close the session"},
	)
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-16s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

// resetFlags restores every subcommand's local flags to their defaults so a
// value typed on one line does not leak into the next. Root persistent flags
// keep the values the shell was started with.
func resetFlags(c *cobra.Command) {
	for _, sub := range c.Commands() {
		reset := func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		}
		sub.LocalFlags().VisitAll(reset)
		resetFlags(sub)
	}
}
