package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Igor-Kaminski/round-table-bot/internal/ingest"
	"github.com/Igor-Kaminski/round-table-bot/internal/parser"
)

var (
	ingestGroup       int64
	ingestMetricsFile string
	ingestKeepGoing   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Store one or more match reports",
	Long: `Parse and store match reports. Each file holds one report; stdin is read
when no file is given. The report may be embedded in other text (a chat
message, a code block); it is located by its match-id header line.

A grouping number (--group) identifies the lobby or series the match belongs
to and must be unique. It can only be given with a single report.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Int64Var(&ingestGroup, "group", 0, "grouping number for the report")
	ingestCmd.Flags().StringVar(&ingestMetricsFile, "metrics-textfile", "", "write ingest counters in Prometheus text format to this file")
	ingestCmd.Flags().BoolVarP(&ingestKeepGoing, "keep-going", "k", false, "continue with the next file after a rejected report")
}

func runIngest(cmd *cobra.Command, args []string) error {
	var grouping *int64
	if cmd.Flags().Changed("group") {
		if len(args) > 1 {
			return errors.New("--group needs exactly one report")
		}
		g := ingestGroup
		grouping = &g
	}
	if len(args) == 0 {
		args = []string{"-"}
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var failed int
	for _, path := range args {
		if err := ingestOne(cmd, a, path, grouping); err != nil {
			failed++
			cError.Fprintf(os.Stderr, "%s: %v\n", displayPath(path), err)
			if !ingestKeepGoing {
				break
			}
		}
	}

	if ingestMetricsFile != "" {
		if err := prometheus.WriteToTextfile(ingestMetricsFile, a.registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d reports rejected", failed, len(args))
	}
	return nil
}

func ingestOne(cmd *cobra.Command, a *app, path string, grouping *int64) error {
	text, err := readInput(path)
	if err != nil {
		return err
	}
	if start, ok := parser.FindReportStart(text); ok {
		text = start
	}

	res, err := a.pipe.Ingest(cmd.Context(), text, grouping)
	if err != nil {
		var pe *parser.ParseError
		if errors.As(err, &pe) && pe.Line > 0 {
			return fmt.Errorf("malformed report: %w", err)
		}
		if errors.Is(err, ingest.ErrDuplicateMatch) {
			return fmt.Errorf("already stored: %w", err)
		}
		return err
	}

	cOK.Fprintf(os.Stdout, "Stored match %d", res.MatchID)
	if res.Grouping != nil {
		fmt.Fprintf(os.Stdout, " (grouping %d)", *res.Grouping)
	}
	fmt.Fprintln(os.Stdout)
	if len(res.Created) > 0 {
		cMuted.Fprintf(os.Stdout, "  new players: %s\n", strings.Join(res.Created, ", "))
	}
	if len(res.ViaAlias) > 0 {
		cMuted.Fprintf(os.Stdout, "  matched by alias: %s\n", strings.Join(res.ViaAlias, ", "))
	}
	if len(res.Unlinked) > 0 {
		cWarn.Fprintf(os.Stdout, "  not linked to a handle: %s\n", strings.Join(res.Unlinked, ", "))
		cMuted.Fprintln(os.Stdout, "  use 'roundtable link <name> <handle>' to link them")
	}
	return nil
}

func displayPath(path string) string {
	if path == "-" {
		return "stdin"
	}
	return path
}
