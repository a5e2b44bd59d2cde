package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
	"github.com/Igor-Kaminski/round-table-bot/internal/parser"
	"github.com/Igor-Kaminski/round-table-bot/internal/report"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a match report without storing it",
	Long: `Validate a match report and print what would be stored. Reads stdin when
no file is given. Compressed files (.gz, .bz2, .zst) are accepted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	text, err := readInput(path)
	if err != nil {
		return err
	}
	if start, ok := parser.FindReportStart(text); ok {
		text = start
	}

	rep, err := parser.Parse(text)
	if err != nil {
		return err
	}

	report.PrintMatchSummary(os.Stdout, model.Match{
		MatchID:    rep.MatchID,
		Duration:   rep.Duration,
		Region:     rep.Region,
		Map:        rep.Map,
		Team1Score: rep.Team1Score,
		Team2Score: rep.Team2Score,
	})
	recs := make([]model.MatchRecord, len(rep.Players))
	for i, p := range rep.Players {
		recs[i] = model.MatchRecord{MatchID: rep.MatchID, PlayerLine: p}
	}
	report.PrintMatchTable(os.Stdout, recs, 0)
	fmt.Fprintf(os.Stdout, "\n%d player lines parsed.\n", len(rep.Players))
	return nil
}
