package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/Igor-Kaminski/round-table-bot/internal/aggregator"
	"github.com/Igor-Kaminski/round-table-bot/internal/model"
	"github.com/Igor-Kaminski/round-table-bot/internal/report"
	"github.com/Igor-Kaminski/round-table-bot/internal/storage"
)

var (
	exportOut    string
	exportFormat string
)

// exportDoc is the JSON export schema.
type exportDoc struct {
	GeneratedAt string           `json:"generated_at"`
	Players     []exportPlayer   `json:"players"`
	Champions   []exportChampion `json:"champions"`
	Matches     []exportMatch    `json:"matches"`
}

type exportPlayer struct {
	Name      string  `json:"name"`
	Handle    string  `json:"handle,omitempty"`
	Games     int     `json:"games"`
	Minutes   int     `json:"minutes"`
	Kills     int     `json:"kills"`
	Deaths    int     `json:"deaths"`
	Assists   int     `json:"assists"`
	Damage    int     `json:"damage"`
	Taken     int     `json:"taken"`
	Healing   int     `json:"healing"`
	KDA       float64 `json:"kda"`
	DamagePM  float64 `json:"damage_per_min"`
	HealingPM float64 `json:"healing_per_min"`
}

type exportChampion struct {
	Champion string  `json:"champion"`
	Role     string  `json:"role"`
	Games    int     `json:"games"`
	Winrate  float64 `json:"winrate"`
	KDA      float64 `json:"kda"`
	DamagePM float64 `json:"damage_per_min"`
}

type exportMatch struct {
	MatchID    int64  `json:"match_id"`
	Grouping   *int64 `json:"grouping,omitempty"`
	Map        string `json:"map"`
	Region     string `json:"region"`
	Minutes    int    `json:"minutes"`
	Team1Score int    `json:"team1_score"`
	Team2Score int    `json:"team2_score"`
	IngestedAt string `json:"ingested_at"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export players, champions and matches as xlsx or JSON",
	Long: `Write a snapshot of the database: per-player totals, per-champion
aggregates and the match list. The format follows the --out extension
(.xlsx or .json) unless --format is given. Without --out, JSON is written to
stdout.

Example:
  roundtable export --out season.xlsx`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file path (default: stdout)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "xlsx or json (default from --out extension)")
}

func runExport(cmd *cobra.Command, _ []string) error {
	format := strings.ToLower(exportFormat)
	if format == "" {
		format = "json"
		if strings.EqualFold(filepath.Ext(exportOut), ".xlsx") {
			format = "xlsx"
		}
	}
	if format != "json" && format != "xlsx" {
		return fmt.Errorf("unknown format %q (valid: xlsx, json)", format)
	}
	if format == "xlsx" && exportOut == "" {
		return fmt.Errorf("xlsx export needs --out")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := buildExport(cmd.Context(), a)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "xlsx":
		err = report.WriteWorkbook(w, exportSheets(doc))
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	}
	if err != nil {
		return err
	}
	if exportOut != "" {
		fmt.Fprintf(os.Stderr, "Exported %d players, %d champions, %d matches to %s\n",
			len(doc.Players), len(doc.Champions), len(doc.Matches), exportOut)
	}
	return nil
}

func buildExport(ctx context.Context, a *app) (*exportDoc, error) {
	doc := &exportDoc{GeneratedAt: time.Now().UTC().Format(time.RFC3339)}

	totals, err := a.db.RosterTotals(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range totals {
		s := model.PlayerStats{
			Games: t.Games, Minutes: t.Minutes,
			Kills: t.Kills, Deaths: t.Deaths, Assists: t.Assists,
			Damage: t.Damage, Taken: t.Taken, Healing: t.Healing, HealingMinutes: t.Minutes,
		}
		doc.Players = append(doc.Players, exportPlayer{
			Name: t.Name, Handle: t.Handle, Games: t.Games, Minutes: t.Minutes,
			Kills: t.Kills, Deaths: t.Deaths, Assists: t.Assists,
			Damage: t.Damage, Taken: t.Taken, Healing: t.Healing,
			KDA:       round2(s.KDA()),
			DamagePM:  round2(s.DamagePerMinute()),
			HealingPM: round2(s.HealingPerMinute()),
		})
	}

	rows, err := a.agg.Rows(ctx, storage.RowFilter{}, aggregator.Filter{})
	if err != nil {
		return nil, err
	}
	for _, g := range lo.GroupBy(rows, func(r model.StatRow) string { return model.FoldName(r.Champion) }) {
		s := aggregator.Compute(g, false)
		name := g[0].Champion
		if canon, ok := a.roles.Canonical(name); ok {
			name = canon
		}
		doc.Champions = append(doc.Champions, exportChampion{
			Champion: name,
			Role:     string(g[0].Role),
			Games:    s.Games,
			Winrate:  round2(s.Winrate()),
			KDA:      round2(s.KDA()),
			DamagePM: round2(s.DamagePerMinute()),
		})
	}
	sort.Slice(doc.Champions, func(i, j int) bool {
		if doc.Champions[i].Games != doc.Champions[j].Games {
			return doc.Champions[i].Games > doc.Champions[j].Games
		}
		return doc.Champions[i].Champion < doc.Champions[j].Champion
	})

	matches, err := a.db.ListMatches(ctx, 0)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		doc.Matches = append(doc.Matches, exportMatch{
			MatchID: m.MatchID, Grouping: m.GroupingNo, Map: m.Map, Region: m.Region,
			Minutes: m.Duration, Team1Score: m.Team1Score, Team2Score: m.Team2Score,
			IngestedAt: m.IngestedAt.UTC().Format(time.RFC3339),
		})
	}
	return doc, nil
}

func exportSheets(doc *exportDoc) []report.Sheet {
	players := report.Sheet{
		Name: "Players",
		Header: []string{"Name", "Handle", "Games", "Minutes", "Kills", "Deaths", "Assists",
			"Damage", "Taken", "Healing", "KDA", "Damage/min", "Healing/min"},
	}
	for _, p := range doc.Players {
		players.Rows = append(players.Rows, []any{p.Name, p.Handle, p.Games, p.Minutes, p.Kills, p.Deaths,
			p.Assists, p.Damage, p.Taken, p.Healing, p.KDA, p.DamagePM, p.HealingPM})
	}

	champs := report.Sheet{
		Name:   "Champions",
		Header: []string{"Champion", "Role", "Games", "Win %", "KDA", "Damage/min"},
	}
	for _, c := range doc.Champions {
		champs.Rows = append(champs.Rows, []any{c.Champion, c.Role, c.Games, c.Winrate, c.KDA, c.DamagePM})
	}

	matches := report.Sheet{
		Name:   "Matches",
		Header: []string{"Match", "Grouping", "Map", "Region", "Minutes", "Team 1", "Team 2", "Ingested"},
	}
	for _, m := range doc.Matches {
		var grouping any = ""
		if m.Grouping != nil {
			grouping = *m.Grouping
		}
		matches.Rows = append(matches.Rows, []any{m.MatchID, grouping, m.Map, m.Region, m.Minutes,
			m.Team1Score, m.Team2Score, m.IngestedAt})
	}
	return []report.Sheet{players, champs, matches}
}

// round2 rounds a float64 to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
