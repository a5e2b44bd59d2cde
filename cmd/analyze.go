package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/Igor-Kaminski/round-table-bot/internal/aggregator"
	"github.com/Igor-Kaminski/round-table-bot/internal/model"
)

const analyzeSystemPrompt = `You are a Paladins performance analyst. You are given structured data
from a match-report stats tool and a question about a player or a match.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise and actionable; focus on what the player can actually improve.
- Avoid generic Paladins advice unless it directly explains a pattern in the data.

Metrics glossary:
- KDA: (kills + assists) / deaths, deaths floored at 1.
- Per-minute rates: totals divided by minutes played.
- Kill participation %: share of the team's kills and assists the player took part in.
- Damage share %: share of the team's damage the player dealt.
- Damage delta: average damage dealt minus average damage taken per game.
- Healing is only meaningful on support champions; without a filter it is averaged over support games only.
- Objective time: seconds spent on the objective.`

var (
	analyzeModel  string
	analyzeAPIKey string

	analyzeChamps []string
	analyzeRole   string
	analyzeLast   int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "AI-powered grounded analysis (requires ANTHROPIC_API_KEY)",
}

var analyzePlayerCmd = &cobra.Command{
	Use:   "player <name|handle|#id> <question>",
	Short: "Analyze a player's aggregate stats with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzePlayer,
}

var analyzeMatchCmd = &cobra.Command{
	Use:   "match <match-id> <question>",
	Short: "Analyze a single match with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzeMatch,
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeModel, "model", "", "Anthropic model to use (default from config)")
	analyzeCmd.PersistentFlags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")

	analyzePlayerCmd.Flags().StringSliceVar(&analyzeChamps, "champ", nil, "only games on these champions")
	analyzePlayerCmd.Flags().StringVar(&analyzeRole, "role", "", "only games on champions of this role")
	analyzePlayerCmd.Flags().IntVar(&analyzeLast, "last", 10, "include the N most recent games")

	analyzeCmd.AddCommand(analyzePlayerCmd)
	analyzeCmd.AddCommand(analyzeMatchCmd)
}

func runAnalyzePlayer(cmd *cobra.Command, args []string) error {
	question := args[1]
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	p, err := a.findPlayer(ctx, args[0])
	if err != nil {
		return err
	}
	f, err := a.filterFrom(analyzeChamps, analyzeRole)
	if err != nil {
		return err
	}
	stats, err := a.agg.PlayerStats(ctx, p.ID, f)
	if err != nil {
		return err
	}
	if stats == nil {
		return fmt.Errorf("no data found for %s (after filters)", p.Name)
	}
	champs, err := a.agg.ChampionStats(ctx, p.ID, aggregator.SortGames)
	if err != nil {
		return err
	}
	recent, err := a.agg.History(ctx, p.ID, analyzeLast)
	if err != nil {
		return err
	}

	filters := map[string]interface{}{
		"champions": analyzeChamps,
		"role":      analyzeRole,
	}
	contextJSON, err := buildPlayerContext(p.Name, *stats, champs, recent, filters)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(ctx, analyzeAPIKey, modelOrDefault(), contextJSON, question)
}

func runAnalyzeMatch(cmd *cobra.Command, args []string) error {
	matchID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid match id %q: %w", args[0], err)
	}
	question := args[1]

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	m, recs, err := a.db.GetMatch(cmd.Context(), matchID)
	if err != nil {
		return fmt.Errorf("find match: %w", err)
	}
	if m == nil {
		return fmt.Errorf("no match %d stored", matchID)
	}

	contextJSON, err := buildMatchContext(*m, recs, func(c string) string {
		r, _ := a.roles.RoleOf(c)
		return string(r)
	})
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, modelOrDefault(), contextJSON, question)
}

func modelOrDefault() string {
	if analyzeModel != "" {
		return analyzeModel
	}
	return cfg.Analyze.Model
}

func statsDoc(s model.PlayerStats) map[string]interface{} {
	return map[string]interface{}{
		"games":              s.Games,
		"wins":               s.Wins,
		"minutes":            s.Minutes,
		"winrate":            round2(s.Winrate()),
		"kda":                round2(s.KDA()),
		"kills_per_min":      round2(s.KillsPerMinute()),
		"deaths_per_min":     round2(s.DeathsPerMinute()),
		"damage_per_min":     round2(s.DamagePerMinute()),
		"taken_per_min":      round2(s.TakenPerMinute()),
		"healing_per_min":    round2(s.HealingPerMinute()),
		"shielding_per_min":  round2(s.ShieldingPerMinute()),
		"objective_per_game": round2(s.AvgObjective()),
		"damage_delta":       round2(s.DamageDelta()),
		"kill_participation": round2(s.KillParticipation),
		"damage_share":       round2(s.DamageShare),
	}
}

// buildPlayerContext serialises aggregated player data into compact JSON.
func buildPlayerContext(name string, s model.PlayerStats, champs []model.ChampionLine, recent []model.StatRow, filters map[string]interface{}) (string, error) {
	type champEntry struct {
		Champion string  `json:"champion"`
		Role     string  `json:"role"`
		Games    int     `json:"games"`
		Winrate  float64 `json:"winrate"`
		KDA      float64 `json:"kda"`
		DPM      float64 `json:"damage_per_min"`
	}
	champList := make([]champEntry, 0, len(champs))
	for _, c := range champs {
		champList = append(champList, champEntry{
			Champion: c.Champion,
			Role:     string(c.Role),
			Games:    c.Stats.Games,
			Winrate:  round2(c.Stats.Winrate()),
			KDA:      round2(c.Stats.KDA()),
			DPM:      round2(c.Stats.DamagePerMinute()),
		})
	}

	type gameEntry struct {
		MatchID  int64  `json:"match_id"`
		Champion string `json:"champion"`
		Won      bool   `json:"won"`
		KDA      string `json:"k_d_a"`
		Damage   int    `json:"damage"`
		Healing  int    `json:"healing"`
		Minutes  int    `json:"minutes"`
	}
	games := make([]gameEntry, 0, len(recent))
	for _, r := range recent {
		games = append(games, gameEntry{
			MatchID:  r.MatchID,
			Champion: r.Champion,
			Won:      r.Won(),
			KDA:      fmt.Sprintf("%d/%d/%d", r.Kills, r.Deaths, r.Assists),
			Damage:   r.Damage,
			Healing:  r.Healing,
			Minutes:  r.Duration,
		})
	}

	doc := map[string]interface{}{
		"subject":      "player",
		"player":       name,
		"filters":      filters,
		"overview":     statsDoc(s),
		"champions":    champList,
		"recent_games": games,
	}
	b, err := json.Marshal(doc)
	return string(b), err
}

// buildMatchContext serialises a single match into compact JSON.
func buildMatchContext(m model.Match, recs []model.MatchRecord, roleOf func(string) string) (string, error) {
	type playerEntry struct {
		Name      string `json:"name"`
		Team      string `json:"team"`
		Champion  string `json:"champion"`
		Role      string `json:"role"`
		Kills     int    `json:"kills"`
		Deaths    int    `json:"deaths"`
		Assists   int    `json:"assists"`
		Damage    int    `json:"damage"`
		Taken     int    `json:"taken"`
		Healing   int    `json:"healing"`
		Shielding int    `json:"shielding"`
		Objective int    `json:"objective_time"`
		Credits   int    `json:"credits"`
	}
	players := make([]playerEntry, 0, len(recs))
	for _, r := range recs {
		players = append(players, playerEntry{
			Name:      r.Name,
			Team:      r.Team.String(),
			Champion:  r.Champion,
			Role:      roleOf(r.Champion),
			Kills:     r.Kills,
			Deaths:    r.Deaths,
			Assists:   r.Assists,
			Damage:    r.Damage,
			Taken:     r.Taken,
			Healing:   r.Healing,
			Shielding: r.Shielding,
			Objective: r.ObjectiveTime,
			Credits:   r.Credits,
		})
	}

	doc := map[string]interface{}{
		"subject": "match",
		"map":     m.Map,
		"region":  m.Region,
		"minutes": m.Duration,
		"score":   fmt.Sprintf("%d-%d", m.Team1Score, m.Team2Score),
		"winner":  m.Winner().String(),
		"players": players,
	}
	b, err := json.Marshal(doc)
	return string(b), err
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)
	logger.Debug("calling model", "model", modelID, "context_bytes", len(dataJSON))

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed: check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
