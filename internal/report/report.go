package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
)

const dateLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

func f1(v float64) string  { return fmt.Sprintf("%.1f", v) }
func f2(v float64) string  { return fmt.Sprintf("%.2f", v) }
func pct(v float64) string { return fmt.Sprintf("%.0f%%", v) }

// grouped renders n with thousands separators.
func grouped(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return "-" + grouped(-n)
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// PrintMatchSummary prints a one-line summary header for the match.
func PrintMatchSummary(w io.Writer, m model.Match) {
	grouping := "—"
	if m.GroupingNo != nil {
		grouping = strconv.FormatInt(*m.GroupingNo, 10)
	}
	fmt.Fprintf(w, "\nMatch: %d  |  Map: %s  |  Region: %s  |  Score: T1 %d – T2 %d  |  %d min  |  Grouping: %s\n\n",
		m.MatchID, m.Map, m.Region, m.Team1Score, m.Team2Score, m.Duration, grouping)
}

// PrintMatchTable prints every participant line of a match. If focus is
// non-zero, that player's row is marked with ">".
func PrintMatchTable(w io.Writer, recs []model.MatchRecord, focus int64) {
	table := newTable(w)
	table.Header(" ", "NAME", "TEAM", "CHAMPION", "K", "D", "A", "CREDITS",
		"DAMAGE", "TAKEN", "OBJ", "SHIELD", "HEALING", "SELF_HEAL")

	for _, r := range recs {
		marker := " "
		if focus != 0 && r.PlayerID == focus {
			marker = ">"
		}
		table.Append(
			marker,
			r.Name,
			r.Team.String(),
			r.Champion,
			strconv.Itoa(r.Kills),
			strconv.Itoa(r.Deaths),
			strconv.Itoa(r.Assists),
			grouped(r.Credits),
			grouped(r.Damage),
			grouped(r.Taken),
			strconv.Itoa(r.ObjectiveTime),
			grouped(r.Shielding),
			grouped(r.Healing),
			grouped(r.SelfHealing),
		)
	}
	table.Render()
}

// PrintMatchList prints stored match headers.
func PrintMatchList(w io.Writer, matches []model.Match) {
	table := newTable(w)
	table.Header("MATCH", "GROUPING", "MAP", "REGION", "SCORE", "MIN", "INGESTED")
	for _, m := range matches {
		grouping := "—"
		if m.GroupingNo != nil {
			grouping = strconv.FormatInt(*m.GroupingNo, 10)
		}
		table.Append(
			strconv.FormatInt(m.MatchID, 10),
			grouping,
			m.Map,
			m.Region,
			fmt.Sprintf("%d–%d", m.Team1Score, m.Team2Score),
			strconv.Itoa(m.Duration),
			m.IngestedAt.Local().Format(dateLayout),
		)
	}
	table.Render()
}

// PrintPlayerStats prints one player's aggregate as a two-column table.
func PrintPlayerStats(w io.Writer, name string, s model.PlayerStats) {
	fmt.Fprintf(w, "\n%s — %d games (%dW/%dL), %d minutes\n\n", name, s.Games, s.Wins, s.Losses, s.Minutes)

	table := newTable(w)
	table.Header("STAT", "TOTAL", "PER MIN", "PER GAME")
	rows := []struct {
		label   string
		total   int
		perMin  float64
		perGame float64
	}{
		{"Kills", s.Kills, s.KillsPerMinute(), s.AvgKills()},
		{"Deaths", s.Deaths, s.DeathsPerMinute(), s.AvgDeaths()},
		{"Assists", s.Assists, s.AssistsPerMinute(), s.AvgAssists()},
		{"Damage", s.Damage, s.DamagePerMinute(), s.AvgDamage()},
		{"Taken", s.Taken, s.TakenPerMinute(), s.AvgTaken()},
		{"Healing", s.Healing, s.HealingPerMinute(), s.AvgHealing()},
		{"Self Healing", s.SelfHealing, s.SelfHealingPerMinute(), s.AvgSelfHealing()},
		{"Shielding", s.Shielding, s.ShieldingPerMinute(), s.AvgShielding()},
		{"Credits", s.Credits, s.CreditsPerMinute(), s.AvgCredits()},
		{"Objective Time", s.ObjectiveTime, s.ObjectivePerMinute(), s.AvgObjective()},
	}
	for _, r := range rows {
		table.Append(r.label, grouped(r.total), f1(r.perMin), f1(r.perGame))
	}
	table.Render()

	fmt.Fprintf(w, "\nWin rate %s  |  KDA %s  |  Kill part. %s  |  Damage share %s  |  Damage delta %s\n",
		pct(s.Winrate()), f2(s.KDA()), pct(s.KillParticipation), pct(s.DamageShare), f1(s.DamageDelta()))
	if s.HealingGames != s.Games {
		fmt.Fprintf(w, "Healing counted over %d support games.\n", s.HealingGames)
	}
}

// PrintChampionTable prints a per-champion breakdown. The win-rate range is
// a 95% Wilson interval so small samples read as uncertain.
func PrintChampionTable(w io.Writer, lines []model.ChampionLine) {
	table := newTable(w)
	table.Header("CHAMPION", "ROLE", "GAMES", "W", "L", "WR%", "WR 95%", "KDA", "DMG/MIN", "HEAL/MIN", "N")
	for _, c := range lines {
		s := c.Stats
		lo, hi := wilsonCI(s.Wins, s.Games)
		role := string(c.Role)
		if role == "" {
			role = "?"
		}
		table.Append(
			c.Champion,
			role,
			strconv.Itoa(s.Games),
			strconv.Itoa(s.Wins),
			strconv.Itoa(s.Losses),
			pct(s.Winrate()),
			fmt.Sprintf("%.0f–%.0f%%", lo*100, hi*100),
			f2(s.KDA()),
			f1(s.DamagePerMinute()),
			f1(s.HealingPerMinute()),
			sampleFlag(s.Games),
		)
	}
	table.Render()
}

// PrintLeaderboard prints ranked entries with the chosen stat's label.
func PrintLeaderboard(w io.Writer, label string, entries []model.RankedEntry) {
	table := newTable(w)
	table.Header("#", "NAME", "GAMES", strings.ToUpper(label), "WR%", "KDA")
	for _, e := range entries {
		table.Append(
			strconv.Itoa(e.Rank),
			e.Name,
			strconv.Itoa(e.Games),
			f2(e.Value),
			pct(e.Stats.Winrate()),
			f2(e.Stats.KDA()),
		)
	}
	table.Render()
}

// PrintHistory prints recent games, newest first.
func PrintHistory(w io.Writer, rows []model.StatRow) {
	table := newTable(w)
	table.Header("DATE", "MATCH", "CHAMPION", "RESULT", "SCORE", "K/D/A", "DAMAGE", "HEALING", "MIN")
	for _, r := range rows {
		result := "L"
		if r.Won() {
			result = "W"
		}
		table.Append(
			r.IngestedAt.Local().Format(dateLayout),
			strconv.FormatInt(r.MatchID, 10),
			r.Champion,
			result,
			fmt.Sprintf("%d–%d", r.Team1Score, r.Team2Score),
			fmt.Sprintf("%d/%d/%d", r.Kills, r.Deaths, r.Assists),
			grouped(r.Damage),
			grouped(r.Healing),
			strconv.Itoa(r.Duration),
		)
	}
	table.Render()
}

// PrintMatchup prints how two players fare together and against each other.
func PrintMatchup(w io.Writer, a, b string, m model.Matchup) {
	table := newTable(w)
	table.Header("", "GAMES", "WINS", fmt.Sprintf("%s WR%%", a))
	table.Append("with "+b, strconv.Itoa(m.WithGames), strconv.Itoa(m.WithWins), pct(m.WithWinrate()))
	table.Append("against "+b, strconv.Itoa(m.AgainstGames), strconv.Itoa(m.AgainstWins), pct(m.AgainstWinrate()))
	table.Render()
}

// PrintIdentities prints players with their handle and aliases.
func PrintIdentities(w io.Writer, players []model.PlayerIdentity) {
	table := newTable(w)
	table.Header("ID", "NAME", "HANDLE", "ALIASES")
	for _, p := range players {
		handle := "—"
		if p.Linked() {
			handle = p.Handle
		}
		table.Append(strconv.FormatInt(p.ID, 10), p.Name, handle, strings.Join(p.Aliases, ", "))
	}
	table.Render()
}

// PrintOverview prints the store-wide summary.
func PrintOverview(w io.Writer, o model.Overview) {
	fmt.Fprintf(w, "\nMatches: %d  |  Players: %d (%d linked)  |  Minutes played: %s\n",
		o.TotalMatches, o.TotalPlayers, o.LinkedPlayers, grouped(o.TotalMinutes))
	if !o.LatestIngestion.IsZero() {
		fmt.Fprintf(w, "Last ingest: %s\n", o.LatestIngestion.Local().Format(dateLayout))
	}
	for _, sec := range []struct {
		title string
		rows  []model.NameCount
	}{
		{"MAP", o.MapCounts},
		{"PLAYER", o.TopPlayers},
		{"CHAMPION", o.TopChampions},
	} {
		if len(sec.rows) == 0 {
			continue
		}
		fmt.Fprintln(w)
		table := newTable(w)
		table.Header(sec.title, "GAMES")
		for _, r := range sec.rows {
			table.Append(r.Name, strconv.Itoa(r.Count))
		}
		table.Render()
	}
}

// PrintRows prints an arbitrary result set.
func PrintRows(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	table.Header(header...)
	for _, r := range rows {
		cells := make([]any, len(r))
		for i, c := range r {
			cells[i] = c
		}
		table.Append(cells...)
	}
	table.Render()
	fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

func sampleFlag(n int) string {
	switch {
	case n < 5:
		return "!"
	case n < 15:
		return "~"
	default:
		return ""
	}
}

// wilsonCI computes the 95% Wilson score confidence interval for a proportion.
// Returns (lo, hi) as fractions in [0, 1].
func wilsonCI(hits, n int) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	z := 1.96
	p := float64(hits) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}
