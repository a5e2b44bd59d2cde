package aggregator

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/Igor-Kaminski/round-table-bot/internal/ingest"
	"github.com/Igor-Kaminski/round-table-bot/internal/model"
	"github.com/Igor-Kaminski/round-table-bot/internal/roles"
	"github.com/Igor-Kaminski/round-table-bot/internal/storage"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// row builds a StatRow on team 1 of a match team 1 won 4-2.
func row(champ string, role model.Role, k, d, a, minutes int) model.StatRow {
	return model.StatRow{
		Champion: champ, Role: role, Team: model.Team1,
		Team1Score: 4, Team2Score: 2, Duration: minutes,
		Kills: k, Deaths: d, Assists: a,
		TeamKillsAssists: 50, TeamDamage: 100000,
	}
}

// ---- Compute ----

func TestComputeRoundTrip(t *testing.T) {
	s := Compute([]model.StatRow{row("Ash", model.RoleTank, 10, 5, 5, 20)}, false)
	if s == nil {
		t.Fatal("expected stats")
	}
	if s.KillsPerMinute() != 0.5 {
		t.Errorf("kills/min = %v, want 0.5", s.KillsPerMinute())
	}
	if s.KDA() != 3.0 {
		t.Errorf("kda = %v, want 3.0", s.KDA())
	}
	if s.Games != 1 || s.Wins != 1 || s.Winrate() != 100 {
		t.Errorf("games/wins = %d/%d", s.Games, s.Wins)
	}
}

func TestComputeNoRows(t *testing.T) {
	if s := Compute(nil, true); s != nil {
		t.Errorf("expected nil for no rows, got %+v", s)
	}
}

func TestComputeFloorsDenominators(t *testing.T) {
	r := row("Ash", model.RoleTank, 4, 0, 2, 0)
	r.TeamKillsAssists = 0
	r.TeamDamage = 0
	r.Damage = 300
	s := Compute([]model.StatRow{r}, false)

	if s.KDA() != 6 {
		t.Errorf("kda with zero deaths = %v, want 6", s.KDA())
	}
	if s.KillsPerMinute() != 4 {
		t.Errorf("kills/min with zero minutes = %v, want 4", s.KillsPerMinute())
	}
	if s.KillParticipation != 600 || s.DamageShare != 30000 {
		t.Errorf("shares with zero team totals = %v, %v", s.KillParticipation, s.DamageShare)
	}
}

func TestComputeWinRule(t *testing.T) {
	mk := func(team model.Team, t1, t2 int) model.StatRow {
		r := row("Ash", model.RoleTank, 1, 1, 1, 10)
		r.Team, r.Team1Score, r.Team2Score = team, t1, t2
		return r
	}
	tests := []struct {
		name string
		rows []model.StatRow
		wins int
	}{
		{"team1 wins", []model.StatRow{mk(model.Team1, 40, 35)}, 1},
		{"team2 loses", []model.StatRow{mk(model.Team2, 40, 35)}, 0},
		{"team2 wins", []model.StatRow{mk(model.Team2, 1, 4)}, 1},
		{"tie is a loss for both", []model.StatRow{mk(model.Team1, 3, 3), mk(model.Team2, 3, 3)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Compute(tt.rows, false)
			if s.Wins != tt.wins || s.Losses != len(tt.rows)-tt.wins {
				t.Errorf("wins/losses = %d/%d, want %d/%d", s.Wins, s.Losses, tt.wins, len(tt.rows)-tt.wins)
			}
		})
	}
}

func TestComputeAveragesAndShares(t *testing.T) {
	a := row("Ash", model.RoleTank, 10, 2, 10, 20)
	a.Damage, a.Taken = 50000, 30000
	a.TeamKillsAssists, a.TeamDamage = 40, 200000 // kp 50%, ds 25%
	b := row("Ash", model.RoleTank, 0, 8, 10, 10)
	b.Damage, b.Taken = 10000, 50000
	b.TeamKillsAssists, b.TeamDamage = 100, 100000 // kp 10%, ds 10%

	s := Compute([]model.StatRow{a, b}, false)
	if s.AvgDamage() != 30000 || s.AvgTaken() != 40000 || s.DamageDelta() != -10000 {
		t.Errorf("averages: dmg %v taken %v delta %v", s.AvgDamage(), s.AvgTaken(), s.DamageDelta())
	}
	if !approx(s.KillParticipation, 30) {
		t.Errorf("kill participation = %v, want 30", s.KillParticipation)
	}
	if !approx(s.DamageShare, 17.5) {
		t.Errorf("damage share = %v, want 17.5", s.DamageShare)
	}
	if !approx(s.DamagePerMinute(), 2000) {
		t.Errorf("damage/min = %v, want 2000", s.DamagePerMinute())
	}
}

func TestComputeSupportHealingDefault(t *testing.T) {
	sup := row("Grover", model.RoleSupport, 1, 1, 1, 10)
	sup.Healing = 20000
	dmg := row("Viktor", model.RoleDamage, 1, 1, 1, 30)
	dmg.Healing = 5000

	def := Compute([]model.StatRow{sup, dmg}, true)
	if def.Healing != 20000 || def.HealingGames != 1 || def.HealingMinutes != 10 {
		t.Errorf("default healing scope = %d over %d games/%d min", def.Healing, def.HealingGames, def.HealingMinutes)
	}
	if def.HealingPerMinute() != 2000 || def.AvgHealing() != 20000 {
		t.Errorf("default healing rates = %v/min, %v avg", def.HealingPerMinute(), def.AvgHealing())
	}
	if def.Games != 2 || def.Minutes != 40 {
		t.Errorf("non-healing metrics must keep every row, got %d games", def.Games)
	}

	explicit := Compute([]model.StatRow{sup, dmg}, false)
	if explicit.Healing != 25000 || explicit.HealingGames != 2 {
		t.Errorf("explicit healing scope = %d over %d games", explicit.Healing, explicit.HealingGames)
	}

	noSupport := Compute([]model.StatRow{dmg}, true)
	if noSupport.HealingPerMinute() != 0 || noSupport.AvgHealing() != 0 {
		t.Errorf("no support rows should yield zero healing, got %v", noSupport.HealingPerMinute())
	}
}

// ---- Engine ----

type lineup struct {
	name  string
	champ string
	kills int
}

func report(matchID int64, t1, t2, minutes int, players []lineup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d, %d, EU, Jaguar Falls, %d, %d\n", matchID, minutes, t1, t2)
	for _, p := range players {
		fmt.Fprintf(&b, "['%s', '%s', 'T', '1', '%d/2/4', '800', '40,000', '20,000', '60', '0', '10,000', '0']\n",
			p.name, p.champ, p.kills)
	}
	return b.String()
}

func defaultLineup() []lineup {
	return []lineup{
		{"Alpha", "Ash", 5}, {"Bravo", "Grover", 1}, {"Charlie", "Viktor", 12}, {"Delta", "Androxus", 8}, {"Echo", "Io", 2},
		{"Foxtrot", "Makoa", 3}, {"Golf", "Seris", 1}, {"Hotel", "Lian", 10}, {"India", "Evie", 6}, {"Juliet", "Pip", 2},
	}
}

func newEngine(t *testing.T) (*Engine, *storage.DB, *ingest.Pipeline) {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, roles.Default()), db, ingest.New(db, nil, nil, ingest.Options{})
}

func mustIngest(t *testing.T, p *ingest.Pipeline, text string) {
	t.Helper()
	if _, err := p.Ingest(context.Background(), text, nil); err != nil {
		t.Fatalf("ingest: %v", err)
	}
}

func playerID(t *testing.T, db *storage.DB, name string) int64 {
	t.Helper()
	p, err := db.PlayerByName(context.Background(), name)
	if err != nil || p == nil {
		t.Fatalf("player %q: %v", name, err)
	}
	return p.ID
}

func TestEngineEveryPlayerHasOneGame(t *testing.T) {
	e, db, pipe := newEngine(t)
	ctx := context.Background()
	mustIngest(t, pipe, report(111111111, 40, 35, 20, defaultLineup()))

	for i, l := range defaultLineup() {
		s, err := e.PlayerStats(ctx, playerID(t, db, l.name), Filter{})
		if err != nil {
			t.Fatalf("PlayerStats(%s): %v", l.name, err)
		}
		if s == nil || s.Games != 1 {
			t.Fatalf("%s: expected exactly one game, got %+v", l.name, s)
		}
		wantWin := i < 5
		if (s.Wins == 1) != wantWin {
			t.Errorf("%s: wins = %d, want win=%v", l.name, s.Wins, wantWin)
		}
	}
}

func TestEngineFilters(t *testing.T) {
	e, db, pipe := newEngine(t)
	ctx := context.Background()

	mustIngest(t, pipe, report(222222221, 4, 1, 20, defaultLineup()))
	swapped := defaultLineup()
	swapped[0].champ = "Jenos" // Alpha on a support
	mustIngest(t, pipe, report(222222222, 1, 4, 10, swapped))

	alpha := playerID(t, db, "Alpha")

	all, _ := e.PlayerStats(ctx, alpha, Filter{})
	if all.Games != 2 || all.Wins != 1 {
		t.Fatalf("unfiltered = %+v", all)
	}
	// Healing defaults to the support game only.
	if all.HealingGames != 1 || all.HealingMinutes != 10 {
		t.Errorf("default healing scope = %d games/%d min, want 1/10", all.HealingGames, all.HealingMinutes)
	}

	ash, _ := e.PlayerStats(ctx, alpha, Filter{Champions: []string{"ash"}})
	if ash == nil || ash.Games != 1 || ash.Wins != 1 || ash.HealingGames != 1 || ash.HealingMinutes != 20 {
		t.Errorf("champion filter = %+v", ash)
	}

	sup, _ := e.PlayerStats(ctx, alpha, Filter{Roles: []model.Role{model.RoleSupport}})
	if sup == nil || sup.Games != 1 || sup.Wins != 0 {
		t.Errorf("role filter = %+v", sup)
	}

	union, _ := e.PlayerStats(ctx, alpha, Filter{Champions: []string{"Ash"}, Roles: []model.Role{model.RoleSupport}})
	if union == nil || union.Games != 2 {
		t.Errorf("champion+role union = %+v", union)
	}

	none, err := e.PlayerStats(ctx, alpha, Filter{Champions: []string{"Khan"}})
	if err != nil || none != nil {
		t.Errorf("unplayed champion = %+v, %v; want nil", none, err)
	}
	unknown, err := e.PlayerStats(ctx, 9999, Filter{})
	if err != nil || unknown != nil {
		t.Errorf("unknown player = %+v, %v; want nil", unknown, err)
	}
}

func TestEngineTeamTotalsIgnoreFilter(t *testing.T) {
	e, db, pipe := newEngine(t)
	ctx := context.Background()
	mustIngest(t, pipe, report(333333333, 4, 1, 20, defaultLineup()))

	// Team 1 kills 5+1+12+8+2 = 28, assists 4 each: team k+a = 48.
	charlie := playerID(t, db, "Charlie")
	s, _ := e.PlayerStats(ctx, charlie, Filter{Champions: []string{"Viktor"}})
	if want := 16.0 * 100 / 48; !approx(s.KillParticipation, want) {
		t.Errorf("kill participation = %v, want %v", s.KillParticipation, want)
	}
	if !approx(s.DamageShare, 20) {
		t.Errorf("damage share = %v, want 20", s.DamageShare)
	}
}

func TestEngineChampionStats(t *testing.T) {
	e, db, pipe := newEngine(t)
	ctx := context.Background()

	mustIngest(t, pipe, report(444444441, 4, 1, 20, defaultLineup()))
	mustIngest(t, pipe, report(444444442, 4, 1, 20, defaultLineup()))
	l := defaultLineup()
	l[0].champ = "Inara"
	l[0].kills = 30
	mustIngest(t, pipe, report(444444443, 1, 4, 20, l))

	alpha := playerID(t, db, "Alpha")
	byGames, err := e.ChampionStats(ctx, alpha, SortGames)
	if err != nil {
		t.Fatalf("ChampionStats: %v", err)
	}
	if len(byGames) != 2 || byGames[0].Champion != "Ash" || byGames[0].Stats.Games != 2 {
		t.Fatalf("by games = %+v", byGames)
	}
	if byGames[0].Role != model.RoleTank {
		t.Errorf("role = %q, want Tank", byGames[0].Role)
	}

	byKDA, _ := e.ChampionStats(ctx, alpha, SortKDA)
	if byKDA[0].Champion != "Inara" {
		t.Errorf("by kda first = %s, want Inara", byKDA[0].Champion)
	}
	byWR, _ := e.ChampionStats(ctx, alpha, SortWinrate)
	if byWR[0].Champion != "Ash" {
		t.Errorf("by winrate first = %s, want Ash", byWR[0].Champion)
	}
}

func TestEngineCompareAndHistory(t *testing.T) {
	e, db, pipe := newEngine(t)
	ctx := context.Background()

	mustIngest(t, pipe, report(555555551, 4, 1, 20, defaultLineup()))
	l := defaultLineup()
	l[1], l[6] = l[6], l[1] // Bravo moves to team 2
	mustIngest(t, pipe, report(555555552, 4, 1, 20, l))
	mustIngest(t, pipe, report(555555553, 1, 4, 20, l))

	alpha, bravo := playerID(t, db, "Alpha"), playerID(t, db, "Bravo")
	m, err := e.Compare(ctx, alpha, bravo)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if m.WithGames != 1 || m.WithWins != 1 || m.AgainstGames != 2 || m.AgainstWins != 1 {
		t.Errorf("matchup = %+v", m)
	}
	if m.AgainstWinrate() != 50 {
		t.Errorf("against winrate = %v", m.AgainstWinrate())
	}

	hist, err := e.History(ctx, alpha, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("history len = %d, want 2", len(hist))
	}
	if hist[0].IngestedAt.Before(hist[1].IngestedAt) {
		t.Error("history must be newest first")
	}

	all, _ := e.History(ctx, alpha, 500)
	if len(all) != 3 {
		t.Errorf("clamped history len = %d, want 3", len(all))
	}
	one, _ := e.History(ctx, alpha, 0)
	if len(one) != 1 {
		t.Errorf("history with limit 0 = %d rows, want 1", len(one))
	}
}
