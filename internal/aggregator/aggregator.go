package aggregator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
	"github.com/Igor-Kaminski/round-table-bot/internal/roles"
	"github.com/Igor-Kaminski/round-table-bot/internal/storage"
)

// MaxHistory caps History listings.
const MaxHistory = 20

// Filter scopes the records an aggregate is computed over. Champions and
// Roles combine as a union of champion names.
type Filter struct {
	Champions []string
	Roles     []model.Role
}

// Empty reports whether no scope was requested.
func (f Filter) Empty() bool { return len(f.Champions) == 0 && len(f.Roles) == 0 }

// Compute aggregates rows. With supportHealing set, healing totals only
// count rows played on support champions. It returns nil for no rows.
func Compute(rows []model.StatRow, supportHealing bool) *model.PlayerStats {
	if len(rows) == 0 {
		return nil
	}
	s := &model.PlayerStats{}
	var kp, ds float64
	for _, r := range rows {
		s.Games++
		if r.Won() {
			s.Wins++
		} else {
			s.Losses++
		}
		s.Minutes += r.Duration
		s.Kills += r.Kills
		s.Deaths += r.Deaths
		s.Assists += r.Assists
		s.Damage += r.Damage
		s.Taken += r.Taken
		s.Credits += r.Credits
		s.ObjectiveTime += r.ObjectiveTime
		s.Shielding += r.Shielding
		s.SelfHealing += r.SelfHealing

		if !supportHealing || r.Role == model.RoleSupport {
			s.Healing += r.Healing
			s.HealingGames++
			s.HealingMinutes += r.Duration
		}

		kp += float64(r.Kills+r.Assists) * 100 / float64(max(1, r.TeamKillsAssists))
		ds += float64(r.Damage) * 100 / float64(max(1, r.TeamDamage))
	}
	s.KillParticipation = kp / float64(s.Games)
	s.DamageShare = ds / float64(s.Games)
	return s
}

// Engine answers per-player questions from stored records.
type Engine struct {
	db    *storage.DB
	roles *roles.Table
}

// New returns an Engine reading from db and classifying champions with tbl.
func New(db *storage.DB, tbl *roles.Table) *Engine {
	return &Engine{db: db, roles: tbl}
}

// Roles returns the champion table the engine was built with.
func (e *Engine) Roles() *roles.Table { return e.roles }

// ChampionSet expands f into the champion names it covers. ok is false when
// the filter is non-empty but covers nothing.
func (e *Engine) ChampionSet(f Filter) (names []string, ok bool) {
	if f.Empty() {
		return nil, true
	}
	seen := make(map[string]bool)
	add := func(c string) {
		if canon, known := e.roles.Canonical(c); known {
			c = canon
		}
		k := model.FoldName(c)
		if k != "" && !seen[k] {
			seen[k] = true
			names = append(names, c)
		}
	}
	for _, c := range f.Champions {
		add(c)
	}
	for _, r := range f.Roles {
		for _, c := range e.roles.Champions(r) {
			add(c)
		}
	}
	return names, len(names) > 0
}

// Annotate fills in each row's role class.
func (e *Engine) Annotate(rows []model.StatRow) {
	for i := range rows {
		rows[i].Role, _ = e.roles.RoleOf(rows[i].Champion)
	}
}

// Rows loads the annotated rows matching rf, narrowed to the champions f covers.
func (e *Engine) Rows(ctx context.Context, rf storage.RowFilter, f Filter) ([]model.StatRow, error) {
	champs, ok := e.ChampionSet(f)
	if !ok {
		return nil, nil
	}
	rf.Champions = champs
	rows, err := e.db.StatRows(ctx, rf)
	if err != nil {
		return nil, err
	}
	e.Annotate(rows)
	return rows, nil
}

// PlayerStats aggregates one player's records. It returns nil when no record
// qualifies. Without a filter, healing only counts support matches.
func (e *Engine) PlayerStats(ctx context.Context, playerID int64, f Filter) (*model.PlayerStats, error) {
	rows, err := e.Rows(ctx, storage.RowFilter{PlayerIDs: []int64{playerID}}, f)
	if err != nil {
		return nil, fmt.Errorf("player stats: %w", err)
	}
	return Compute(rows, f.Empty()), nil
}

// Champion sort orders for ChampionStats.
const (
	SortGames   = "games"
	SortKDA     = "kda"
	SortWinrate = "winrate"
)

// ChampionStats breaks a player's records down per champion.
func (e *Engine) ChampionStats(ctx context.Context, playerID int64, sortBy string) ([]model.ChampionLine, error) {
	rows, err := e.Rows(ctx, storage.RowFilter{PlayerIDs: []int64{playerID}}, Filter{})
	if err != nil {
		return nil, fmt.Errorf("champion stats: %w", err)
	}
	groups := lo.GroupBy(rows, func(r model.StatRow) string { return model.FoldName(r.Champion) })

	out := make([]model.ChampionLine, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.ChampionLine{
			Champion: g[0].Champion,
			Role:     g[0].Role,
			Stats:    *Compute(g, false),
		})
	}

	metric := func(c model.ChampionLine) float64 { return float64(c.Stats.Games) }
	switch strings.ToLower(sortBy) {
	case SortKDA:
		metric = func(c model.ChampionLine) float64 { return c.Stats.KDA() }
	case SortWinrate:
		metric = func(c model.ChampionLine) float64 { return c.Stats.Winrate() }
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ma, mb := metric(a), metric(b); ma != mb {
			return ma > mb
		}
		if a.Stats.Games != b.Stats.Games {
			return a.Stats.Games > b.Stats.Games
		}
		return a.Champion < b.Champion
	})
	return out, nil
}

// Compare counts the matches two players shared, split by whether they were
// teammates or opponents. Wins are counted for playerA.
func (e *Engine) Compare(ctx context.Context, playerA, playerB int64) (model.Matchup, error) {
	var m model.Matchup
	shared, err := e.db.SharedMatches(ctx, playerA, playerB)
	if err != nil {
		return m, fmt.Errorf("compare: %w", err)
	}
	for _, s := range shared {
		won := model.Won(s.TeamA, s.Team1Score, s.Team2Score)
		if s.TeamA == s.TeamB {
			m.WithGames++
			if won {
				m.WithWins++
			}
			continue
		}
		m.AgainstGames++
		if won {
			m.AgainstWins++
		}
	}
	return m, nil
}

// History returns a player's most recent records, newest first. limit is
// clamped to 1..MaxHistory.
func (e *Engine) History(ctx context.Context, playerID int64, limit int) ([]model.StatRow, error) {
	limit = max(1, min(limit, MaxHistory))
	rows, err := e.Rows(ctx, storage.RowFilter{
		PlayerIDs:   []int64{playerID},
		NewestFirst: true,
		Limit:       limit,
	}, Filter{})
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return rows, nil
}
