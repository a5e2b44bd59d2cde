// Package leaderboard ranks players and champions by a chosen stat.
package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/samber/lo"

	"github.com/Igor-Kaminski/round-table-bot/internal/aggregator"
	"github.com/Igor-Kaminski/round-table-bot/internal/model"
	"github.com/Igor-Kaminski/round-table-bot/internal/storage"
)

// Limits bound a leaderboard's length and entry threshold.
type Limits struct {
	DefaultLimit    int
	MaxLimit        int
	DefaultMinGames int
}

// DefaultLimits are used when a zero Limits is passed to New.
var DefaultLimits = Limits{DefaultLimit: 20, MaxLimit: 50, DefaultMinGames: 1}

// Query selects and orders a leaderboard.
type Query struct {
	Stat     StatKey
	Limit    int
	Bottom   bool   // ascending order, worst first
	Champion string // case-insensitive substring; players only
	Role     string // role name or alias
	MinGames int
	// LinkedOnly drops identities without an external handle.
	LinkedOnly bool
}

// Engine computes leaderboards from stored records.
type Engine struct {
	agg    *aggregator.Engine
	limits Limits
}

// New returns an Engine reading through agg.
func New(agg *aggregator.Engine, limits Limits) *Engine {
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = DefaultLimits.DefaultLimit
	}
	if limits.MaxLimit <= 0 {
		limits.MaxLimit = DefaultLimits.MaxLimit
	}
	if limits.DefaultMinGames <= 0 {
		limits.DefaultMinGames = DefaultLimits.DefaultMinGames
	}
	return &Engine{agg: agg, limits: limits}
}

// scope turns the query's filters into a row filter and a role filter.
// ok is false when the role text names no known role.
func (e *Engine) scope(q Query) (rf storage.RowFilter, f aggregator.Filter, ok bool) {
	rf = storage.RowFilter{ChampionLike: q.Champion, LinkedOnly: q.LinkedOnly}
	switch {
	case q.Role != "":
		role, known := e.agg.Roles().ResolveRole(q.Role)
		if !known {
			return rf, f, false
		}
		f.Roles = []model.Role{role}
	case q.Champion == "" && q.Stat.Healing():
		f.Roles = []model.Role{model.RoleSupport}
	}
	return rf, f, true
}

// Players ranks identities by q.Stat over the records matching q's filters.
func (e *Engine) Players(ctx context.Context, q Query) ([]model.RankedEntry, error) {
	if !q.Stat.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStat, q.Stat)
	}
	rf, f, ok := e.scope(q)
	if !ok {
		return nil, nil
	}
	rows, err := e.agg.Rows(ctx, rf, f)
	if err != nil {
		return nil, fmt.Errorf("player leaderboard: %w", err)
	}

	groups := lo.GroupBy(rows, func(r model.StatRow) int64 { return r.PlayerID })
	entries := make([]model.RankedEntry, 0, len(groups))
	for id, g := range groups {
		s := aggregator.Compute(g, false)
		entries = append(entries, model.RankedEntry{
			Key:   strconv.FormatInt(id, 10),
			Name:  g[0].Name,
			Games: s.Games,
			Value: q.Stat.Value(*s),
			Stats: *s,
		})
	}
	return e.rank(entries, q), nil
}

// Champions ranks champions by q.Stat over every stored record of each.
// q.Champion is ignored.
func (e *Engine) Champions(ctx context.Context, q Query) ([]model.RankedEntry, error) {
	if !q.Stat.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStat, q.Stat)
	}
	q.Champion = ""
	rf, f, ok := e.scope(q)
	if !ok {
		return nil, nil
	}
	rows, err := e.agg.Rows(ctx, rf, f)
	if err != nil {
		return nil, fmt.Errorf("champion leaderboard: %w", err)
	}

	groups := lo.GroupBy(rows, func(r model.StatRow) string { return model.FoldName(r.Champion) })
	entries := make([]model.RankedEntry, 0, len(groups))
	for key, g := range groups {
		name := g[0].Champion
		if canon, known := e.agg.Roles().Canonical(name); known {
			name = canon
		}
		s := aggregator.Compute(g, false)
		entries = append(entries, model.RankedEntry{
			Key:   key,
			Name:  name,
			Games: s.Games,
			Value: q.Stat.Value(*s),
			Stats: *s,
		})
	}
	return e.rank(entries, q), nil
}

// rank drops entries under the games threshold, orders the rest and assigns
// positions. Ties on value go to more games, then to name.
func (e *Engine) rank(entries []model.RankedEntry, q Query) []model.RankedEntry {
	minGames := q.MinGames
	if minGames <= 0 {
		minGames = e.limits.DefaultMinGames
	}
	limit := q.Limit
	if limit <= 0 {
		limit = e.limits.DefaultLimit
	}
	limit = min(limit, e.limits.MaxLimit)

	entries = lo.Filter(entries, func(x model.RankedEntry, _ int) bool { return x.Games >= minGames })
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Value != b.Value {
			if q.Bottom {
				return a.Value < b.Value
			}
			return a.Value > b.Value
		}
		if a.Games != b.Games {
			return a.Games > b.Games
		}
		if fa, fb := model.FoldName(a.Name), model.FoldName(b.Name); fa != fb {
			return fa < fb
		}
		return a.Key < b.Key
	})

	total := len(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].Standing = i + 1
		if q.Bottom {
			entries[i].Standing = total - i
		}
	}
	return entries
}
