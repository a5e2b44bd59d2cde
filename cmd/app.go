package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Igor-Kaminski/round-table-bot/internal/aggregator"
	"github.com/Igor-Kaminski/round-table-bot/internal/identity"
	"github.com/Igor-Kaminski/round-table-bot/internal/ingest"
	"github.com/Igor-Kaminski/round-table-bot/internal/leaderboard"
	"github.com/Igor-Kaminski/round-table-bot/internal/metrics"
	"github.com/Igor-Kaminski/round-table-bot/internal/model"
	"github.com/Igor-Kaminski/round-table-bot/internal/roles"
	"github.com/Igor-Kaminski/round-table-bot/internal/storage"
)

// app bundles the store and the engines built on it for one command run.
type app struct {
	db       *storage.DB
	roles    *roles.Table
	registry *prometheus.Registry
	dir      *identity.Directory
	pipe     *ingest.Pipeline
	agg      *aggregator.Engine
	board    *leaderboard.Engine
}

func openApp() (*app, error) {
	if err := ensureDBDir(); err != nil {
		return nil, err
	}
	tbl, err := roles.Load(cfg.RolesFile)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	logger.Debug("opened store", "path", dbPath)

	reg := prometheus.NewRegistry()
	agg := aggregator.New(db, tbl)
	return &app{
		db:       db,
		roles:    tbl,
		registry: reg,
		dir:      identity.NewDirectory(db),
		pipe: ingest.New(db, logger, metrics.NewIngest(reg), ingest.Options{
			GroupByMatchID: cfg.Ingest.GroupByMatchID,
		}),
		agg: agg,
		board: leaderboard.New(agg, leaderboard.Limits{
			DefaultLimit:    cfg.Leaderboard.DefaultLimit,
			MaxLimit:        cfg.Leaderboard.MaxLimit,
			DefaultMinGames: cfg.Leaderboard.DefaultMinGames,
		}),
	}, nil
}

func (a *app) Close() error { return a.db.Close() }

// findPlayer resolves a name, alias or external handle to an identity.
// "#<id>" selects a player by the ID shown in 'roundtable players'.
func (a *app) findPlayer(ctx context.Context, who string) (*model.PlayerIdentity, error) {
	if rest, ok := strings.CutPrefix(who, "#"); ok {
		if id, err := strconv.ParseInt(rest, 10, 64); err == nil {
			p, err := a.db.PlayerByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if p == nil {
				return nil, fmt.Errorf("no player with id %d", id)
			}
			return p, nil
		}
	}
	p, err := a.dir.Lookup(ctx, who)
	if err != nil {
		return nil, err
	}
	if p == nil {
		if p, err = a.dir.ByHandle(ctx, who); err != nil {
			return nil, err
		}
	}
	if p == nil {
		return nil, fmt.Errorf("no player named %q", who)
	}
	return p, nil
}

// filterFrom turns --champ and --role flag values into an aggregation filter.
func (a *app) filterFrom(champs []string, role string) (aggregator.Filter, error) {
	f := aggregator.Filter{Champions: champs}
	if role != "" {
		r, ok := a.roles.ResolveRole(role)
		if !ok {
			return f, fmt.Errorf("unknown role %q (valid: damage, flank, tank, support)", role)
		}
		f.Roles = []model.Role{r}
	}
	return f, nil
}
