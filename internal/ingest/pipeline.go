// Package ingest stores parsed match reports.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Igor-Kaminski/round-table-bot/internal/identity"
	"github.com/Igor-Kaminski/round-table-bot/internal/metrics"
	"github.com/Igor-Kaminski/round-table-bot/internal/model"
	"github.com/Igor-Kaminski/round-table-bot/internal/parser"
	"github.com/Igor-Kaminski/round-table-bot/internal/storage"
)

// PlayersPerMatch is the number of player lines a stored match must have.
const PlayersPerMatch = 2 * parser.TeamSize

var (
	ErrDuplicateMatch    = errors.New("match already recorded")
	ErrDuplicateGrouping = errors.New("grouping number already used")
	ErrPlayerCount       = fmt.Errorf("report must list exactly %d players", PlayersPerMatch)
	ErrRepeatedPlayer    = errors.New("report lists the same player twice")
)

// Options tunes the pipeline.
type Options struct {
	// GroupByMatchID uses the match id as grouping number when none is given.
	GroupByMatchID bool
}

// Result describes a stored match.
type Result struct {
	MatchID  int64
	Grouping *int64
	Created  []string // names that created a new identity
	ViaAlias []string // names resolved through an alias
	Unlinked []string // names whose identity has no external handle
}

// Pipeline parses, checks and stores match reports.
type Pipeline struct {
	db      *storage.DB
	log     *log.Logger
	metrics *metrics.Ingest
	opts    Options
	now     func() time.Time
}

// New returns a pipeline writing to db. logger and m may be nil.
func New(db *storage.DB, logger *log.Logger, m *metrics.Ingest, opts Options) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{db: db, log: logger, metrics: m, opts: opts, now: time.Now}
}

// Ingest parses raw and stores it. grouping may be nil.
func (p *Pipeline) Ingest(ctx context.Context, raw string, grouping *int64) (*Result, error) {
	rep, err := parser.Parse(raw)
	if err != nil {
		p.metrics.Observe(metrics.ResultMalformed, 0, 0)
		p.log.Warn("rejected malformed report", "error", err)
		return nil, err
	}
	return p.Submit(ctx, rep, grouping)
}

// Submit stores an already parsed report. Duplicate checks run before any
// identity is resolved; identities, the match and its records are written in
// one transaction, so a rejected or failed submit leaves the store unchanged.
func (p *Pipeline) Submit(ctx context.Context, rep *model.Report, grouping *int64) (*Result, error) {
	logger := p.log.With("ingest_id", uuid.NewString(), "match_id", rep.MatchID)

	if len(rep.Players) != PlayersPerMatch {
		p.metrics.Observe(metrics.ResultMalformed, 0, 0)
		logger.Warn("rejected report", "players", len(rep.Players))
		return nil, fmt.Errorf("%w: got %d", ErrPlayerCount, len(rep.Players))
	}
	if grouping == nil && p.opts.GroupByMatchID {
		g := rep.MatchID
		grouping = &g
	}
	if grouping != nil {
		logger = logger.With("grouping", *grouping)
	}

	res := &Result{MatchID: rep.MatchID, Grouping: grouping}
	err := p.db.WithTx(ctx, func(tx *storage.Tx) error {
		exists, err := tx.MatchExists(ctx, rep.MatchID)
		if err != nil {
			return fmt.Errorf("check match: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: %d", ErrDuplicateMatch, rep.MatchID)
		}
		if grouping != nil {
			exists, err := tx.GroupingExists(ctx, *grouping)
			if err != nil {
				return fmt.Errorf("check grouping: %w", err)
			}
			if exists {
				return fmt.Errorf("%w: %d", ErrDuplicateGrouping, *grouping)
			}
		}

		names := make([]string, len(rep.Players))
		for i, pl := range rep.Players {
			names[i] = pl.Name
		}
		plan, err := identity.New(tx).Stage(ctx, names)
		if err != nil {
			return fmt.Errorf("resolve players: %w", err)
		}

		err = tx.InsertMatch(ctx, model.Match{
			MatchID:    rep.MatchID,
			GroupingNo: grouping,
			Duration:   rep.Duration,
			Region:     rep.Region,
			Map:        rep.Map,
			Team1Score: rep.Team1Score,
			Team2Score: rep.Team2Score,
			IngestedAt: p.now(),
		})
		switch {
		case errors.Is(err, storage.ErrMatchExists):
			return fmt.Errorf("%w: %d", ErrDuplicateMatch, rep.MatchID)
		case errors.Is(err, storage.ErrGroupingExists):
			return fmt.Errorf("%w: %d", ErrDuplicateGrouping, *grouping)
		case err != nil:
			return fmt.Errorf("insert match: %w", err)
		}

		ids, err := plan.Commit(ctx, tx)
		if err != nil {
			return err
		}
		seen := make(map[int64]string, len(ids))
		recs := make([]model.MatchRecord, len(ids))
		for i, id := range ids {
			if prev, dup := seen[id]; dup {
				return fmt.Errorf("%w: %q and %q", ErrRepeatedPlayer, prev, names[i])
			}
			seen[id] = names[i]
			recs[i] = model.MatchRecord{MatchID: rep.MatchID, PlayerID: id, PlayerLine: rep.Players[i]}
		}
		if err := tx.InsertRecords(ctx, recs); err != nil {
			return err
		}

		res.Created = plan.NewNames()
		for _, r := range plan.Resolutions {
			if r.ViaAlias {
				res.ViaAlias = append(res.ViaAlias, r.Name)
			}
			if !r.Identity.Linked() {
				res.Unlinked = append(res.Unlinked, r.Name)
			}
		}
		return nil
	})
	if err != nil {
		p.metrics.Observe(outcome(err), 0, 0)
		logger.Error("ingest failed", "error", err)
		return nil, err
	}

	p.metrics.Observe(metrics.ResultStored, PlayersPerMatch, len(res.Created))
	logger.Info("match stored", "new_players", len(res.Created), "unlinked", len(res.Unlinked))
	return res, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateMatch):
		return metrics.ResultDuplicateMatch
	case errors.Is(err, ErrDuplicateGrouping):
		return metrics.ResultDuplicateGrouping
	case errors.Is(err, ErrRepeatedPlayer):
		return metrics.ResultMalformed
	default:
		return metrics.ResultError
	}
}
