package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
)

// RowFilter restricts the records returned by StatRows. Zero values mean
// "no restriction".
type RowFilter struct {
	PlayerIDs    []int64
	Champions    []string // exact champion names, case-insensitive
	ChampionLike string   // case-insensitive substring
	LinkedOnly   bool     // only identities with an external handle
	NewestFirst  bool
	Limit        int
}

// teamTotals is the per-match, per-team sum over all five teammates. It is
// joined unfiltered so share metrics always see the whole team.
const teamTotals = `
	SELECT match_id, team, SUM(kills + assists) AS team_ka, SUM(damage) AS team_dmg
	FROM player_match_records
	GROUP BY match_id, team`

func likeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// StatRows returns records joined with their match header and team totals.
func (s queries) StatRows(ctx context.Context, f RowFilter) ([]model.StatRow, error) {
	var (
		where []string
		args  []any
	)
	if len(f.PlayerIDs) > 0 {
		where = append(where, "r.player_id IN ("+placeholders(len(f.PlayerIDs))+")")
		for _, id := range f.PlayerIDs {
			args = append(args, id)
		}
	}
	if len(f.Champions) > 0 {
		where = append(where, "r.champion COLLATE NOCASE IN ("+placeholders(len(f.Champions))+")")
		for _, c := range f.Champions {
			args = append(args, strings.TrimSpace(c))
		}
	}
	if f.ChampionLike != "" {
		where = append(where, `r.champion LIKE ? ESCAPE '\'`)
		args = append(args, likeEscape(strings.TrimSpace(f.ChampionLike)))
	}
	if f.LinkedOnly {
		where = append(where, "p.external_handle IS NOT NULL")
	}

	q := `
		SELECT r.match_id, r.player_id, p.primary_name, r.champion, r.team,
		       m.duration_min, m.team1_score, m.team2_score, m.ingested_at,
		       r.credits, r.kills, r.deaths, r.assists, r.damage, r.taken,
		       r.objective_time, r.shielding, r.healing, r.self_healing,
		       t.team_ka, t.team_dmg
		FROM player_match_records r
		JOIN matches m ON m.match_id = r.match_id
		JOIN players p ON p.player_id = r.player_id
		JOIN (` + teamTotals + `) t ON t.match_id = r.match_id AND t.team = r.team`
	if len(where) > 0 {
		q += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	if f.NewestFirst {
		q += "\n\t\tORDER BY m.ingested_at DESC, r.match_id DESC, r.id"
	} else {
		q += "\n\t\tORDER BY m.ingested_at, r.match_id, r.id"
	}
	if f.Limit > 0 {
		q += "\n\t\tLIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("stat rows: %w", err)
	}
	defer rows.Close()

	var out []model.StatRow
	for rows.Next() {
		var (
			r    model.StatRow
			team int
			at   string
		)
		if err := rows.Scan(&r.MatchID, &r.PlayerID, &r.Name, &r.Champion, &team,
			&r.Duration, &r.Team1Score, &r.Team2Score, &at,
			&r.Credits, &r.Kills, &r.Deaths, &r.Assists, &r.Damage, &r.Taken,
			&r.ObjectiveTime, &r.Shielding, &r.Healing, &r.SelfHealing,
			&r.TeamKillsAssists, &r.TeamDamage); err != nil {
			return nil, err
		}
		r.Team = model.Team(team)
		r.IngestedAt, _ = time.Parse(timeLayout, at)
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryRaw runs a read-only query and returns column names and stringified
// rows. The statement runs with query_only set inside a transaction that is
// always rolled back, so data-modifying CTEs fail and leave nothing behind.
func (db *DB) QueryRaw(ctx context.Context, query string) ([]string, [][]string, error) {
	head := strings.ToUpper(strings.TrimSpace(query))
	if !strings.HasPrefix(head, "SELECT") && !strings.HasPrefix(head, "WITH") {
		return nil, nil, fmt.Errorf("only SELECT queries are allowed")
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		tx.Rollback()
		// query_only is a connection setting and outlives the transaction.
		db.conn.ExecContext(context.Background(), "PRAGMA query_only = OFF")
	}()
	if _, err := tx.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, nil, fmt.Errorf("set query_only: %w", err)
	}
	return scanRaw(ctx, tx, query)
}

func scanRaw(ctx context.Context, q querier, query string) ([]string, [][]string, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	return cols, out, nil
}
