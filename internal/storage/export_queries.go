package storage

import (
	"context"
	"fmt"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
)

// SharedMatch is a match both compared players took part in.
type SharedMatch struct {
	MatchID    int64
	TeamA      model.Team
	TeamB      model.Team
	Team1Score int
	Team2Score int
}

// SharedMatches returns every match in which both players have a record,
// oldest first.
func (s queries) SharedMatches(ctx context.Context, playerA, playerB int64) ([]SharedMatch, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT m.match_id, a.team, b.team, m.team1_score, m.team2_score
		FROM player_match_records a
		JOIN player_match_records b ON b.match_id = a.match_id AND b.player_id = ?
		JOIN matches m ON m.match_id = a.match_id
		WHERE a.player_id = ?
		ORDER BY m.ingested_at, m.match_id`, playerB, playerA)
	if err != nil {
		return nil, fmt.Errorf("shared matches: %w", err)
	}
	defer rows.Close()

	var out []SharedMatch
	for rows.Next() {
		var sm SharedMatch
		var ta, tb int
		if err := rows.Scan(&sm.MatchID, &ta, &tb, &sm.Team1Score, &sm.Team2Score); err != nil {
			return nil, err
		}
		sm.TeamA, sm.TeamB = model.Team(ta), model.Team(tb)
		out = append(out, sm)
	}
	return out, rows.Err()
}

// PlayerTotals holds summed raw counters for one identity, used by exports.
type PlayerTotals struct {
	PlayerID int64
	Name     string
	Handle   string
	Games    int
	Minutes  int
	Kills    int
	Deaths   int
	Assists  int
	Damage   int
	Taken    int
	Healing  int
}

// RosterTotals sums every stored record per identity, most games first.
func (s queries) RosterTotals(ctx context.Context) ([]PlayerTotals, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT p.player_id, p.primary_name, COALESCE(p.external_handle, ''),
		       COUNT(1), SUM(m.duration_min),
		       SUM(r.kills), SUM(r.deaths), SUM(r.assists),
		       SUM(r.damage), SUM(r.taken), SUM(r.healing)
		FROM player_match_records r
		JOIN players p ON p.player_id = r.player_id
		JOIN matches m ON m.match_id = r.match_id
		GROUP BY p.player_id
		ORDER BY COUNT(1) DESC, p.name_key`)
	if err != nil {
		return nil, fmt.Errorf("roster totals: %w", err)
	}
	defer rows.Close()

	var out []PlayerTotals
	for rows.Next() {
		var t PlayerTotals
		if err := rows.Scan(&t.PlayerID, &t.Name, &t.Handle, &t.Games, &t.Minutes,
			&t.Kills, &t.Deaths, &t.Assists, &t.Damage, &t.Taken, &t.Healing); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
