package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
)

const timeLayout = time.RFC3339

// MatchExists returns true if a match with the given id is already stored.
func (s queries) MatchExists(ctx context.Context, matchID int64) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(1) FROM matches WHERE match_id = ?", matchID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GroupingExists returns true if any match carries the grouping number.
func (s queries) GroupingExists(ctx context.Context, grouping int64) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(1) FROM matches WHERE grouping_num = ?", grouping).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertMatch inserts a match header. A duplicate match id or grouping number
// yields ErrMatchExists or ErrGroupingExists.
func (s queries) InsertMatch(ctx context.Context, m model.Match) error {
	at := m.IngestedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO matches(match_id, grouping_num, duration_min, region, map, team1_score, team2_score, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.MatchID, nullInt(m.GroupingNo), m.Duration, m.Region, m.Map,
		m.Team1Score, m.Team2Score, at.UTC().Format(timeLayout),
	)
	if err != nil {
		return mapUnique(err)
	}
	return nil
}

// InsertRecords inserts the player lines of one match.
func (s queries) InsertRecords(ctx context.Context, recs []model.MatchRecord) error {
	for _, r := range recs {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO player_match_records(
				match_id, player_id, team, champion, build_label,
				credits, kills, deaths, assists, damage, taken,
				objective_time, shielding, healing, self_healing
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			r.MatchID, r.PlayerID, int(r.Team), r.Champion, r.Build,
			r.Credits, r.Kills, r.Deaths, r.Assists, r.Damage, r.Taken,
			r.ObjectiveTime, r.Shielding, r.Healing, r.SelfHealing,
		)
		if err != nil {
			return fmt.Errorf("insert record for player %d: %w", r.PlayerID, err)
		}
	}
	return nil
}

func scanMatch(sc interface{ Scan(...any) error }) (model.Match, error) {
	var (
		m        model.Match
		grouping sql.NullInt64
		at       string
	)
	if err := sc.Scan(&m.MatchID, &grouping, &m.Duration, &m.Region, &m.Map,
		&m.Team1Score, &m.Team2Score, &at); err != nil {
		return m, err
	}
	if grouping.Valid {
		g := grouping.Int64
		m.GroupingNo = &g
	}
	m.IngestedAt, _ = time.Parse(timeLayout, at)
	return m, nil
}

const matchColumns = "match_id, grouping_num, duration_min, region, map, team1_score, team2_score, ingested_at"

// GetMatch returns a match and its records, or nil if the match is unknown.
func (s queries) GetMatch(ctx context.Context, matchID int64) (*model.Match, []model.MatchRecord, error) {
	m, err := scanMatch(s.q.QueryRowContext(ctx,
		"SELECT "+matchColumns+" FROM matches WHERE match_id = ?", matchID))
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT r.id, r.match_id, r.player_id, p.primary_name, r.team, r.champion, r.build_label,
		       r.credits, r.kills, r.deaths, r.assists, r.damage, r.taken,
		       r.objective_time, r.shielding, r.healing, r.self_healing
		FROM player_match_records r
		JOIN players p ON p.player_id = r.player_id
		WHERE r.match_id = ?
		ORDER BY r.id`, matchID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var recs []model.MatchRecord
	for rows.Next() {
		var r model.MatchRecord
		var team int
		if err := rows.Scan(&r.ID, &r.MatchID, &r.PlayerID, &r.Name, &team, &r.Champion, &r.Build,
			&r.Credits, &r.Kills, &r.Deaths, &r.Assists, &r.Damage, &r.Taken,
			&r.ObjectiveTime, &r.Shielding, &r.Healing, &r.SelfHealing); err != nil {
			return nil, nil, err
		}
		r.Team = model.Team(team)
		recs = append(recs, r)
	}
	return &m, recs, rows.Err()
}

// ListMatches returns the most recently ingested matches first. limit <= 0
// returns every match.
func (s queries) ListMatches(ctx context.Context, limit int) ([]model.Match, error) {
	q := "SELECT " + matchColumns + " FROM matches ORDER BY ingested_at DESC, match_id DESC"
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteMatch removes a match and its records in one transaction and returns
// the number of rows removed (records plus the match row).
func (db *DB) DeleteMatch(ctx context.Context, matchID int64) (int, error) {
	var removed int64
	err := db.WithTx(ctx, func(tx *Tx) error {
		res, err := tx.q.ExecContext(ctx, "DELETE FROM player_match_records WHERE match_id = ?", matchID)
		if err != nil {
			return fmt.Errorf("delete records: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n

		res, err = tx.q.ExecContext(ctx, "DELETE FROM matches WHERE match_id = ?", matchID)
		if err != nil {
			return fmt.Errorf("delete match: %w", err)
		}
		n, _ = res.RowsAffected()
		removed += n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

// CountRows returns the number of stored matches and match records.
func (s queries) CountRows(ctx context.Context) (matches, records int, err error) {
	err = s.q.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(1) FROM matches), (SELECT COUNT(1) FROM player_match_records)").
		Scan(&matches, &records)
	return matches, records, err
}

// GetOverview returns aggregate counts across the whole store.
func (s queries) GetOverview(ctx context.Context) (*model.Overview, error) {
	ov := &model.Overview{}
	var latest sql.NullString
	err := s.q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(1) FROM matches),
			(SELECT COUNT(1) FROM players),
			(SELECT COUNT(1) FROM players WHERE external_handle IS NOT NULL),
			(SELECT COALESCE(SUM(duration_min), 0) FROM matches),
			(SELECT MAX(ingested_at) FROM matches)`).
		Scan(&ov.TotalMatches, &ov.TotalPlayers, &ov.LinkedPlayers, &ov.TotalMinutes, &latest)
	if err != nil {
		return nil, fmt.Errorf("overview counts: %w", err)
	}
	if latest.Valid {
		ov.LatestIngestion, _ = time.Parse(timeLayout, latest.String)
	}

	if ov.MapCounts, err = s.nameCounts(ctx,
		"SELECT map, COUNT(1) FROM matches GROUP BY map ORDER BY COUNT(1) DESC, map LIMIT 10"); err != nil {
		return nil, fmt.Errorf("overview maps: %w", err)
	}
	if ov.TopPlayers, err = s.nameCounts(ctx, `
		SELECT p.primary_name, COUNT(1) FROM player_match_records r
		JOIN players p ON p.player_id = r.player_id
		GROUP BY r.player_id ORDER BY COUNT(1) DESC, p.primary_name LIMIT 10`); err != nil {
		return nil, fmt.Errorf("overview players: %w", err)
	}
	if ov.TopChampions, err = s.nameCounts(ctx, `
		SELECT champion, COUNT(1) FROM player_match_records
		GROUP BY champion COLLATE NOCASE ORDER BY COUNT(1) DESC, champion LIMIT 10`); err != nil {
		return nil, fmt.Errorf("overview champions: %w", err)
	}
	return ov, nil
}

func (s queries) nameCounts(ctx context.Context, q string) ([]model.NameCount, error) {
	rows, err := s.q.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.NameCount
	for rows.Next() {
		var nc model.NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, err
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}
