package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedMatch stores a 10-player match. Players are created on demand from
// names "<prefix>1".."<prefix>10"; champion is used for every line.
func seedMatch(t *testing.T, db *DB, matchID int64, t1, t2 int, champion string) []int64 {
	t.Helper()
	ctx := context.Background()
	var ids []int64
	err := db.WithTx(ctx, func(tx *Tx) error {
		if err := tx.InsertMatch(ctx, model.Match{
			MatchID: matchID, Duration: 20, Region: "EU", Map: "Brightmarsh",
			Team1Score: t1, Team2Score: t2,
			IngestedAt: time.Date(2025, 1, 1, 0, 0, int(matchID%60), 0, time.UTC),
		}); err != nil {
			return err
		}
		var recs []model.MatchRecord
		for i := 0; i < 10; i++ {
			name := fmt.Sprintf("p%d", i+1)
			p, err := tx.PlayerByName(ctx, name)
			if err != nil {
				return err
			}
			if p == nil {
				if p, err = tx.CreatePlayer(ctx, name, ""); err != nil {
					return err
				}
			}
			ids = append(ids, p.ID)
			team := model.Team1
			if i >= 5 {
				team = model.Team2
			}
			recs = append(recs, model.MatchRecord{
				MatchID: matchID, PlayerID: p.ID,
				PlayerLine: model.PlayerLine{
					Champion: champion, Team: team,
					Kills: i + 1, Deaths: 1, Assists: 1, Damage: 1000 * (i + 1),
				},
			})
		}
		return tx.InsertRecords(ctx, recs)
	})
	if err != nil {
		t.Fatalf("seed match %d: %v", matchID, err)
	}
	return ids
}

func TestMatchInsertAndExists(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	g := int64(77)

	if err := db.InsertMatch(ctx, model.Match{MatchID: 1001, GroupingNo: &g, Duration: 18,
		Region: "NA", Map: "Ascension Peak", Team1Score: 4, Team2Score: 3}); err != nil {
		t.Fatalf("InsertMatch: %v", err)
	}

	exists, err := db.MatchExists(ctx, 1001)
	if err != nil {
		t.Fatalf("MatchExists: %v", err)
	}
	if !exists {
		t.Error("expected match to exist after insert")
	}
	if exists, _ := db.MatchExists(ctx, 9999); exists {
		t.Error("expected unknown match to not exist")
	}
	if exists, _ := db.GroupingExists(ctx, 77); !exists {
		t.Error("expected grouping 77 to exist")
	}

	m, recs, err := db.GetMatch(ctx, 1001)
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}
	if m == nil || m.Map != "Ascension Peak" || m.GroupingNo == nil || *m.GroupingNo != 77 {
		t.Errorf("unexpected match %+v", m)
	}
	if len(recs) != 0 {
		t.Errorf("expected no records, got %d", len(recs))
	}
	if m.IngestedAt.IsZero() {
		t.Error("expected ingestion time to be set")
	}

	missing, _, err := db.GetMatch(ctx, 42)
	if err != nil || missing != nil {
		t.Errorf("GetMatch unknown = %v, %v; want nil, nil", missing, err)
	}
}

func TestUniqueMatchAndGrouping(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	g := int64(5)

	if err := db.InsertMatch(ctx, model.Match{MatchID: 1, GroupingNo: &g, Region: "EU", Map: "m"}); err != nil {
		t.Fatalf("InsertMatch: %v", err)
	}
	err := db.InsertMatch(ctx, model.Match{MatchID: 1, Region: "EU", Map: "m"})
	if !errors.Is(err, ErrMatchExists) {
		t.Errorf("duplicate match id: got %v, want ErrMatchExists", err)
	}
	err = db.InsertMatch(ctx, model.Match{MatchID: 2, GroupingNo: &g, Region: "EU", Map: "m"})
	if !errors.Is(err, ErrGroupingExists) {
		t.Errorf("duplicate grouping: got %v, want ErrGroupingExists", err)
	}
	// NULL groupings never collide.
	if err := db.InsertMatch(ctx, model.Match{MatchID: 3, Region: "EU", Map: "m"}); err != nil {
		t.Errorf("InsertMatch without grouping: %v", err)
	}
	if err := db.InsertMatch(ctx, model.Match{MatchID: 4, Region: "EU", Map: "m"}); err != nil {
		t.Errorf("second InsertMatch without grouping: %v", err)
	}
}

func TestPlayerLookup(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	p, err := db.CreatePlayer(ctx, "Foo", "")
	if err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	if _, err := db.CreatePlayer(ctx, "FOO", ""); !errors.Is(err, ErrNameExists) {
		t.Errorf("case-folded duplicate name: got %v, want ErrNameExists", err)
	}

	got, err := db.PlayerByName(ctx, "fOO")
	if err != nil || got == nil || got.ID != p.ID {
		t.Fatalf("PlayerByName = %+v, %v", got, err)
	}

	if err := db.InsertAlias(ctx, p.ID, "Bar"); err != nil {
		t.Fatalf("InsertAlias: %v", err)
	}
	if err := db.InsertAlias(ctx, p.ID, "Baz"); err != nil {
		t.Fatalf("InsertAlias: %v", err)
	}
	if err := db.InsertAlias(ctx, p.ID, "BAR"); !errors.Is(err, ErrAliasExists) {
		t.Errorf("duplicate alias: got %v, want ErrAliasExists", err)
	}

	owner, err := db.PlayerByAlias(ctx, "bar")
	if err != nil || owner == nil || owner.ID != p.ID {
		t.Fatalf("PlayerByAlias = %+v, %v", owner, err)
	}
	if len(owner.Aliases) != 2 || owner.Aliases[0] != "Bar" || owner.Aliases[1] != "Baz" {
		t.Errorf("aliases = %v, want [Bar Baz]", owner.Aliases)
	}

	removed, err := db.DeleteAlias(ctx, p.ID, "BAZ")
	if err != nil || !removed {
		t.Errorf("DeleteAlias = %v, %v", removed, err)
	}
	removed, _ = db.DeleteAlias(ctx, p.ID, "baz")
	if removed {
		t.Error("second DeleteAlias should report nothing removed")
	}

	none, err := db.PlayerByAlias(ctx, "nobody")
	if err != nil || none != nil {
		t.Errorf("PlayerByAlias unknown = %+v, %v", none, err)
	}
}

func TestHandleUnique(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	a, _ := db.CreatePlayer(ctx, "A", "h-1")
	b, _ := db.CreatePlayer(ctx, "B", "")
	if err := db.SetHandle(ctx, b.ID, "h-1"); !errors.Is(err, ErrHandleExists) {
		t.Errorf("SetHandle duplicate: got %v, want ErrHandleExists", err)
	}
	if err := db.SetHandle(ctx, a.ID, ""); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if err := db.SetHandle(ctx, b.ID, "h-1"); err != nil {
		t.Errorf("SetHandle after unlink: %v", err)
	}
	got, _ := db.PlayerByHandle(ctx, "h-1")
	if got == nil || got.ID != b.ID {
		t.Errorf("PlayerByHandle = %+v, want B", got)
	}

	players, err := db.ListPlayers(ctx)
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	if len(players) != 2 || players[0].Name != "A" || players[1].Handle != "h-1" {
		t.Errorf("ListPlayers = %+v", players)
	}
}

func TestDeleteMatchCascades(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	seedMatch(t, db, 10, 4, 2, "Ash")
	seedMatch(t, db, 11, 1, 4, "Ash")

	n, err := db.DeleteMatch(ctx, 10)
	if err != nil {
		t.Fatalf("DeleteMatch: %v", err)
	}
	if n != 11 {
		t.Errorf("rows removed = %d, want 11", n)
	}
	matches, records, _ := db.CountRows(ctx)
	if matches != 1 || records != 10 {
		t.Errorf("after delete: %d matches, %d records; want 1, 10", matches, records)
	}

	n, err = db.DeleteMatch(ctx, 10)
	if err != nil || n != 0 {
		t.Errorf("second DeleteMatch = %d, %v; want 0, nil", n, err)
	}
}

func TestStatRowsTeamTotals(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	ids := seedMatch(t, db, 20, 4, 2, "Ash")

	rows, err := db.StatRows(ctx, RowFilter{PlayerIDs: []int64{ids[0], ids[7]}})
	if err != nil {
		t.Fatalf("StatRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// Team 1 holds kills 1..5 with 1 assist each; team 2 kills 6..10.
	for _, r := range rows {
		switch r.PlayerID {
		case ids[0]:
			if r.TeamKillsAssists != 20 || r.TeamDamage != 15000 || !r.Won() {
				t.Errorf("team 1 row = %+v", r)
			}
		case ids[7]:
			if r.TeamKillsAssists != 45 || r.TeamDamage != 40000 || r.Won() {
				t.Errorf("team 2 row = %+v", r)
			}
		}
	}
}

func TestStatRowsChampionFilters(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	seedMatch(t, db, 30, 4, 2, "Sha Lin")
	seedMatch(t, db, 31, 4, 2, "Grover")

	rows, err := db.StatRows(ctx, RowFilter{Champions: []string{"sha lin"}})
	if err != nil {
		t.Fatalf("StatRows: %v", err)
	}
	if len(rows) != 10 {
		t.Errorf("exact champion filter: got %d rows, want 10", len(rows))
	}

	rows, _ = db.StatRows(ctx, RowFilter{ChampionLike: "ROV"})
	if len(rows) != 10 || rows[0].Champion != "Grover" {
		t.Errorf("substring filter: got %d rows", len(rows))
	}

	rows, _ = db.StatRows(ctx, RowFilter{ChampionLike: "%"})
	if len(rows) != 0 {
		t.Errorf("LIKE wildcard should be escaped, got %d rows", len(rows))
	}

	rows, _ = db.StatRows(ctx, RowFilter{LinkedOnly: true})
	if len(rows) != 0 {
		t.Errorf("no linked players expected, got %d rows", len(rows))
	}

	rows, _ = db.StatRows(ctx, RowFilter{NewestFirst: true, Limit: 3})
	if len(rows) != 3 || rows[0].MatchID != 31 {
		t.Errorf("newest-first limit: %+v", rows)
	}
}

func TestSharedMatchesAndTotals(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	ids := seedMatch(t, db, 40, 4, 2, "Ash")
	seedMatch(t, db, 41, 1, 4, "Ash")

	shared, err := db.SharedMatches(ctx, ids[0], ids[9])
	if err != nil {
		t.Fatalf("SharedMatches: %v", err)
	}
	if len(shared) != 2 || shared[0].TeamA != model.Team1 || shared[0].TeamB != model.Team2 {
		t.Errorf("SharedMatches = %+v", shared)
	}

	totals, err := db.RosterTotals(ctx)
	if err != nil {
		t.Fatalf("RosterTotals: %v", err)
	}
	if len(totals) != 10 || totals[0].Games != 2 || totals[0].Minutes != 40 {
		t.Errorf("RosterTotals = %+v", totals)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.WithTx(ctx, func(tx *Tx) error {
		if err := tx.InsertMatch(ctx, model.Match{MatchID: 50, Region: "EU", Map: "m"}); err != nil {
			return err
		}
		if _, err := tx.CreatePlayer(ctx, "ghost", ""); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want boom", err)
	}
	if exists, _ := db.MatchExists(ctx, 50); exists {
		t.Error("match should have been rolled back")
	}
	if p, _ := db.PlayerByName(ctx, "ghost"); p != nil {
		t.Error("player should have been rolled back")
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	seedMatch(t, db, 60, 4, 2, "Ash")

	cols, rows, err := db.QueryRaw(ctx, "SELECT match_id, grouping_num FROM matches")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 2 || len(rows) != 1 || rows[0][0] != "60" || rows[0][1] != "NULL" {
		t.Errorf("QueryRaw = %v %v", cols, rows)
	}

	if _, _, err := db.QueryRaw(ctx, "DELETE FROM matches"); err == nil {
		t.Error("expected write statement to be rejected")
	}
}

func TestQueryRawRejectsWritingCTE(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	seedMatch(t, db, 5, 4, 2, "Ash")

	if _, _, err := db.QueryRaw(ctx, "WITH x AS (SELECT 1) DELETE FROM matches"); err == nil {
		t.Error("expected WITH ... DELETE to fail")
	}
	ok, err := db.MatchExists(ctx, 5)
	if err != nil {
		t.Fatalf("MatchExists: %v", err)
	}
	if !ok {
		t.Fatal("match 5 was deleted through QueryRaw")
	}

	// The connection is writable again afterwards.
	if n, err := db.DeleteMatch(ctx, 5); err != nil || n == 0 {
		t.Errorf("DeleteMatch after QueryRaw = %d, %v", n, err)
	}
}

func TestOverview(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	seedMatch(t, db, 70, 4, 2, "Ash")
	seedMatch(t, db, 71, 4, 2, "Io")

	ov, err := db.GetOverview(ctx)
	if err != nil {
		t.Fatalf("GetOverview: %v", err)
	}
	if ov.TotalMatches != 2 || ov.TotalPlayers != 10 || ov.TotalMinutes != 40 {
		t.Errorf("overview = %+v", ov)
	}
	if len(ov.MapCounts) != 1 || ov.MapCounts[0].Count != 2 {
		t.Errorf("map counts = %+v", ov.MapCounts)
	}
	if len(ov.TopChampions) != 2 || ov.TopChampions[0].Count != 10 {
		t.Errorf("champion counts = %+v", ov.TopChampions)
	}
}
