package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
)

func TestGrouped(t *testing.T) {
	cases := map[int]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -45000: "-45,000"}
	for in, want := range cases {
		assert.Equal(t, want, grouped(in), "grouped(%d)", in)
	}
}

func TestWilsonCI(t *testing.T) {
	lo, hi := wilsonCI(0, 0)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	lo, hi = wilsonCI(5, 10)
	assert.InDelta(t, 0.237, lo, 0.001)
	assert.InDelta(t, 0.763, hi, 0.001)
}

func TestPrintLeaderboard(t *testing.T) {
	var buf bytes.Buffer
	PrintLeaderboard(&buf, "Win Rate %", []model.RankedEntry{
		{Rank: 1, Name: "Alpha", Games: 10, Value: 90, Stats: model.PlayerStats{Games: 10, Wins: 9}},
		{Rank: 2, Name: "Bravo", Games: 10, Value: 70, Stats: model.PlayerStats{Games: 10, Wins: 7}},
	})
	out := buf.String()
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "90.00")
	assert.Less(t, strings.Index(out, "Alpha"), strings.Index(out, "Bravo"))
}

func TestPrintPlayerStatsNotesHealingScope(t *testing.T) {
	var buf bytes.Buffer
	PrintPlayerStats(&buf, "Alpha", model.PlayerStats{Games: 4, Wins: 3, Losses: 1, Minutes: 80, HealingGames: 1})
	assert.Contains(t, buf.String(), "Healing counted over 1 support games")
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	err := WriteWorkbook(&buf, []Sheet{
		{Name: "Players", Header: []string{"NAME", "GAMES"}, Rows: [][]any{{"Alpha", 3}, {"Bravo", 1}}},
		{Name: "Matches", Header: []string{"MATCH"}, Rows: [][]any{{int64(123456789)}}},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Players", "Matches"}, f.GetSheetList())
	rows, err := f.GetRows("Players")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"NAME", "GAMES"}, {"Alpha", "3"}, {"Bravo", "1"}}, rows)

	v, err := f.GetCellValue("Matches", "A2")
	require.NoError(t, err)
	assert.Equal(t, "123456789", v)

	assert.Error(t, WriteWorkbook(&buf, nil))
}

func TestTrendChart(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rows := []model.StatRow{
		{MatchID: 3, Duration: 20, Kills: 10, Deaths: 5, Assists: 5, Damage: 60000, IngestedAt: base.Add(2 * time.Hour)},
		{MatchID: 2, Duration: 15, Kills: 4, Deaths: 6, Assists: 9, Damage: 30000, IngestedAt: base.Add(time.Hour)},
		{MatchID: 1, Duration: 25, Kills: 12, Deaths: 2, Assists: 3, Damage: 80000, IngestedAt: base},
	}

	var buf bytes.Buffer
	require.NoError(t, TrendChart(&buf, "Alpha", rows))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")), "expected PNG output")

	assert.ErrorIs(t, TrendChart(&buf, "Alpha", rows[:1]), ErrTooFewGames)
}
