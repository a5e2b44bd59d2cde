package report

import (
	"errors"
	"io"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
)

// ErrTooFewGames is returned when a trend has fewer than two points.
var ErrTooFewGames = errors.New("need at least two games to chart a trend")

// TrendChart renders a PNG line chart of damage per minute and KDA for each
// game in rows, oldest on the left.
func TrendChart(w io.Writer, title string, rows []model.StatRow) error {
	if len(rows) < 2 {
		return ErrTooFewGames
	}
	ordered := append([]model.StatRow(nil), rows...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.IngestedAt.Equal(b.IngestedAt) {
			return a.IngestedAt.Before(b.IngestedAt)
		}
		return a.MatchID < b.MatchID
	})

	xs := make([]float64, len(ordered))
	dpm := make([]float64, len(ordered))
	kda := make([]float64, len(ordered))
	for i, r := range ordered {
		s := model.PlayerStats{
			Games: 1, Minutes: r.Duration,
			Kills: r.Kills, Deaths: r.Deaths, Assists: r.Assists, Damage: r.Damage,
		}
		xs[i] = float64(i + 1)
		dpm[i] = s.DamagePerMinute()
		kda[i] = s.KDA()
	}

	graph := chart.Chart{
		Title:  title,
		Width:  800,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Game",
			ValueFormatter: chart.IntValueFormatter,
		},
		YAxis:          chart.YAxis{Name: "Damage/min", Range: flatRange(dpm)},
		YAxisSecondary: chart.YAxis{Name: "KDA", Range: flatRange(kda)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Damage/min",
				XValues: xs,
				YValues: dpm,
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("c0392b"),
					StrokeWidth: 2,
					DotWidth:    3,
					DotColor:    drawing.ColorFromHex("c0392b"),
				},
			},
			chart.ContinuousSeries{
				Name:    "KDA",
				YAxis:   chart.YAxisSecondary,
				XValues: xs,
				YValues: kda,
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("2980b9"),
					StrokeWidth: 2,
					DotWidth:    3,
					DotColor:    drawing.ColorFromHex("2980b9"),
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}

// flatRange pads a series whose values are all equal, which go-chart cannot
// scale on its own. It returns nil otherwise.
func flatRange(v []float64) chart.Range {
	for _, x := range v[1:] {
		if x != v[0] {
			return nil
		}
	}
	return &chart.ContinuousRange{Min: v[0] - 1, Max: v[0] + 1}
}
