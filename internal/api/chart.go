package api

import (
	"bytes"
	"net/http"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/montenegronyc/scoreboard/internal/leaderboard"
	"github.com/montenegronyc/scoreboard/internal/store"
)

var (
	barColor    = drawing.ColorFromHex("00D4FF")
	leaderColor = drawing.ColorFromHex("FFD700")
)

// renderChart draws the board as a PNG bar chart, leaders in gold.
func renderChart(b store.Board, title string) ([]byte, error) {
	bars := make([]chart.Value, 0, len(b.Entries))
	for _, e := range b.Entries {
		color := barColor
		if e.IsLeader {
			color = leaderColor
		}
		bars = append(bars, chart.Value{
			Label: e.Name,
			Value: float64(e.Score),
			Style: chart.Style{FillColor: color, StrokeColor: color},
		})
	}

	// Fixed range so an all-zero board still renders.
	top := float64(leaderboard.MaxScore(b.Entries))
	if top < 1 {
		top = 1
	}

	graph := chart.BarChart{
		Title:      title,
		Width:      960,
		Height:     480,
		BarWidth:   80,
		Background: chart.Style{Padding: chart.Box{Top: 60}},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *Handler) chart(w http.ResponseWriter, r *http.Request) {
	b := h.store.Board()
	if len(b.Entries) == 0 {
		jsonErr(w, http.StatusServiceUnavailable, "no scores yet")
		return
	}
	png, err := renderChart(b, h.title)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "render chart: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png) //nolint:errcheck
}
