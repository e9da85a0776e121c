package charts

import (
	"bytes"
	"errors"

	"radsafe-dashboard/internal/models"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when there is nothing to plot
var ErrNoData = errors.New("no data to chart")

const (
	chartHeight = 360
	barWidth    = 48
	barSpacing  = 24
	minWidth    = 480
)

var barColor = drawing.ColorFromHex("4F46E5")

// RadionuclideBar renders a tally as a PNG bar chart, one bar per label
func RadionuclideBar(title string, entries []models.TallyEntry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrNoData
	}

	bars := make([]chart.Value, len(entries))
	maxCount := 0
	for i, e := range entries {
		bars[i] = chart.Value{
			Label: e.Label,
			Value: float64(e.Count),
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor},
		}
		if e.Count > maxCount {
			maxCount = e.Count
		}
	}

	width := len(entries)*(barWidth+barSpacing) + 160
	if width < minWidth {
		width = minWidth
	}

	bc := chart.BarChart{
		Title:      title,
		TitleStyle: chart.Style{FontSize: 12},
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      width,
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		XAxis:      chart.Style{FontSize: 9},
		YAxis: chart.YAxis{
			Name:           "Count",
			Style:          chart.Style{FontSize: 9},
			Range:          &chart.ContinuousRange{Min: 0, Max: float64(maxCount + 1)},
			ValueFormatter: chart.IntValueFormatter,
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
