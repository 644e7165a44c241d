package services

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"orca/internal/core"
	"orca/internal/log"
)

// ErrNoChartData is returned when there is nothing to plot.
var ErrNoChartData = errors.New("no data to chart")

var levelColors = map[core.HealthLevel]drawing.Color{
	core.Healthy:  drawing.ColorFromHex("2e7d32"),
	core.Warning:  drawing.ColorFromHex("f9a825"),
	core.Critical: drawing.ColorFromHex("c62828"),
}

type ChartService struct {
	logger *log.Logger
	Width  int
	Height int
}

func NewChartService(logger *log.Logger) *ChartService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ChartService{logger: logger.WithComponent(log.ComponentChart), Width: 900, Height: 420}
}

// EnvelopeUsagePNG draws one bar per envelope with its usage percentage,
// colored by health level.
func (s *ChartService) EnvelopeUsagePNG(envelopes []core.Envelope) ([]byte, error) {
	if len(envelopes) == 0 {
		return nil, ErrNoChartData
	}

	top := 100.0
	bars := make([]chart.Value, 0, len(envelopes))
	for _, e := range envelopes {
		usage := e.Usage()
		top = math.Max(top, usage)
		color := levelColors[e.Level()]
		bars = append(bars, chart.Value{
			Label: e.Name,
			Value: usage,
			Style: chart.Style{
				StrokeColor: color,
				FillColor:   color,
			},
		})
	}

	graph := chart.BarChart{
		Title:    "Uso dos envelopes",
		Width:    s.Width,
		Height:   s.Height,
		BarWidth: barWidth(s.Width, len(bars)),
		Background: chart.Style{
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
			FillColor: chart.ColorWhite,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: math.Ceil(top/10) * 10},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return formatPercent(f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		s.logger.Error("Chart render failed", log.FieldOperation, log.OpRender, log.FieldError, err.Error())
		return nil, fmt.Errorf("render envelope chart: %w", err)
	}
	return buf.Bytes(), nil
}

func barWidth(width, n int) int {
	w := (width - 80) / (2 * n)
	switch {
	case w > 80:
		return 80
	case w < 8:
		return 8
	}
	return w
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.0f%%", p)
}
