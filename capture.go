package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Chart Capture
// ---------------------------------------------------------------------------

// Element ids of the dashboard charts a report can embed.
const (
	chartStudentSplit  = "student-split-chart"
	chartRatings       = "rating-distribution-chart"
	chartPrograms      = "popular-programs-chart"
	chartDegrees       = "degree-programs-chart"
	chartMonthlyTrend  = "monthly-trend-chart"
	chartCampus        = "campus-chart"
	captureScale       = 2
	rasterLabelRunes   = 14
	rasterRankedValues = 10
)

var (
	errUnknownChart = errors.New("unknown chart element")
	errEmptySeries  = errors.New("nothing to plot")
)

// ChartCapturer rasterizes a named dashboard chart to PNG. A nil image or an
// error means the report draws that chart itself.
type ChartCapturer interface {
	Capture(ctx context.Context, elementID string) ([]byte, error)
}

// chartsFor lists the chart ids a layout places, in page order.
func chartsFor(layout ReportLayout) []string {
	var ids []string
	for _, kind := range layout.Pages {
		switch kind {
		case pageOverview:
			ids = append(ids, chartStudentSplit, chartRatings)
			if !layout.has(pageTrends) {
				ids = append(ids, chartMonthlyTrend)
			}
		case pageRankings:
			ids = append(ids, chartPrograms, chartDegrees)
		case pageTrends:
			ids = append(ids, chartMonthlyTrend)
		case pageCampusSummary:
			ids = append(ids, chartCampus)
		case pageDetailed:
			ids = append(ids, chartPrograms, chartCampus)
		}
	}
	return ids
}

// captureCharts waits once for the charts to settle, then captures each id in
// order. Failed captures are logged and left out of the result.
func captureCharts(ctx context.Context, capturer ChartCapturer, ids []string, settle time.Duration) map[string][]byte {
	images := make(map[string][]byte, len(ids))
	if capturer == nil {
		return images
	}
	if settle > 0 {
		timer := time.NewTimer(settle)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			zap.L().Warn("chart capture cancelled", zap.Error(ctx.Err()))
			return images
		}
	}

	for _, id := range ids {
		img, err := captureOne(ctx, capturer, id)
		if err == nil {
			err = checkPNG(img)
		}
		if err != nil {
			zap.L().Warn("chart capture failed, using drawn chart",
				zap.String("chart", id), zap.Error(err))
			continue
		}
		images[id] = img
	}
	return images
}

func captureOne(ctx context.Context, capturer ChartCapturer, id string) (img []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("capture panicked: %v", r)
		}
	}()
	return capturer.Capture(ctx, id)
}

// checkPNG rejects empty or undecodable captures before they reach the document.
func checkPNG(img []byte) error {
	if len(img) == 0 {
		return errors.New("empty capture")
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return fmt.Errorf("invalid png: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("invalid png: %dx%d", cfg.Width, cfg.Height)
	}
	return nil
}

// ---------------------------------------------------------------------------
// go-chart Rasterizer
// ---------------------------------------------------------------------------

// chartRasterizer renders the dashboard charts from the same statistics the
// report is built from, at twice the base size on a white background.
type chartRasterizer struct {
	stats StatsData
	theme ReportTheme
}

func newChartRasterizer(stats StatsData, theme ReportTheme) *chartRasterizer {
	return &chartRasterizer{stats: stats, theme: theme}
}

func (r *chartRasterizer) Capture(ctx context.Context, elementID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	var err error
	switch elementID {
	case chartStudentSplit:
		err = r.renderSplit(&buf)
	case chartRatings:
		values := make([]chart.Value, 5)
		for i := range values {
			values[i] = chart.Value{Label: fmt.Sprintf("%d", i+1), Value: float64(r.stats.FeedbackStats.ratingCount(i + 1))}
		}
		err = r.renderBars(&buf, values, 400, 300)
	case chartPrograms:
		err = r.renderBars(&buf, rankedValues(r.stats.PopularPrograms), 640, 320)
	case chartDegrees:
		err = r.renderBars(&buf, rankedValues(r.stats.ProgramsByDegree), 640, 320)
	case chartCampus:
		values := make([]chart.Value, 0, len(r.stats.CampusData))
		for _, c := range r.stats.CampusData {
			values = append(values, chart.Value{Label: truncateLabel(c.Name, rasterLabelRunes), Value: float64(c.Value)})
		}
		err = r.renderBars(&buf, values, 640, 320)
	case chartMonthlyTrend:
		err = r.renderTrend(&buf)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownChart, elementID)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", elementID, err)
	}
	return buf.Bytes(), nil
}

func rankedValues(items []RankedItem) []chart.Value {
	if len(items) > rasterRankedValues {
		items = items[:rasterRankedValues]
	}
	values := make([]chart.Value, len(items))
	for i, it := range items {
		values[i] = chart.Value{Label: truncateLabel(it.Name, rasterLabelRunes), Value: float64(it.Count)}
	}
	return values
}

func valuesTotal(values []chart.Value) float64 {
	var total float64
	for _, v := range values {
		total += v.Value
	}
	return total
}

func (r *chartRasterizer) renderSplit(buf *bytes.Buffer) error {
	values := []chart.Value{
		{Label: "LPU", Value: float64(r.stats.LPUStudents), Style: chart.Style{FillColor: r.theme.Primary.drawing()}},
		{Label: "Non-LPU", Value: float64(r.stats.NonLPUStudents), Style: chart.Style{FillColor: r.theme.Secondary.drawing()}},
	}
	if valuesTotal(values) == 0 {
		return errEmptySeries
	}
	pie := chart.PieChart{
		Width:      360 * captureScale,
		Height:     300 * captureScale,
		DPI:        chart.DefaultDPI * captureScale,
		Background: chart.Style{FillColor: drawing.ColorWhite},
		Values:     values,
	}
	return pie.Render(chart.PNG, buf)
}

func (r *chartRasterizer) renderBars(buf *bytes.Buffer, values []chart.Value, w, h int) error {
	if len(values) == 0 || valuesTotal(values) == 0 {
		return errEmptySeries
	}
	for i := range values {
		col := r.theme.seriesColor(i).drawing()
		values[i].Style = chart.Style{FillColor: col, StrokeColor: col}
	}
	// Bars plus half-width gaps fill three quarters of the canvas.
	barW := int(0.75 * float64(w*captureScale) / (1.5*float64(len(values)) - 0.5))
	bars := chart.BarChart{
		Width:      w * captureScale,
		Height:     h * captureScale,
		DPI:        chart.DefaultDPI * captureScale,
		Background: chart.Style{FillColor: drawing.ColorWhite},
		BarWidth:   barW,
		BarSpacing: barW / 2,
		XAxis:      chart.Style{FontSize: 7},
		YAxis:      chart.YAxis{Style: chart.Style{FontSize: 7}},
		Bars:       values,
	}
	return bars.Render(chart.PNG, buf)
}

func (r *chartRasterizer) renderTrend(buf *bytes.Buffer) error {
	points := lastPoints(r.stats.MonthlyData, 12)
	if len(points) < 2 {
		return errEmptySeries
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	ticks := make([]chart.Tick, len(points))
	for i, pt := range points {
		xs[i] = float64(i)
		ys[i] = float64(pt.Submissions)
		ticks[i] = chart.Tick{Value: float64(i), Label: monthAbbrev(pt.Month)}
	}
	accent := r.theme.Accent.drawing()
	graph := chart.Chart{
		Width:      700 * captureScale,
		Height:     300 * captureScale,
		DPI:        chart.DefaultDPI * captureScale,
		Background: chart.Style{FillColor: drawing.ColorWhite, Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      chart.XAxis{Ticks: ticks},
		Series: []chart.Series{chart.ContinuousSeries{
			Name:    "Submissions",
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: accent, StrokeWidth: 3, DotColor: accent, DotWidth: 4},
		}},
	}
	return graph.Render(chart.PNG, buf)
}

// drawing converts a theme color for go-chart.
func (c rgb) drawing() drawing.Color {
	return drawing.Color{R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2]), A: 255}
}
