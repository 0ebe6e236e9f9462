package main

import (
	"bytes"
	"math"

	"github.com/go-pdf/fpdf"
)

// ---------------------------------------------------------------------------
// Chart Geometry
// ---------------------------------------------------------------------------

// rect is a target area in document units (mm).
type rect struct {
	X, Y, W, H float64
}

func (r rect) inset(d float64) rect {
	return rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
}

// chartImage is a captured raster of the dashboard chart with the same id.
// A nil png means the capture failed and the chart is drawn by hand.
type chartImage struct {
	id  string
	png []byte
}

type renderPath int

const (
	pathDrawn renderPath = iota
	pathImage
)

func (r renderPath) String() string {
	if r == pathImage {
		return "image"
	}
	return "drawn"
}

const noDataText = "No data for this period"

// seriesMax returns the largest value, or 1 for an empty or all-zero series so
// it is always safe to divide by.
func seriesMax(values []int) int {
	max := 0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return 1
	}
	return max
}

// barWidths scales each value to value/max * available.
func barWidths(values []int, available float64) []float64 {
	max := float64(seriesMax(values))
	widths := make([]float64, len(values))
	for i, v := range values {
		if v > 0 {
			widths[i] = float64(v) / max * available
		}
	}
	return widths
}

// placeChartImage draws a captured chart centered in r, scaled to fit while
// keeping its aspect ratio. It reports false when there is nothing to place.
func (p *painter) placeChartImage(img chartImage, r rect) bool {
	if len(img.png) == 0 {
		return false
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	info := p.c.RegisterImageOptionsReader(img.id, opts, bytes.NewReader(img.png))
	if info == nil {
		return false
	}
	w, h := r.W, r.H
	if iw, ih := info.Extent(); iw > 0 && ih > 0 {
		scale := math.Min(r.W/iw, r.H/ih)
		w, h = iw*scale, ih*scale
	}
	p.c.ImageOptions(img.id, r.X+(r.W-w)/2, r.Y+(r.H-h)/2, w, h, false, opts, 0, "")
	return true
}

func (p *painter) noData(r rect) {
	p.font("I", 9, p.theme.Muted)
	p.cell(r.X, r.Y+r.H/2-3, r.W, 6, noDataText, "C")
}

// ---------------------------------------------------------------------------
// Horizontal Bars (rankings, campus breakdown)
// ---------------------------------------------------------------------------

// barItem is one row of a horizontal bar chart. Trailing is printed after
// the bar as-is.
type barItem struct {
	Label    string
	Value    int
	Trailing string
}

func rankedBars(items []RankedItem) []barItem {
	bars := make([]barItem, len(items))
	for i, it := range items {
		bars[i] = barItem{Label: it.Name, Value: it.Count, Trailing: rankLabel(it.Count, it.Percentage)}
	}
	return bars
}

// campusBars keeps the first n campuses. Shares are taken over every campus,
// including the ones left out.
func campusBars(items []NamedValue, n int) []barItem {
	total := 0
	for _, it := range items {
		total += it.Value
	}
	if len(items) > n {
		items = items[:n]
	}
	bars := make([]barItem, len(items))
	for i, it := range items {
		bars[i] = barItem{Label: it.Name, Value: it.Value, Trailing: rankLabel(it.Value, shareOf(it.Value, total))}
	}
	return bars
}

// drawHorizontalBars draws one row per item in input order: label, track,
// proportional bar and trailing label. Labels longer than budget runes are
// truncated.
func (p *painter) drawHorizontalBars(items []barItem, r rect, img chartImage, budget int) renderPath {
	if p.placeChartImage(img, r) {
		return pathImage
	}
	labelW := r.W * 0.36
	trailW := 30.0
	trackX := r.X + labelW + 2
	trackW := r.W - labelW - trailW - 4
	if len(items) == 0 {
		p.fill(p.theme.Track)
		p.c.Rect(trackX, r.Y+r.H-2, trackW, 1.5, "F")
		p.noData(r)
		return pathDrawn
	}
	rowH := math.Min(r.H/float64(len(items)), 9)
	barH := rowH * 0.55

	values := make([]int, len(items))
	for i, it := range items {
		values[i] = it.Value
	}
	widths := barWidths(values, trackW)

	for i, it := range items {
		rowY := r.Y + float64(i)*rowH
		barY := rowY + (rowH-barH)/2

		p.font("", 8, p.theme.Text)
		p.cell(r.X, rowY, labelW, rowH, truncateLabel(it.Label, budget), "L")

		p.fill(p.theme.Track)
		p.c.Rect(trackX, barY, trackW, barH, "F")
		if widths[i] > 0 {
			p.fill(p.theme.seriesColor(i))
			p.c.Rect(trackX, barY, widths[i], barH, "F")
		}

		p.font("B", 7.5, p.theme.Muted)
		p.cell(trackX+trackW+2, rowY, trailW, rowH, it.Trailing, "L")
	}
	return pathDrawn
}

// ---------------------------------------------------------------------------
// Rating Histogram
// ---------------------------------------------------------------------------

// drawRatingHistogram draws five vertical bars for ratings 1..5. Zero buckets
// keep their axis slot and labels but get no bar.
func (p *painter) drawRatingHistogram(dist FeedbackStats, r rect, img chartImage) renderPath {
	if p.placeChartImage(img, r) {
		return pathImage
	}

	counts := make([]int, 5)
	for i := range counts {
		counts[i] = dist.ratingCount(i + 1)
	}
	max := float64(seriesMax(counts))

	plot := rect{X: r.X + 4, Y: r.Y + 6, W: r.W - 8, H: r.H - 14}
	baseY := plot.Y + plot.H
	slotW := plot.W / 5
	barW := slotW * 0.55

	p.stroke(p.theme.Border)
	p.c.SetLineWidth(0.3)
	p.c.Line(plot.X, baseY, plot.X+plot.W, baseY)

	for i, n := range counts {
		x := plot.X + float64(i)*slotW + (slotW-barW)/2
		if n > 0 {
			h := float64(n) / max * plot.H
			p.fill(p.theme.seriesColor(i))
			p.c.Rect(x, baseY-h, barW, h, "F")
			p.font("B", 7, p.theme.Text)
			p.cell(x-2, baseY-h-5, barW+4, 4, formatCount(n), "C")
		}
		p.font("", 8, p.theme.Muted)
		p.cell(x-2, baseY+1, barW+4, 5, string(rune('1'+i)), "C")
	}
	return pathDrawn
}

// ---------------------------------------------------------------------------
// Two-Category Split
// ---------------------------------------------------------------------------

// sectorPoints approximates the sector from startDeg sweeping sweepDeg as a
// fan polygon anchored at the center. Angles are clockwise from 3 o'clock
// in page coordinates.
func sectorPoints(cx, cy, radius, startDeg, sweepDeg float64) []fpdf.PointType {
	steps := int(math.Ceil(math.Abs(sweepDeg) / 5))
	if steps < 1 {
		steps = 1
	}
	pts := make([]fpdf.PointType, 0, steps+2)
	pts = append(pts, fpdf.PointType{X: cx, Y: cy})
	for i := 0; i <= steps; i++ {
		a := (startDeg + sweepDeg*float64(i)/float64(steps)) * math.Pi / 180
		pts = append(pts, fpdf.PointType{X: cx + radius*math.Cos(a), Y: cy + radius*math.Sin(a)})
	}
	return pts
}

// splitSlice is one category of the donut.
type splitSlice struct {
	Label string
	Value int
}

// drawSplitPie draws a two-category donut: the first category sweeps
// share*360° clockwise from 12 o'clock, the second takes the rest.
func (p *painter) drawSplitPie(a, b splitSlice, r rect, img chartImage) renderPath {
	if p.placeChartImage(img, r) {
		return pathImage
	}

	radius := math.Min(r.W*0.45, r.H) / 2
	cx := r.X + radius + 4
	cy := r.Y + r.H/2
	total := a.Value + b.Value

	if total == 0 {
		p.stroke(p.theme.Track)
		p.c.SetLineWidth(1.5)
		p.c.Circle(cx, cy, radius, "D")
		p.noData(rect{X: cx + radius + 4, Y: r.Y, W: r.X + r.W - cx - radius - 4, H: r.H})
		return pathDrawn
	}

	share := float64(a.Value) / float64(total)
	colors := [2]rgb{p.theme.Primary, p.theme.Secondary}
	start := -90.0
	for i, sweep := range []float64{share * 360, (1 - share) * 360} {
		if sweep <= 0 {
			continue
		}
		p.fill(colors[i])
		p.c.Polygon(sectorPoints(cx, cy, radius, start, sweep), "F")
		start += sweep
	}

	// Dividing line at the boundary between the two categories.
	if share > 0 && share < 1 {
		angle := (-90 + share*360) * math.Pi / 180
		p.stroke(p.theme.Card)
		p.c.SetLineWidth(0.6)
		p.c.Line(cx, cy, cx+radius*math.Cos(angle), cy+radius*math.Sin(angle))
		p.c.Line(cx, cy, cx, cy-radius)
	}

	p.fill(p.theme.Card)
	p.c.Circle(cx, cy, radius*0.55, "F")
	p.font("B", 9, p.theme.Text)
	p.cell(cx-radius*0.5, cy-3, radius, 6, formatCount(total), "C")

	legendX := cx + radius + 6
	legendY := cy - 8
	for i, s := range []splitSlice{a, b} {
		y := legendY + float64(i)*9
		p.fill(colors[i])
		p.c.Rect(legendX, y+1, 3.5, 3.5, "F")
		p.font("", 8, p.theme.Text)
		p.cell(legendX+5, y, r.X+r.W-legendX-5, 5.5,
			s.Label+"  "+formatPercent(shareOf(s.Value, total)), "L")
	}
	return pathDrawn
}

// ---------------------------------------------------------------------------
// Monthly Trend
// ---------------------------------------------------------------------------

const trendGridLines = 5

// lastPoints keeps the trailing n points of a chronological series.
func lastPoints(points []MonthlyPoint, n int) []MonthlyPoint {
	if n > 0 && len(points) > n {
		return points[len(points)-n:]
	}
	return points
}

// drawTrendLine plots up to maxPoints trailing monthly points joined by
// straight segments, over axis lines and light gridlines.
func (p *painter) drawTrendLine(points []MonthlyPoint, maxPoints int, r rect, img chartImage) renderPath {
	if p.placeChartImage(img, r) {
		return pathImage
	}

	points = lastPoints(points, maxPoints)
	plot := rect{X: r.X + 10, Y: r.Y + 6, W: r.W - 14, H: r.H - 14}

	values := make([]int, len(points))
	for i, pt := range points {
		values[i] = pt.Submissions
	}
	max := float64(seriesMax(values))

	p.c.SetLineWidth(0.1)
	p.stroke(p.theme.Track)
	p.font("", 6.5, p.theme.Muted)
	for i := 0; i <= trendGridLines; i++ {
		y := plot.Y + plot.H - float64(i)/trendGridLines*plot.H
		p.c.Line(plot.X, y, plot.X+plot.W, y)
		p.cell(r.X, y-2, 9, 4, formatCount(int(math.Round(max*float64(i)/trendGridLines))), "R")
	}

	p.stroke(p.theme.Border)
	p.c.SetLineWidth(0.3)
	p.c.Line(plot.X, plot.Y, plot.X, plot.Y+plot.H)
	p.c.Line(plot.X, plot.Y+plot.H, plot.X+plot.W, plot.Y+plot.H)

	if len(points) == 0 {
		p.noData(plot)
		return pathDrawn
	}

	xAt := func(i int) float64 {
		if len(points) == 1 {
			return plot.X + plot.W/2
		}
		return plot.X + 3 + float64(i)/float64(len(points)-1)*(plot.W-6)
	}
	yAt := func(v int) float64 {
		return plot.Y + plot.H - float64(v)/max*plot.H
	}

	p.stroke(p.theme.Accent)
	p.c.SetLineWidth(0.7)
	for i := 1; i < len(points); i++ {
		p.c.Line(xAt(i-1), yAt(points[i-1].Submissions), xAt(i), yAt(points[i].Submissions))
	}

	for i, pt := range points {
		x, y := xAt(i), yAt(pt.Submissions)
		p.fill(p.theme.Accent)
		p.c.Circle(x, y, 1, "F")
		p.font("B", 6.5, p.theme.Text)
		p.cell(x-6, y-5.5, 12, 4, formatCount(pt.Submissions), "C")
		p.font("", 6.5, p.theme.Muted)
		p.cell(x-6, plot.Y+plot.H+1, 12, 4, monthAbbrev(pt.Month), "C")
	}
	return pathDrawn
}
