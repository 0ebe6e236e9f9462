package main

import (
	"io"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"
)

// ---------------------------------------------------------------------------
// Drawing Surface
// ---------------------------------------------------------------------------

// canvas is the part of *fpdf.Fpdf the primitives and chart renderers draw with.
type canvas interface {
	SetFillColor(r, g, b int)
	SetDrawColor(r, g, b int)
	SetTextColor(r, g, b int)
	SetLineWidth(width float64)
	SetFont(familyStr, styleStr string, size float64)
	SetAlpha(alpha float64, blendModeStr string)
	Rect(x, y, w, h float64, styleStr string)
	RoundedRect(x, y, w, h, r float64, corners string, stylestr string)
	Polygon(points []fpdf.PointType, styleStr string)
	Line(x1, y1, x2, y2 float64)
	Circle(x, y, r float64, styleStr string)
	Text(x, y float64, txtStr string)
	SetXY(x, y float64)
	CellFormat(w, h float64, txtStr, borderStr string, ln int, alignStr string, fill bool, link int, linkStr string)
	GetStringWidth(s string) float64
	SplitText(txt string, w float64) []string
	RegisterImageOptionsReader(imgName string, options fpdf.ImageOptions, r io.Reader) *fpdf.ImageInfoType
	ImageOptions(imageNameStr string, x, y, w, h float64, flow bool, options fpdf.ImageOptions, link int, linkStr string)
}

const (
	fontFamily           = "Helvetica"
	sectionHeaderAdvance = 18.0
	cardRadius           = 2.5
	shadowOffset         = 0.8
)

// painter binds a canvas to a theme and the document's text translator.
type painter struct {
	c     canvas
	theme ReportTheme
	tr    func(string) string
}

func newPainter(c canvas, theme ReportTheme, tr func(string) string) *painter {
	if tr == nil {
		tr = func(s string) string { return s }
	}
	return &painter{c: c, theme: theme, tr: tr}
}

func (p *painter) fill(col rgb) { p.c.SetFillColor(col[0], col[1], col[2]) }
func (p *painter) stroke(col rgb) { p.c.SetDrawColor(col[0], col[1], col[2]) }
func (p *painter) textColor(col rgb) { p.c.SetTextColor(col[0], col[1], col[2]) }

func (p *painter) font(style string, size float64, col rgb) {
	p.c.SetFont(fontFamily, style, size)
	p.textColor(col)
}

// text writes s at a baseline position.
func (p *painter) text(x, y float64, s string) {
	p.c.Text(x, y, p.tr(plainText(s)))
}

// cell writes s aligned inside a w-wide box whose top-left is (x, y).
func (p *painter) cell(x, y, w, h float64, s, align string) {
	p.c.SetXY(x, y)
	p.c.CellFormat(w, h, p.tr(plainText(s)), "", 0, align, false, 0, "")
}

// wrap splits s into lines no wider than w in the current font, keeping at
// most max lines.
func (p *painter) wrap(s string, w float64, max int) []string {
	s = strings.TrimSpace(plainText(s))
	if s == "" {
		return nil
	}
	lines := p.c.SplitText(s, w)
	if len(lines) > max {
		lines = lines[:max]
	}
	return lines
}

// ---------------------------------------------------------------------------
// Stars
// ---------------------------------------------------------------------------

type starFill int

const (
	starEmpty starFill = iota
	starHalf
	starFull
)

// starVertices returns the ten vertices of a five-point star, alternating the
// outer radius size and the inner radius size/2, starting straight up (270°).
func starVertices(cx, cy, size float64) [10]fpdf.PointType {
	var pts [10]fpdf.PointType
	rot := 3 * math.Pi / 2
	for i := range pts {
		r := size
		if i%2 == 1 {
			r = size / 2
		}
		pts[i] = fpdf.PointType{X: cx + math.Cos(rot)*r, Y: cy + math.Sin(rot)*r}
		rot += math.Pi / 5
	}
	return pts
}

// drawStar draws a star centered on (cx, cy) with the current colors.
// outline strokes the ten edges only. Otherwise the star is filled as a fan
// of triangles from the center; half keeps only the triangles whose outer
// edge midpoint lies left of the center, which fills the left half.
func drawStar(c canvas, cx, cy, size float64, half, outline bool) {
	pts := starVertices(cx, cy, size)
	if outline {
		for i := range pts {
			next := pts[(i+1)%len(pts)]
			c.Line(pts[i].X, pts[i].Y, next.X, next.Y)
		}
		return
	}
	center := fpdf.PointType{X: cx, Y: cy}
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		if half && (a.X+b.X)/2 >= cx {
			continue
		}
		c.Polygon([]fpdf.PointType{center, a, b}, "F")
	}
}

// starFills splits a 0-5 rating into five slots: floor(r) full stars, one half
// star when the fractional part is at least .5, the rest empty.
func starFills(rating float64) [5]starFill {
	var fills [5]starFill
	rating = math.Max(0, math.Min(5, rating))
	full := int(math.Floor(rating))
	for i := 0; i < full; i++ {
		fills[i] = starFull
	}
	if full < 5 && rating-float64(full) >= 0.5 {
		fills[full] = starHalf
	}
	return fills
}

// drawRatingStars draws a five-star strip starting at x with centers on y and
// returns the x just past the last star.
func (p *painter) drawRatingStars(x, y, size, gap, rating float64) float64 {
	p.fill(p.theme.Star)
	p.stroke(p.theme.Star)
	p.c.SetLineWidth(0.2)
	for _, f := range starFills(rating) {
		cx := x + size
		switch f {
		case starFull:
			drawStar(p.c, cx, y, size, false, false)
		case starHalf:
			drawStar(p.c, cx, y, size, false, true)
			drawStar(p.c, cx, y, size, true, false)
		default:
			drawStar(p.c, cx, y, size, false, true)
		}
		x += 2*size + gap
	}
	return x
}

// ---------------------------------------------------------------------------
// Cards & Section Headers
// ---------------------------------------------------------------------------

// drawCard draws a rounded, bordered card, with an offset soft shadow beneath
// it when shadow is set.
func (p *painter) drawCard(x, y, w, h float64, shadow bool) {
	if shadow {
		p.c.SetAlpha(0.6, "Normal")
		p.fill(p.theme.Shadow)
		p.c.RoundedRect(x+shadowOffset, y+shadowOffset, w, h, cardRadius, "1234", "F")
		p.c.SetAlpha(1, "Normal")
	}
	p.fill(p.theme.Card)
	p.stroke(p.theme.Border)
	p.c.SetLineWidth(0.2)
	p.c.RoundedRect(x, y, w, h, cardRadius, "1234", "FD")
}

// drawSectionHeader draws an accent bar and bold title at (x, y) and returns
// the y where the section body starts.
func (p *painter) drawSectionHeader(title string, x, y float64) float64 {
	p.fill(p.theme.Primary)
	p.c.Rect(x, y, 1.5, 7, "F")
	p.font("B", 12, p.theme.Text)
	p.text(x+4, y+5.5, title)
	return y + sectionHeaderAdvance
}
