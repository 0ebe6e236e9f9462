package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Report Document
// ---------------------------------------------------------------------------

// ErrReportFailed is returned for any failure while composing a report. No
// partial document is ever returned with it.
var ErrReportFailed = errors.New("failed to generate PDF")

const (
	systemName     = "LPU Thesis Portal"
	reportTitle    = "Thesis Statistics Report"
	reportSubtitle = "Thesis submission analytics"

	pageMargin   = 12.0
	headerHeight = 34.0
	footerHeight = 12.0
	sectionGap   = 6.0

	kpiHeight     = 26.0
	kpiGap        = 4.0
	chartCardH    = 72.0
	trendCardH    = 85.0
	barRowH       = 8.0
	cardPadding   = 4.0
	commentBlockH = 25.0
	commentGap    = 3.0
	minCardHeight = 16.0

	headerImageName = "report-header"
)

var white = rgb{255, 255, 255}

// document is the fpdf surface the composer writes pages to.
type document interface {
	canvas
	AddPage()
	PageNo() int
	PageCount() int
	SetPage(pageNum int)
	GetPageSize() (width, height float64)
	SetAutoPageBreak(auto bool, margin float64)
	UnicodeTranslatorFromDescriptor(cpStr string) func(string) string
	Err() bool
	Error() error
	Output(w io.Writer) error
}

// newFpdfDocument returns an A4 portrait document with automatic page breaks
// off; the composer decides every page.
func newFpdfDocument(generated time.Time) document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(reportTitle, true)
	pdf.SetCreator(systemName, true)
	pdf.SetCreationDate(generated)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	return pdf
}

// Report is a finished PDF held in memory.
type Report struct {
	FileName string
	Data     []byte
	Pages    int
}

// ExportResult is the structured outcome of exporting a report.
type ExportResult struct {
	Success  bool   `json:"success"`
	FileName string `json:"fileName"`
	Path     string `json:"path,omitempty"`
}

// ReportOptions controls presentation and chart capture of one report.
type ReportOptions struct {
	Layout       ReportLayout
	Theme        ReportTheme
	Capturer     ChartCapturer
	CaptureDelay time.Duration
	RecentDays   int
	Generated    time.Time

	newDocument func(generated time.Time) document
}

// generateReport captures the charts, composes every page of the layout and
// returns the finished document. Any failure, including a panic inside the
// PDF library, is reported as ErrReportFailed.
func generateReport(ctx context.Context, stats StatsData, filter ReportFilter, opts ReportOptions) (report *Report, err error) {
	if opts.Generated.IsZero() {
		opts.Generated = time.Now()
	}
	if opts.RecentDays <= 0 {
		opts.RecentDays = 30
	}
	if opts.newDocument == nil {
		opts.newDocument = newFpdfDocument
	}
	log := zap.L().With(zap.String("layout", opts.Layout.Name), zap.String("theme", opts.Theme.Name))

	images := captureCharts(ctx, opts.Capturer, chartsFor(opts.Layout), opts.CaptureDelay)
	log.Debug("charts captured", zap.Int("images", len(images)))

	defer func() {
		if r := recover(); r != nil {
			report, err = nil, fmt.Errorf("%w: panic: %v", ErrReportFailed, r)
		}
		if err != nil {
			log.Error("report generation failed", zap.Error(err))
		}
	}()

	doc := opts.newDocument(opts.Generated)
	c := newComposer(doc, stats, filter, opts, images)
	if opts.Theme.Header == headerImage && opts.Theme.HeaderImage != "" {
		w, _ := doc.GetPageSize()
		if c.header, err = prepareHeaderImage(opts.Theme.HeaderImage, w, headerHeight); err != nil {
			log.Warn("header image unavailable, drawing banner", zap.Error(err))
			err = nil
		}
	}

	if err := c.compose(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportFailed, err)
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportFailed, err)
	}

	report = &Report{
		FileName: reportFileName(filter.Year, opts.Generated),
		Data:     buf.Bytes(),
		Pages:    doc.PageCount(),
	}
	log.Info("report generated",
		zap.String("file", report.FileName),
		zap.Int("pages", report.Pages),
		zap.Int("bytes", len(report.Data)))
	return report, nil
}

// saveReport writes the report into dir under its file name.
func saveReport(dir string, r *Report) (ExportResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, r.FileName)
	if err := os.WriteFile(path, r.Data, 0o644); err != nil {
		return ExportResult{}, fmt.Errorf("failed to write report: %w", err)
	}
	return ExportResult{Success: true, FileName: r.FileName, Path: path}, nil
}

// ---------------------------------------------------------------------------
// Page Composer
// ---------------------------------------------------------------------------

// composer lays out the fixed page sequence of a layout. Every layout step
// takes the current y and returns the next one.
type composer struct {
	doc        document
	p          *painter
	stats      StatsData
	filter     ReportFilter
	layout     ReportLayout
	images     map[string][]byte
	header     []byte
	generated  time.Time
	recentDays int
	pageW      float64
	pageH      float64

	// paths records how each chart was rendered.
	paths map[string]renderPath
}

func newComposer(doc document, stats StatsData, filter ReportFilter, opts ReportOptions, images map[string][]byte) *composer {
	w, h := doc.GetPageSize()
	return &composer{
		doc:        doc,
		p:          newPainter(doc, opts.Theme, doc.UnicodeTranslatorFromDescriptor("")),
		stats:      stats,
		filter:     filter,
		layout:     opts.Layout,
		images:     images,
		generated:  opts.Generated,
		recentDays: opts.RecentDays,
		pageW:      w,
		pageH:      h,
		paths:      make(map[string]renderPath),
	}
}

func (c *composer) contentW() float64      { return c.pageW - 2*pageMargin }
func (c *composer) contentBottom() float64 { return c.pageH - footerHeight - 3 }

func (c *composer) image(id string) chartImage {
	return chartImage{id: id, png: c.images[id]}
}

func (c *composer) rendered(id string, path renderPath) {
	c.paths[id] = path
	zap.L().Debug("chart rendered", zap.String("chart", id), zap.Stringer("path", path))
}

// compose adds one page per page kind and stamps the footers once all pages
// exist.
func (c *composer) compose() error {
	for i, kind := range c.layout.Pages {
		c.doc.AddPage()
		c.paintBackground()
		y := c.drawHeader(i == 0)

		switch kind {
		case pageOverview:
			c.overviewPage(y)
		case pageRankings:
			c.rankingsPage(y)
		case pageTrends:
			c.trendsPage(y)
		case pageCampusSummary:
			c.campusSummaryPage(y)
		case pageDetailed:
			c.detailedPage(y)
		default:
			return fmt.Errorf("unsupported page kind %s", kind)
		}
		if c.doc.Err() {
			return fmt.Errorf("page %d (%s): %w", i+1, kind, c.doc.Error())
		}
	}
	c.stampFooters()
	return c.doc.Error()
}

func (c *composer) paintBackground() {
	c.p.fill(c.p.theme.Background)
	c.doc.Rect(0, 0, c.pageW, c.pageH, "F")
}

// drawHeader draws the header band and, on the first page, the report period
// pill. It returns the y where content starts.
func (c *composer) drawHeader(first bool) float64 {
	p := c.p
	if c.p.theme.Header == headerImage && len(c.header) > 0 {
		p.placeChartImage(chartImage{id: headerImageName, png: c.header}, rect{W: c.pageW, H: headerHeight})
	} else {
		p.fill(p.theme.Primary)
		c.doc.Rect(0, 0, c.pageW, headerHeight, "F")
		p.fill(p.theme.Accent)
		c.doc.Rect(0, headerHeight-1.2, c.pageW, 1.2, "F")
	}

	p.font("B", 20, white)
	p.text(pageMargin, 16, reportTitle)
	p.font("", 10, white)
	p.text(pageMargin, 24, reportSubtitle+" | "+systemName)

	y := headerHeight + 6
	if !first {
		return y + 2
	}

	caption := reportPeriodCaption(c.filter)
	p.font("B", 8.5, p.theme.Primary)
	w := c.doc.GetStringWidth(plainText(caption)) + 10
	p.fill(p.theme.Track)
	c.doc.RoundedRect(pageMargin, y, w, 7, 3.5, "1234", "F")
	p.cell(pageMargin, y, w, 7, caption, "C")
	return y + 12
}

// stampFooters revisits every page and draws its footer band.
func (c *composer) stampFooters() {
	p := c.p
	total := c.doc.PageCount()
	y := c.pageH - footerHeight
	for i := 1; i <= total; i++ {
		c.doc.SetPage(i)
		p.stroke(p.theme.Border)
		c.doc.SetLineWidth(0.3)
		c.doc.Line(pageMargin, y, c.pageW-pageMargin, y)

		// Font state carries over between pages; switching style forces
		// fpdf to emit it into this page.
		p.font("B", 7.5, p.theme.Muted)
		p.cell(pageMargin, y+2, c.contentW()/3, 6, systemName, "L")
		p.font("", 7.5, p.theme.Muted)
		p.cell(pageMargin+c.contentW()/3, y+2, c.contentW()/3, 6, fmt.Sprintf("Page %d of %d", i, total), "C")
		p.cell(pageMargin+2*c.contentW()/3, y+2, c.contentW()/3, 6, formatGenerated(c.generated), "R")
	}
	c.doc.SetPage(total)
}

// section draws a header and a card of at most h below it, shrunk to the
// room left on the page. ok is false when no usable card fits, in which case
// nothing is drawn.
func (c *composer) section(title string, x, y, w, h float64) (card rect, next float64, ok bool) {
	body := y + sectionHeaderAdvance
	room := c.contentBottom() - body
	if room < minCardHeight {
		return rect{}, y, false
	}
	h = math.Min(h, room)
	c.p.drawSectionHeader(title, x, y)
	c.p.drawCard(x, body, w, h, true)
	return rect{X: x, Y: body, W: w, H: h}, body + h + sectionGap, true
}

// ---------------------------------------------------------------------------
// Sections
// ---------------------------------------------------------------------------

type kpi struct {
	label  string
	value  string
	detail string
	stars  float64
	rated  bool
}

func (c *composer) kpis() [4]kpi {
	s := c.stats
	students := s.LPUStudents + s.NonLPUStudents
	return [4]kpi{
		{label: "LPU Students", value: formatCount(s.LPUStudents),
			detail: formatPercent(shareOf(s.LPUStudents, students)) + " of students"},
		{label: "Non-LPU Students", value: formatCount(s.NonLPUStudents),
			detail: formatPercent(shareOf(s.NonLPUStudents, students)) + " of students"},
		{label: "Total Submissions", value: formatCount(s.TotalSubmissions),
			detail: fmt.Sprintf("%s in last %d days", formatCount(s.RecentSubmissions), c.recentDays)},
		{label: "Average Rating", value: formatRating(s.FeedbackStats.AverageRating),
			detail: formatCount(s.FeedbackStats.TotalFeedback) + " responses",
			stars: s.FeedbackStats.AverageRating, rated: true},
	}
}

// kpiRow draws the four equal-width KPI cards.
func (c *composer) kpiRow(y float64) float64 {
	p := c.p
	w := (c.contentW() - 3*kpiGap) / 4
	for i, k := range c.kpis() {
		x := pageMargin + float64(i)*(w+kpiGap)
		p.drawCard(x, y, w, kpiHeight, true)
		p.fill(p.theme.seriesColor(i))
		c.doc.Rect(x, y+4, 1.2, kpiHeight-8, "F")

		p.font("", 7.5, p.theme.Muted)
		p.cell(x+4, y+2, w-6, 5, k.label, "L")
		p.font("B", 15, p.theme.Text)
		p.cell(x+4, y+8, w-6, 8, k.value, "L")
		p.font("", 7, p.theme.Muted)
		if !k.rated {
			p.cell(x+4, y+18, w-6, 5, k.detail, "L")
			continue
		}
		// stars share the detail line with the response count
		p.drawRatingStars(x+4, y+20.5, 1.3, 0.5, k.stars)
		p.cell(x+4, y+18, w-6, 5, k.detail, "R")
	}
	return y + kpiHeight + sectionGap + 2
}

// splitAndRatings draws the student split and rating histogram side by side.
func (c *composer) splitAndRatings(y float64) float64 {
	half := (c.contentW() - sectionGap) / 2
	next := y

	if card, n, ok := c.section("Student Distribution", pageMargin, y, half, chartCardH); ok {
		path := c.p.drawSplitPie(
			splitSlice{Label: "LPU", Value: c.stats.LPUStudents},
			splitSlice{Label: "Non-LPU", Value: c.stats.NonLPUStudents},
			card.inset(cardPadding), c.image(chartStudentSplit))
		c.rendered(chartStudentSplit, path)
		next = n
	}
	if card, n, ok := c.section("Rating Distribution", pageMargin+half+sectionGap, y, half, chartCardH); ok {
		path := c.p.drawRatingHistogram(c.stats.FeedbackStats, card.inset(cardPadding), c.image(chartRatings))
		c.rendered(chartRatings, path)
		next = math.Max(next, n)
	}
	return next
}

func (c *composer) trendSection(y, h float64) float64 {
	card, next, ok := c.section("Monthly Submission Trend", pageMargin, y, c.contentW(), h)
	if !ok {
		return y
	}
	path := c.p.drawTrendLine(c.stats.MonthlyData, c.layout.TrendPoints, card.inset(cardPadding), c.image(chartMonthlyTrend))
	c.rendered(chartMonthlyTrend, path)
	return next
}

// barSection draws a horizontal bar chart with one row per item, dropping
// rows that do not fit.
func (c *composer) barSection(title, id string, items []barItem, y float64) float64 {
	h := float64(len(items))*barRowH + 2*cardPadding
	if len(items) == 0 {
		h = 20
	}
	card, next, ok := c.section(title, pageMargin, y, c.contentW(), h)
	if !ok {
		return y
	}
	if fit := int((card.H - 2*cardPadding) / barRowH); fit < len(items) {
		items = items[:max(fit, 0)]
	}
	path := c.p.drawHorizontalBars(items, card.inset(cardPadding), c.image(id), c.layout.LabelBudget)
	c.rendered(id, path)
	return next
}

// highlights lists headline facts derived from the series.
func (c *composer) highlights() []string {
	s := c.stats
	var lines []string
	if len(s.PopularPrograms) > 0 {
		top := s.PopularPrograms[0]
		lines = append(lines, fmt.Sprintf("Most popular program: %s, %s", top.Name, rankLabel(top.Count, top.Percentage)))
	}
	if len(s.CampusData) > 0 {
		top := s.CampusData[0]
		for _, cd := range s.CampusData[1:] {
			if cd.Value > top.Value {
				top = cd
			}
		}
		lines = append(lines, fmt.Sprintf("Largest campus: %s with %s submissions", top.Name, formatCount(top.Value)))
	}
	if len(s.MonthlyData) > 0 {
		busiest := s.MonthlyData[0]
		for _, m := range s.MonthlyData[1:] {
			if m.Submissions > busiest.Submissions {
				busiest = m
			}
		}
		lines = append(lines, fmt.Sprintf("Busiest month: %s with %s submissions", busiest.Month, formatCount(busiest.Submissions)))
	}
	if s.FeedbackStats.TotalFeedback > 0 {
		lines = append(lines, fmt.Sprintf("Feedback: %s responses averaging %s",
			formatCount(s.FeedbackStats.TotalFeedback), formatRating(s.FeedbackStats.AverageRating)))
	}
	if len(lines) == 0 {
		lines = append(lines, "No submissions recorded for this period")
	}
	return lines
}

func (c *composer) highlightsSection(y float64) float64 {
	const lineH = 7.0
	lines := c.highlights()
	card, next, ok := c.section("Highlights", pageMargin, y, c.contentW(), float64(len(lines))*lineH+2*cardPadding)
	if !ok {
		return y
	}
	p := c.p
	for i, line := range lines {
		ly := card.Y + cardPadding + float64(i)*lineH
		if ly+lineH > card.Y+card.H {
			break
		}
		p.fill(p.theme.seriesColor(i))
		c.doc.Circle(card.X+cardPadding+1.5, ly+lineH/2, 1, "F")
		p.font("", 9, p.theme.Text)
		p.cell(card.X+cardPadding+5, ly, card.W-2*cardPadding-5, lineH, line, "L")
	}
	return next
}

// commentsSection renders up to the layout's comment cap of commented
// feedback entries in the given number of columns, as many as fit.
func (c *composer) commentsSection(y float64, columns int) float64 {
	if c.contentBottom()-(y+sectionHeaderAdvance) < commentBlockH {
		return y
	}
	p := c.p
	y = p.drawSectionHeader("Recent Feedback", pageMargin, y)

	entries := c.stats.FeedbackStats.commented(c.layout.CommentCap)
	if len(entries) == 0 {
		p.font("I", 9, p.theme.Muted)
		p.cell(pageMargin, y, c.contentW(), 6, "No feedback comments for this period", "L")
		return y + 6 + sectionGap
	}

	colW := (c.contentW() - float64(columns-1)*commentGap) / float64(columns)
	rowsFit := int((c.contentBottom() - y + commentGap) / (commentBlockH + commentGap))
	if limit := rowsFit * columns; len(entries) > limit {
		entries = entries[:limit]
	}
	for i, e := range entries {
		x := pageMargin + float64(i%columns)*(colW+commentGap)
		c.drawComment(e, x, y+float64(i/columns)*(commentBlockH+commentGap), colW)
	}
	rows := (len(entries) + columns - 1) / columns
	return y + float64(rows)*(commentBlockH+commentGap)
}

// commentLines returns at most two lines: the comment and, when known, the
// thesis title; otherwise up to two lines of comment.
func (p *painter) commentLines(e FeedbackEntry, w float64) []string {
	comment := ""
	if e.Comments != nil {
		comment = *e.Comments
	}
	if e.ThesisTitle == "" {
		return p.wrap(comment, w, 2)
	}
	return append(p.wrap(comment, w, 1), p.wrap("Thesis: "+e.ThesisTitle, w, 1)...)
}

func (c *composer) drawComment(e FeedbackEntry, x, y, w float64) {
	p := c.p
	p.drawCard(x, y, w, commentBlockH, false)
	p.fill(p.theme.Primary)
	c.doc.RoundedRect(x, y, w, 6, cardRadius, "12", "F")
	p.font("B", 7.5, white)
	p.cell(x+3, y, w-6, 6, e.CreatedAt.Format(displayDate), "L")
	p.cell(x+3, y, w-6, 6, fmt.Sprintf("Rating: %d/5", e.Rating), "R")

	p.drawRatingStars(x+3, y+10, 1.8, 0.8, float64(e.Rating))

	p.font("", 8, p.theme.Text)
	for i, line := range p.commentLines(e, w-6) {
		p.text(x+3, y+17+float64(i)*4.5, line)
	}
}

// summaryGrid draws the eight headline figures in a four-column grid.
func (c *composer) summaryGrid(y float64) float64 {
	s := c.stats
	perDay := "n/a"
	if s.WorkingDays > 0 {
		perDay = fmt.Sprintf("%.1f", float64(s.TotalSubmissions)/float64(s.WorkingDays))
	}
	cells := [][2]string{
		{"Total Submissions", formatCount(s.TotalSubmissions)},
		{"Registered Users", formatCount(s.TotalUsers)},
		{fmt.Sprintf("Last %d Days", c.recentDays), formatCount(s.RecentSubmissions)},
		{"LPU / Non-LPU", formatCount(s.LPUStudents) + " / " + formatCount(s.NonLPUStudents)},
		{"Feedback Responses", formatCount(s.FeedbackStats.TotalFeedback)},
		{"Average Rating", formatRating(s.FeedbackStats.AverageRating)},
		{"Working Days", formatCount(s.WorkingDays)},
		{"Per Working Day", perDay},
	}

	const cellH, cols = 20.0, 4
	card, next, ok := c.section("Summary", pageMargin, y, c.contentW(), 2*cellH+2*cardPadding)
	if !ok {
		return y
	}
	p := c.p
	cellW := (card.W - 2*cardPadding) / cols
	for i, kv := range cells {
		cx := card.X + cardPadding + float64(i%cols)*cellW
		cy := card.Y + cardPadding + float64(i/cols)*cellH
		if cy+cellH > card.Y+card.H {
			break
		}
		p.font("", 7.5, p.theme.Muted)
		p.cell(cx+2, cy+2, cellW-4, 5, kv[0], "L")
		p.font("B", 12, p.theme.Text)
		p.cell(cx+2, cy+8, cellW-4, 8, kv[1], "L")
	}
	return next
}

// ---------------------------------------------------------------------------
// Pages
// ---------------------------------------------------------------------------

func (c *composer) overviewPage(y float64) {
	y = c.kpiRow(y)
	y = c.splitAndRatings(y)
	if c.layout.has(pageTrends) {
		c.highlightsSection(y)
		return
	}
	c.trendSection(y, trendCardH)
}

func (c *composer) rankingsPage(y float64) {
	y = c.barSection("Top Programs", chartPrograms, rankedBars(topRanked(c.stats.PopularPrograms, c.layout.RankedRows)), y)
	c.barSection("Programs by Degree", chartDegrees, rankedBars(topRanked(c.stats.ProgramsByDegree, c.layout.RankedRows)), y)
}

func (c *composer) trendsPage(y float64) {
	y = c.trendSection(y, trendCardH)
	c.commentsSection(y, 1)
}

func (c *composer) campusSection(y float64) float64 {
	return c.barSection("Submissions by Campus", chartCampus, campusBars(c.stats.CampusData, c.layout.CampusRows), y)
}

func (c *composer) campusSummaryPage(y float64) {
	y = c.campusSection(y)
	c.summaryGrid(y)
}

func (c *composer) detailedPage(y float64) {
	y = c.barSection("Top Programs", chartPrograms, rankedBars(topRanked(c.stats.PopularPrograms, c.layout.RankedRows)), y)
	y = c.campusSection(y)
	c.commentsSection(y, 2)
}

// topRanked keeps the first n items of a ranked series without reordering.
func topRanked(items []RankedItem, n int) []RankedItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}
