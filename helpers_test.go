package main

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
)

// fakeCanvas records drawing calls without producing a document.
type fakeCanvas struct {
	polygons [][]fpdf.PointType
	lines    int
	rects    int
	rounded  int
	circles  int
	texts    []string
	images   []string
}

func (f *fakeCanvas) SetFillColor(r, g, b int) {}
func (f *fakeCanvas) SetDrawColor(r, g, b int) {}
func (f *fakeCanvas) SetTextColor(r, g, b int) {}
func (f *fakeCanvas) SetLineWidth(width float64) {}
func (f *fakeCanvas) SetFont(familyStr, styleStr string, size float64) {}
func (f *fakeCanvas) SetAlpha(alpha float64, blendModeStr string) {}
func (f *fakeCanvas) SetXY(x, y float64) {}

func (f *fakeCanvas) Rect(x, y, w, h float64, styleStr string) { f.rects++ }

func (f *fakeCanvas) RoundedRect(x, y, w, h, r float64, corners string, stylestr string) {
	f.rounded++
}

func (f *fakeCanvas) Polygon(points []fpdf.PointType, styleStr string) {
	f.polygons = append(f.polygons, points)
}

func (f *fakeCanvas) Line(x1, y1, x2, y2 float64) { f.lines++ }
func (f *fakeCanvas) Circle(x, y, r float64, styleStr string) { f.circles++ }
func (f *fakeCanvas) Text(x, y float64, txtStr string) { f.texts = append(f.texts, txtStr) }

func (f *fakeCanvas) CellFormat(w, h float64, txtStr, borderStr string, ln int, alignStr string, fill bool, link int, linkStr string) {
	f.texts = append(f.texts, txtStr)
}

func (f *fakeCanvas) GetStringWidth(s string) float64 { return float64(len(s)) * 1.8 }

func (f *fakeCanvas) SplitText(txt string, w float64) []string {
	perLine := int(w / 1.8)
	if perLine < 1 {
		perLine = 1
	}
	var lines []string
	for len(txt) > perLine {
		lines = append(lines, txt[:perLine])
		txt = txt[perLine:]
	}
	return append(lines, txt)
}

func (f *fakeCanvas) RegisterImageOptionsReader(imgName string, options fpdf.ImageOptions, r io.Reader) *fpdf.ImageInfoType {
	return &fpdf.ImageInfoType{}
}

func (f *fakeCanvas) ImageOptions(imageNameStr string, x, y, w, h float64, flow bool, options fpdf.ImageOptions, link int, linkStr string) {
	f.images = append(f.images, imageNameStr)
}

func (f *fakeCanvas) hasText(s string) bool {
	for _, t := range f.texts {
		if t == s {
			return true
		}
	}
	return false
}

func newFakePainter() (*painter, *fakeCanvas) {
	fc := &fakeCanvas{}
	return newPainter(fc, themes["classic"], nil), fc
}

// recordingDoc is a real fpdf document that also records the text and images
// placed on it.
type recordingDoc struct {
	*fpdf.Fpdf
	texts  []string
	images []string
	lines  int
}

func newRecordingDoc(generated time.Time) *recordingDoc {
	return &recordingDoc{Fpdf: newFpdfDocument(generated).(*fpdf.Fpdf)}
}

func (d *recordingDoc) Text(x, y float64, s string) {
	d.texts = append(d.texts, s)
	d.Fpdf.Text(x, y, s)
}

func (d *recordingDoc) CellFormat(w, h float64, txtStr, borderStr string, ln int, alignStr string, fill bool, link int, linkStr string) {
	d.texts = append(d.texts, txtStr)
	d.Fpdf.CellFormat(w, h, txtStr, borderStr, ln, alignStr, fill, link, linkStr)
}

func (d *recordingDoc) Line(x1, y1, x2, y2 float64) {
	d.lines++
	d.Fpdf.Line(x1, y1, x2, y2)
}

func (d *recordingDoc) ImageOptions(name string, x, y, w, h float64, flow bool, options fpdf.ImageOptions, link int, linkStr string) {
	d.images = append(d.images, name)
	d.Fpdf.ImageOptions(name, x, y, w, h, flow, options, link, linkStr)
}

func (d *recordingDoc) hasText(s string) bool {
	for _, t := range d.texts {
		if t == s {
			return true
		}
	}
	return false
}

func (d *recordingDoc) containsText(sub string) bool {
	for _, t := range d.texts {
		if strings.Contains(t, sub) {
			return true
		}
	}
	return false
}

func (d *recordingDoc) hasImage(name string) bool {
	for _, n := range d.images {
		if n == name {
			return true
		}
	}
	return false
}

// recordInto returns a document factory that hands out doc.
func recordInto(doc *recordingDoc) func(time.Time) document {
	return func(time.Time) document { return doc }
}

// testPNG returns a small encoded PNG.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(w, h, color.NRGBA{R: 52, G: 152, B: 219, A: 255})
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func strPtr(s string) *string { return &s }

// sampleStats builds statistics with the given number of programs, campuses,
// months and feedback entries.
func sampleStats(programs, campuses, months, feedback int) StatsData {
	s := StatsData{
		TotalSubmissions:  12480,
		TotalUsers:        42,
		RecentSubmissions: 310,
		LPUStudents:       9360,
		NonLPUStudents:    3120,
		WorkingDays:       250,
	}
	for i := 0; i < programs; i++ {
		s.PopularPrograms = append(s.PopularPrograms, RankedItem{
			Name: fmt.Sprintf("Program %02d", i+1), Count: 500 - i, Percentage: 4.1,
		})
	}
	s.ProgramsByDegree = []RankedItem{
		{Name: "Bachelor", Count: 8000, Percentage: 64.1},
		{Name: "Master", Count: 4000, Percentage: 32.1},
		{Name: "Doctorate", Count: 480, Percentage: 3.8},
	}
	for i := 0; i < campuses; i++ {
		s.CampusData = append(s.CampusData, NamedValue{Name: fmt.Sprintf("Campus %02d", i+1), Value: 100 + i})
	}
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < months; i++ {
		s.MonthlyData = append(s.MonthlyData, MonthlyPoint{
			Month: start.AddDate(0, i, 0).Format(monthLabel), Submissions: 200 + 10*i,
		})
	}
	fs := FeedbackStats{AverageRating: 4.3}
	for r := 1; r <= 5; r++ {
		fs.RatingDistribution = append(fs.RatingDistribution, RatingBucket{Rating: r, Count: r * 3})
		fs.TotalFeedback += r * 3
	}
	for i := 0; i < feedback; i++ {
		e := FeedbackEntry{
			ID:        fmt.Sprintf("fb-%d", i),
			Rating:    i%5 + 1,
			CreatedAt: time.Date(2025, time.February, 1+i%28, 10, 0, 0, 0, time.UTC),
		}
		if i%3 != 2 {
			e.Comments = strPtr(fmt.Sprintf("Comment number %d about the submission process", i))
		}
		if i%2 == 0 {
			e.ThesisTitle = fmt.Sprintf("Thesis %d", i)
		}
		fs.RecentFeedback = append(fs.RecentFeedback, e)
	}
	s.FeedbackStats = fs
	return s
}
