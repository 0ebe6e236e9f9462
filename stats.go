package main

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Statistics Input
// ---------------------------------------------------------------------------

// NamedValue is one bar of a breakdown series (campus name and submission count).
type NamedValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// MonthlyPoint is one point of the chronological submission series.
type MonthlyPoint struct {
	Month       string `json:"month"`
	Submissions int    `json:"submissions"`
}

// RankedItem is one row of a ranked list. Percentage is computed by whoever
// builds the series and is displayed verbatim.
type RankedItem struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RatingBucket holds the number of responses for one star rating.
type RatingBucket struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

// FeedbackEntry is a single portal feedback response.
type FeedbackEntry struct {
	ID          string    `json:"id"`
	Rating      int       `json:"rating"`
	Comments    *string   `json:"comments"`
	CreatedAt   time.Time `json:"created_at"`
	ThesisTitle string    `json:"thesis_title,omitempty"`
}

// HasComment reports whether the entry carries non-blank comment text.
func (f FeedbackEntry) HasComment() bool {
	return f.Comments != nil && strings.TrimSpace(*f.Comments) != ""
}

type FeedbackStats struct {
	TotalFeedback      int             `json:"totalFeedback"`
	AverageRating      float64         `json:"averageRating"`
	RatingDistribution []RatingBucket  `json:"ratingDistribution"`
	RecentFeedback     []FeedbackEntry `json:"recentFeedback"`
}

// StatsData is the aggregated dashboard snapshot a report is rendered from.
// LPU and non-LPU counts are filtered independently and need not add up to
// TotalSubmissions.
type StatsData struct {
	TotalSubmissions  int            `json:"totalSubmissions"`
	TotalUsers        int            `json:"totalUsers"`
	RecentSubmissions int            `json:"recentSubmissions"`
	LPUStudents       int            `json:"lpuStudents"`
	NonLPUStudents    int            `json:"nonLpuStudents"`
	CampusData        []NamedValue   `json:"campusData"`
	MonthlyData       []MonthlyPoint `json:"monthlyData"`
	PopularPrograms   []RankedItem   `json:"popularPrograms"`
	ProgramsByDegree  []RankedItem   `json:"programsByDegree"`
	FeedbackStats     FeedbackStats  `json:"feedbackStats"`
	WorkingDays       int            `json:"workingDays"`
}

// ratingCount returns the count of the given rating bucket, 0 when absent.
func (s FeedbackStats) ratingCount(rating int) int {
	for _, b := range s.RatingDistribution {
		if b.Rating == rating {
			return b.Count
		}
	}
	return 0
}

// commented returns up to limit entries that carry comment text, in input order.
func (s FeedbackStats) commented(limit int) []FeedbackEntry {
	var out []FeedbackEntry
	for _, f := range s.RecentFeedback {
		if len(out) >= limit {
			break
		}
		if f.HasComment() {
			out = append(out, f)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Report Filter
// ---------------------------------------------------------------------------

// yearAll selects every submission regardless of year.
const yearAll = "all"

var yearRegex = regexp.MustCompile(`^[0-9]{4}$`)

// DateRange is an inclusive calendar-day range.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ReportFilter is the dashboard filter a report was generated under.
type ReportFilter struct {
	Year  string     `json:"year"`
	Range *DateRange `json:"range,omitempty"`
}

// Validate checks the year token and range ordering.
func (f ReportFilter) Validate() error {
	if f.Year != yearAll && !yearRegex.MatchString(f.Year) {
		return fmt.Errorf("invalid year %q: want %q or a 4-digit year", f.Year, yearAll)
	}
	if f.Range != nil && f.Range.End.Before(f.Range.Start) {
		return fmt.Errorf("invalid range: end %s before start %s",
			f.Range.End.Format(isoDate), f.Range.Start.Format(isoDate))
	}
	return nil
}

// bounds returns the half-open [from, to) interval selected by the filter.
// ok is false when the filter is unbounded (all time, no range).
func (f ReportFilter) bounds() (from, to time.Time, ok bool) {
	if f.Year != yearAll {
		var year int
		fmt.Sscanf(f.Year, "%d", &year)
		from = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(1, 0, 0)
		ok = true
	}
	if f.Range != nil {
		start := dayStart(f.Range.Start)
		end := dayStart(f.Range.End).AddDate(0, 0, 1)
		if !ok || start.After(from) {
			from = start
		}
		if !ok || end.Before(to) {
			to = end
		}
		ok = true
	}
	return from, to, ok
}

// parseFilter builds a filter from a year token and optional ISO start and
// end dates. An empty year means all time. Start and end go together.
func parseFilter(year, start, end string) (ReportFilter, error) {
	f := ReportFilter{Year: strings.ToLower(strings.TrimSpace(year))}
	if f.Year == "" {
		f.Year = yearAll
	}
	if (start == "") != (end == "") {
		return ReportFilter{}, fmt.Errorf("invalid range: start and end must be given together")
	}
	if start != "" {
		from, err := time.Parse(isoDate, start)
		if err != nil {
			return ReportFilter{}, fmt.Errorf("invalid start date %q: %w", start, err)
		}
		to, err := time.Parse(isoDate, end)
		if err != nil {
			return ReportFilter{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
		f.Range = &DateRange{Start: from, End: to}
	}
	if err := f.Validate(); err != nil {
		return ReportFilter{}, err
	}
	return f, nil
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
