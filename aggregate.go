package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rickar/cal/v2"
	"gorm.io/gorm"
)

// ---------------------------------------------------------------------------
// Statistics Aggregation
// ---------------------------------------------------------------------------

const (
	recentFeedbackLimit = 10
	monthLabel          = "Jan 2006"
	unspecified         = "Unspecified"
)

// Aggregator computes dashboard statistics from the store.
type Aggregator struct {
	store      *Store
	calendar   *cal.BusinessCalendar
	recentDays int
	now        func() time.Time
}

func newAggregator(store *Store, calendar *cal.BusinessCalendar, recentDays int) *Aggregator {
	return &Aggregator{store: store, calendar: calendar, recentDays: recentDays, now: time.Now}
}

// newBusinessCalendar returns a Monday to Friday calendar with the configured
// fixed-date holidays.
func newBusinessCalendar(cfg CalendarConfig) *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.Name = cfg.Name
	c.Description = "Working days for thesis submissions"
	for _, h := range cfg.Holidays {
		c.AddHoliday(&cal.Holiday{
			Name:  h.Name,
			Type:  cal.ObservancePublic,
			Month: time.Month(h.Month),
			Day:   h.Day,
			Func:  cal.CalcDayOfMonth,
		})
	}
	return c
}

func (a *Aggregator) theses(ctx context.Context, filter ReportFilter) *gorm.DB {
	q := a.store.db.WithContext(ctx).Model(&Thesis{})
	if from, to, ok := filter.bounds(); ok {
		q = q.Where("created_at >= ? AND created_at < ?", from, to)
	}
	return q
}

func (a *Aggregator) feedback(ctx context.Context, filter ReportFilter) *gorm.DB {
	q := a.store.db.WithContext(ctx).Model(&Feedback{})
	if from, to, ok := filter.bounds(); ok {
		q = q.Where("created_at >= ? AND created_at < ?", from, to)
	}
	return q
}

// Statistics builds the StatsData for the filter.
func (a *Aggregator) Statistics(ctx context.Context, filter ReportFilter) (StatsData, error) {
	if err := filter.Validate(); err != nil {
		return StatsData{}, err
	}

	var stats StatsData
	var total, lpu, nonLPU, recent, users int64
	since := a.now().UTC().AddDate(0, 0, -a.recentDays)

	counts := []struct {
		what string
		q    *gorm.DB
		dst  *int64
	}{
		{"submissions", a.theses(ctx, filter), &total},
		{"lpu students", a.theses(ctx, filter).Where("is_lpu = ?", true), &lpu},
		{"non-lpu students", a.theses(ctx, filter).Where("is_lpu = ?", false), &nonLPU},
		{"recent submissions", a.theses(ctx, filter).Where("created_at >= ?", since), &recent},
		{"users", a.store.db.WithContext(ctx).Model(&User{}), &users},
	}
	for _, c := range counts {
		if err := c.q.Count(c.dst).Error; err != nil {
			return StatsData{}, fmt.Errorf("failed to count %s: %w", c.what, err)
		}
	}
	stats.TotalSubmissions = int(total)
	stats.LPUStudents = int(lpu)
	stats.NonLPUStudents = int(nonLPU)
	stats.RecentSubmissions = int(recent)
	stats.TotalUsers = int(users)

	campus, err := a.grouped(ctx, filter, "campus")
	if err != nil {
		return StatsData{}, err
	}
	for _, g := range campus {
		stats.CampusData = append(stats.CampusData, NamedValue{Name: g.Name, Value: g.Count})
	}
	if stats.PopularPrograms, err = a.ranked(ctx, filter, "program", stats.TotalSubmissions); err != nil {
		return StatsData{}, err
	}
	if stats.ProgramsByDegree, err = a.ranked(ctx, filter, "degree", stats.TotalSubmissions); err != nil {
		return StatsData{}, err
	}
	if stats.MonthlyData, err = a.monthly(ctx, filter); err != nil {
		return StatsData{}, err
	}
	if stats.FeedbackStats, err = a.feedbackStats(ctx, filter); err != nil {
		return StatsData{}, err
	}
	if stats.WorkingDays, err = a.workingDays(ctx, filter); err != nil {
		return StatsData{}, err
	}
	return stats, nil
}

type groupRow struct {
	Name  string
	Count int
}

// grouped counts theses per value of column, largest first. column must be
// one of the fixed grouping columns.
func (a *Aggregator) grouped(ctx context.Context, filter ReportFilter, column string) ([]groupRow, error) {
	switch column {
	case "campus", "program", "degree":
	default:
		return nil, fmt.Errorf("unsupported grouping column %q", column)
	}
	var rows []groupRow
	err := a.theses(ctx, filter).
		Select(column + " AS name, COUNT(*) AS count").
		Group(column).
		Order("count DESC, name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group by %s: %w", column, err)
	}
	for i := range rows {
		if rows[i].Name == "" {
			rows[i].Name = unspecified
		}
	}
	return rows, nil
}

func (a *Aggregator) ranked(ctx context.Context, filter ReportFilter, column string, total int) ([]RankedItem, error) {
	rows, err := a.grouped(ctx, filter, column)
	if err != nil {
		return nil, err
	}
	items := make([]RankedItem, len(rows))
	for i, r := range rows {
		items[i] = RankedItem{Name: r.Name, Count: r.Count, Percentage: shareOf(r.Count, total)}
	}
	return items, nil
}

// monthly buckets submissions per calendar month, oldest first, including
// empty months between the first and last submission.
func (a *Aggregator) monthly(ctx context.Context, filter ReportFilter) ([]MonthlyPoint, error) {
	var created []time.Time
	if err := a.theses(ctx, filter).Order("created_at").Pluck("created_at", &created).Error; err != nil {
		return nil, fmt.Errorf("failed to load submission dates: %w", err)
	}
	return monthlySeries(created), nil
}

func monthlySeries(created []time.Time) []MonthlyPoint {
	if len(created) == 0 {
		return nil
	}
	monthOf := func(t time.Time) time.Time {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	counts := make(map[time.Time]int)
	first, last := monthOf(created[0]), monthOf(created[0])
	for _, t := range created {
		m := monthOf(t)
		counts[m]++
		if m.Before(first) {
			first = m
		}
		if m.After(last) {
			last = m
		}
	}
	var points []MonthlyPoint
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		points = append(points, MonthlyPoint{Month: m.Format(monthLabel), Submissions: counts[m]})
	}
	return points
}

type feedbackRow struct {
	ID          uuid.UUID
	Rating      int
	Comments    *string
	CreatedAt   time.Time
	ThesisTitle *string
}

func (a *Aggregator) feedbackStats(ctx context.Context, filter ReportFilter) (FeedbackStats, error) {
	var fs FeedbackStats

	var dist []RatingBucket
	err := a.feedback(ctx, filter).
		Select("rating, COUNT(*) AS count").
		Group("rating").
		Scan(&dist).Error
	if err != nil {
		return fs, fmt.Errorf("failed to load rating distribution: %w", err)
	}
	fs.RatingDistribution = ratingBuckets(dist)

	var weighted int
	for _, b := range fs.RatingDistribution {
		fs.TotalFeedback += b.Count
		weighted += b.Rating * b.Count
	}
	if fs.TotalFeedback > 0 {
		fs.AverageRating = float64(int(float64(weighted)/float64(fs.TotalFeedback)*100+0.5)) / 100
	}

	q := a.store.db.WithContext(ctx).
		Table("feedback AS f").
		Select("f.id, f.rating, f.comments, f.created_at, t.title AS thesis_title").
		Joins("LEFT JOIN theses t ON t.id = f.thesis_id")
	if from, to, ok := filter.bounds(); ok {
		q = q.Where("f.created_at >= ? AND f.created_at < ?", from, to)
	}
	var rows []feedbackRow
	if err := q.Order("f.created_at DESC").Limit(recentFeedbackLimit).Scan(&rows).Error; err != nil {
		return fs, fmt.Errorf("failed to load recent feedback: %w", err)
	}
	for _, r := range rows {
		entry := FeedbackEntry{ID: r.ID.String(), Rating: r.Rating, Comments: r.Comments, CreatedAt: r.CreatedAt}
		if r.ThesisTitle != nil {
			entry.ThesisTitle = *r.ThesisTitle
		}
		fs.RecentFeedback = append(fs.RecentFeedback, entry)
	}
	return fs, nil
}

// ratingBuckets returns exactly five buckets for ratings 1 to 5.
func ratingBuckets(rows []RatingBucket) []RatingBucket {
	buckets := make([]RatingBucket, 5)
	for i := range buckets {
		buckets[i].Rating = i + 1
	}
	for _, r := range rows {
		if r.Rating >= 1 && r.Rating <= 5 {
			buckets[r.Rating-1].Count += r.Count
		}
	}
	return buckets
}

// workingDays counts business days covered by the filter up to today. An
// unbounded filter starts at the first submission.
func (a *Aggregator) workingDays(ctx context.Context, filter ReportFilter) (int, error) {
	today := dayStart(a.now())
	from, to, ok := filter.bounds()
	if !ok {
		var first Thesis
		err := a.store.db.WithContext(ctx).Order("created_at").Limit(1).Find(&first).Error
		if err != nil {
			return 0, fmt.Errorf("failed to find first submission: %w", err)
		}
		if first.ID == uuid.Nil {
			return 0, nil
		}
		from, to = dayStart(first.CreatedAt), today.AddDate(0, 0, 1)
	}
	end := to.AddDate(0, 0, -1)
	if end.After(today) {
		end = today
	}
	if end.Before(from) {
		return 0, nil
	}
	return a.calendar.WorkdaysInRange(from, end), nil
}
