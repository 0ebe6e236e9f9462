package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCapturer returns canned captures and records the order of requests.
type stubCapturer struct {
	images map[string][]byte
	errs   map[string]error
	panics map[string]bool
	calls  []string
}

func (s *stubCapturer) Capture(ctx context.Context, id string) ([]byte, error) {
	s.calls = append(s.calls, id)
	if s.panics[id] {
		panic("renderer crashed")
	}
	if err := s.errs[id]; err != nil {
		return nil, err
	}
	return s.images[id], nil
}

func TestChartsFor(t *testing.T) {
	tests := []struct {
		name     string
		layout   string
		expected []string
	}{
		{"standard", "standard", []string{
			chartStudentSplit, chartRatings, chartPrograms, chartDegrees, chartMonthlyTrend, chartCampus,
		}},
		{"condensed", "condensed", []string{
			chartStudentSplit, chartRatings, chartMonthlyTrend, chartPrograms, chartCampus,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, chartsFor(layouts[tt.layout]))
		})
	}
}

func TestCaptureCharts(t *testing.T) {
	valid := testPNG(t, 20, 10)
	stub := &stubCapturer{
		images: map[string][]byte{
			chartStudentSplit: valid,
			chartRatings:      valid,
			chartPrograms:     []byte("not a png"),
			chartCampus:       valid,
		},
		errs:   map[string]error{chartMonthlyTrend: errors.New("timed out")},
		panics: map[string]bool{chartCampus: true},
	}
	ids := chartsFor(layouts["standard"])

	images := captureCharts(context.Background(), stub, ids, 0)

	assert.Equal(t, ids, stub.calls, "captures run once each, in order")
	assert.Len(t, images, 2)
	assert.Contains(t, images, chartStudentSplit)
	assert.Contains(t, images, chartRatings)
	for _, id := range []string{chartPrograms, chartDegrees, chartMonthlyTrend, chartCampus} {
		assert.NotContains(t, images, id)
	}
}

func TestCaptureChartsNilCapturer(t *testing.T) {
	images := captureCharts(context.Background(), nil, chartsFor(layouts["standard"]), time.Hour)
	assert.Empty(t, images)
}

func TestCaptureChartsCancelledWhileSettling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stub := &stubCapturer{}

	images := captureCharts(ctx, stub, []string{chartRatings}, time.Hour)

	assert.Empty(t, images)
	assert.Empty(t, stub.calls)
}

func TestCheckPNG(t *testing.T) {
	assert.NoError(t, checkPNG(testPNG(t, 4, 4)))
	assert.Error(t, checkPNG(nil))
	assert.Error(t, checkPNG([]byte("GIF89a")))
}

func TestChartRasterizer(t *testing.T) {
	stats := sampleStats(12, 5, 14, 0)
	r := newChartRasterizer(stats, themes["classic"])

	for _, id := range chartsFor(layouts["standard"]) {
		t.Run(id, func(t *testing.T) {
			img, err := r.Capture(context.Background(), id)
			require.NoError(t, err)
			assert.NoError(t, checkPNG(img))
		})
	}
}

func TestChartRasterizerErrors(t *testing.T) {
	t.Run("unknown chart", func(t *testing.T) {
		r := newChartRasterizer(sampleStats(3, 3, 3, 0), themes["classic"])
		_, err := r.Capture(context.Background(), "revenue-chart")
		assert.ErrorIs(t, err, errUnknownChart)
	})

	t.Run("empty series", func(t *testing.T) {
		r := newChartRasterizer(StatsData{}, themes["classic"])
		for _, id := range chartsFor(layouts["standard"]) {
			_, err := r.Capture(context.Background(), id)
			assert.ErrorIs(t, err, errEmptySeries, id)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := newChartRasterizer(sampleStats(3, 3, 3, 0), themes["classic"])
		_, err := r.Capture(ctx, chartCampus)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
