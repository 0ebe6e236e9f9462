package main

import (
	"math"
	"testing"
)

func TestStarFills(t *testing.T) {
	tests := []struct {
		name  string
		r     float64
		full  int
		half  int
		empty int
	}{
		{"zero", 0, 0, 0, 5},
		{"below half", 0.4, 0, 0, 5},
		{"half", 0.5, 0, 1, 4},
		{"two and a half", 2.5, 2, 1, 2},
		{"fraction below half", 3.4, 3, 0, 2},
		{"four and a half", 4.5, 4, 1, 0},
		{"five", 5, 5, 0, 0},
		{"clamped high", 7, 5, 0, 0},
		{"clamped low", -1, 0, 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var full, half, empty int
			for _, f := range starFills(tt.r) {
				switch f {
				case starFull:
					full++
				case starHalf:
					half++
				default:
					empty++
				}
			}
			if full != tt.full || half != tt.half || empty != tt.empty {
				t.Errorf("starFills(%v) = %d full, %d half, %d empty, want %d/%d/%d",
					tt.r, full, half, empty, tt.full, tt.half, tt.empty)
			}
		})
	}
}

func TestStarFillsOrder(t *testing.T) {
	fills := starFills(3.5)
	want := [5]starFill{starFull, starFull, starFull, starHalf, starEmpty}
	if fills != want {
		t.Errorf("starFills(3.5) = %v, want %v", fills, want)
	}
}

func TestStarVertices(t *testing.T) {
	const cx, cy, size = 50.0, 40.0, 4.0
	pts := starVertices(cx, cy, size)

	if math.Abs(pts[0].X-cx) > 1e-9 || math.Abs(pts[0].Y-(cy-size)) > 1e-9 {
		t.Errorf("first vertex = %+v, want straight up at (%v, %v)", pts[0], cx, cy-size)
	}
	for i, p := range pts {
		want := size
		if i%2 == 1 {
			want = size / 2
		}
		if got := math.Hypot(p.X-cx, p.Y-cy); math.Abs(got-want) > 1e-9 {
			t.Errorf("vertex %d radius = %v, want %v", i, got, want)
		}
	}
}

func TestDrawStar(t *testing.T) {
	const cx, cy, size = 20.0, 20.0, 5.0

	t.Run("outline strokes ten edges", func(t *testing.T) {
		fc := &fakeCanvas{}
		drawStar(fc, cx, cy, size, false, true)
		if fc.lines != 10 || len(fc.polygons) != 0 {
			t.Errorf("outline star drew %d lines, %d polygons, want 10 lines", fc.lines, len(fc.polygons))
		}
	})

	t.Run("full star fills ten triangles", func(t *testing.T) {
		fc := &fakeCanvas{}
		drawStar(fc, cx, cy, size, false, false)
		if len(fc.polygons) != 10 || fc.lines != 0 {
			t.Errorf("full star drew %d polygons, %d lines, want 10 polygons", len(fc.polygons), fc.lines)
		}
	})

	t.Run("half star fills the left half", func(t *testing.T) {
		fc := &fakeCanvas{}
		drawStar(fc, cx, cy, size, true, false)
		if len(fc.polygons) != 5 {
			t.Fatalf("half star drew %d polygons, want 5", len(fc.polygons))
		}
		for i, poly := range fc.polygons {
			for _, p := range poly {
				if p.X > cx+1e-9 {
					t.Errorf("half star polygon %d has point %+v right of center", i, p)
				}
			}
		}
	})
}

func TestDrawRatingStars(t *testing.T) {
	p, fc := newFakePainter()
	const x, size, gap = 10.0, 2.0, 1.0

	next := p.drawRatingStars(x, 30, size, gap, 3.5)

	if want := x + 5*(2*size+gap); math.Abs(next-want) > 1e-9 {
		t.Errorf("drawRatingStars() = %v, want %v", next, want)
	}
	// three full stars, one half fill
	if len(fc.polygons) != 35 {
		t.Errorf("drawRatingStars(3.5) drew %d polygons, want 35", len(fc.polygons))
	}
	// half star outline plus one empty star
	if fc.lines != 20 {
		t.Errorf("drawRatingStars(3.5) drew %d lines, want 20", fc.lines)
	}
}

func TestDrawCard(t *testing.T) {
	tests := []struct {
		name    string
		shadow  bool
		rounded int
	}{
		{"with shadow", true, 2},
		{"flat", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, fc := newFakePainter()
			p.drawCard(10, 10, 50, 20, tt.shadow)
			if fc.rounded != tt.rounded {
				t.Errorf("drawCard(shadow=%v) drew %d rounded rects, want %d", tt.shadow, fc.rounded, tt.rounded)
			}
		})
	}
}

func TestDrawSectionHeader(t *testing.T) {
	p, fc := newFakePainter()
	next := p.drawSectionHeader("Top Programs", 12, 50)
	if next != 50+sectionHeaderAdvance {
		t.Errorf("drawSectionHeader() = %v, want %v", next, 50+sectionHeaderAdvance)
	}
	if !fc.hasText("Top Programs") {
		t.Errorf("drawSectionHeader() texts = %v, want title", fc.texts)
	}
}

func TestPainterWrap(t *testing.T) {
	p, _ := newFakePainter()

	if got := p.wrap("   ", 50, 2); got != nil {
		t.Errorf("wrap(blank) = %v, want nil", got)
	}
	long := "The supervisor portal made the submission process straightforward and quick"
	got := p.wrap(long, 36, 2)
	if len(got) != 2 {
		t.Errorf("wrap() returned %d lines, want 2", len(got))
	}
	if got := p.wrap("short\nnote", 100, 2); len(got) != 1 || got[0] != "short note" {
		t.Errorf("wrap(short) = %q, want single flattened line", got)
	}
}
