package main

import (
	"fmt"
	"sort"
)

// ---------------------------------------------------------------------------
// Report Themes
// ---------------------------------------------------------------------------

// rgb is a color as used by fpdf's Set*Color calls.
type rgb [3]int

type headerStyle int

const (
	headerBanner headerStyle = iota // title + subtitle band drawn with primitives
	headerImage                     // fixed header image, banner drawn as placeholder when missing
)

// ReportTheme holds every color and header decision of a report.
type ReportTheme struct {
	Name        string
	Header      headerStyle
	HeaderImage string // optional image file for headerImage themes

	Primary    rgb // header band, section accents
	Secondary  rgb // second series color
	Accent     rgb // highlights and trend line
	Background rgb // full-bleed page background
	Card       rgb
	Border     rgb
	Shadow     rgb
	Text       rgb
	Muted      rgb
	Track      rgb // bar background tracks and gridlines
	Star       rgb
	Series     []rgb // rotating bar colors
}

var themes = map[string]ReportTheme{
	"classic": {
		Name:       "classic",
		Header:     headerBanner,
		Primary:    rgb{30, 58, 95},
		Secondary:  rgb{52, 152, 219},
		Accent:     rgb{46, 204, 113},
		Background: rgb{246, 248, 251},
		Card:       rgb{255, 255, 255},
		Border:     rgb{221, 226, 233},
		Shadow:     rgb{210, 216, 224},
		Text:       rgb{44, 62, 80},
		Muted:      rgb{127, 140, 141},
		Track:      rgb{233, 238, 244},
		Star:       rgb{241, 196, 15},
		Series: []rgb{
			{52, 152, 219}, {46, 204, 113}, {155, 89, 182},
			{230, 126, 34}, {26, 188, 156}, {231, 76, 60},
		},
	},
	"heritage": {
		Name:       "heritage",
		Header:     headerImage,
		Primary:    rgb{128, 0, 32},
		Secondary:  rgb{214, 137, 16},
		Accent:     rgb{192, 57, 43},
		Background: rgb{253, 250, 246},
		Card:       rgb{255, 255, 255},
		Border:     rgb{232, 222, 210},
		Shadow:     rgb{222, 210, 196},
		Text:       rgb{61, 38, 33},
		Muted:      rgb{140, 122, 110},
		Track:      rgb{245, 236, 226},
		Star:       rgb{214, 137, 16},
		Series: []rgb{
			{128, 0, 32}, {214, 137, 16}, {120, 81, 69},
			{192, 57, 43}, {160, 106, 66}, {94, 36, 46},
		},
	},
}

// seriesColor returns the i-th rotating series color.
func (t ReportTheme) seriesColor(i int) rgb {
	if len(t.Series) == 0 {
		return t.Primary
	}
	return t.Series[i%len(t.Series)]
}

// ---------------------------------------------------------------------------
// Report Layouts
// ---------------------------------------------------------------------------

type pageKind int

const (
	pageOverview pageKind = iota
	pageRankings
	pageTrends
	pageCampusSummary
	pageDetailed
)

func (k pageKind) String() string {
	switch k {
	case pageOverview:
		return "overview"
	case pageRankings:
		return "rankings"
	case pageTrends:
		return "trends"
	case pageCampusSummary:
		return "campus-summary"
	case pageDetailed:
		return "detailed"
	}
	return fmt.Sprintf("page(%d)", int(k))
}

// ReportLayout fixes the page set and the truncation budgets of a report.
// Page count never depends on data volume.
type ReportLayout struct {
	Name        string
	Pages       []pageKind
	RankedRows  int // rows of a ranked list
	CampusRows  int // rows of the campus breakdown
	CommentCap  int // feedback blocks rendered
	LabelBudget int // characters of a bar label before truncation
	TrendPoints int // trailing months plotted
}

var layouts = map[string]ReportLayout{
	"standard": {
		Name:        "standard",
		Pages:       []pageKind{pageOverview, pageRankings, pageTrends, pageCampusSummary},
		RankedRows:  10,
		CampusRows:  10,
		CommentCap:  4,
		LabelBudget: 28,
		TrendPoints: 12,
	},
	"condensed": {
		Name:        "condensed",
		Pages:       []pageKind{pageOverview, pageDetailed},
		RankedRows:  10,
		CampusRows:  6,
		CommentCap:  10,
		LabelBudget: 24,
		TrendPoints: 12,
	},
}

func (l ReportLayout) has(kind pageKind) bool {
	for _, k := range l.Pages {
		if k == kind {
			return true
		}
	}
	return false
}

// resolvePresentation looks up a layout and theme by name.
func resolvePresentation(layoutName, themeName, headerImage string) (ReportLayout, ReportTheme, error) {
	layout, ok := layouts[layoutName]
	if !ok {
		return ReportLayout{}, ReportTheme{}, fmt.Errorf("unknown report layout %q (available: %v)", layoutName, presetNames(layouts))
	}
	theme, ok := themes[themeName]
	if !ok {
		return ReportLayout{}, ReportTheme{}, fmt.Errorf("unknown report theme %q (available: %v)", themeName, presetNames(themes))
	}
	if headerImage != "" {
		theme.HeaderImage = headerImage
	}
	return layout, theme, nil
}

func presetNames[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
