package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ---------------------------------------------------------------------------
// Report Text Helpers
// ---------------------------------------------------------------------------

const (
	isoDate       = "2006-01-02"
	displayDate   = "Jan 2, 2006"
	generatedDate = "Jan 2, 2006 15:04"
	ellipsis      = "..."
)

// numberPrinter groups thousands the way the dashboard displays counts.
var numberPrinter = message.NewPrinter(language.English)

// formatCount formats a count with thousands separators (e.g., 12,480).
func formatCount(n int) string {
	return numberPrinter.Sprintf("%d", n)
}

// formatPercent renders a caller-supplied percentage verbatim: 42.5 -> "42.5%".
// No rounding is applied; the value is what the caller computed.
func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}

// shareOf returns part as a percentage of whole with one decimal, 0 when whole is 0.
func shareOf(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(int(float64(part)/float64(whole)*1000+0.5)) / 10
}

// rankLabel builds the trailing "value (percentage%)" label of a ranked bar.
func rankLabel(count int, pct float64) string {
	return fmt.Sprintf("%s (%s)", formatCount(count), formatPercent(pct))
}

// truncateLabel shortens s to at most max runes, ending with an ellipsis when cut.
func truncateLabel(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return string([]rune(s)[:max])
	}
	return strings.TrimRight(string([]rune(s)[:max-len(ellipsis)]), " ") + ellipsis
}

// monthAbbrev returns the three-letter month of a series label ("March 2025" -> "Mar").
func monthAbbrev(label string) string {
	return truncateLabel(strings.TrimSpace(label), 3)
}

// reportFileName builds thesis-statistics-<year|all-time>-<YYYY-MM-DD>.pdf.
func reportFileName(year string, generated time.Time) string {
	token := year
	if year == "" || year == yearAll {
		token = "all-time"
	}
	return fmt.Sprintf("thesis-statistics-%s-%s.pdf", token, generated.Format(isoDate))
}

// reportPeriodCaption describes the active dashboard filter for the period pill.
func reportPeriodCaption(f ReportFilter) string {
	var parts []string
	if f.Year == "" || f.Year == yearAll {
		if f.Range == nil {
			return "Report Period: All Time"
		}
	} else {
		parts = append(parts, "Year "+f.Year)
	}
	if f.Range != nil {
		parts = append(parts, fmt.Sprintf("%s - %s",
			f.Range.Start.Format(displayDate), f.Range.End.Format(displayDate)))
	}
	return "Report Period: " + strings.Join(parts, ", ")
}

var typographic = strings.NewReplacer(
	"\u2018", "'", "\u2019", "'", "\u201c", "\"", "\u201d", "\"",
	"\u2013", "-", "\u2014", "-", "\u2026", ellipsis, "\u00a0", " ",
)

// plainText folds text into the Latin-1 range the core PDF fonts can measure.
// Typographic punctuation becomes ASCII; other characters become '?'.
func plainText(s string) string {
	s = typographic.Replace(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case r < 0x20:
			return -1
		case r > 0xff:
			return '?'
		}
		return r
	}, s)
}

// formatRating renders an average rating with one decimal out of five.
func formatRating(avg float64) string {
	return fmt.Sprintf("%.1f / 5", avg)
}

// formatGenerated renders the footer generation timestamp.
func formatGenerated(t time.Time) string {
	return "Generated " + t.Format(generatedDate)
}
