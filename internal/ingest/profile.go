package ingest

import (
	"time"
	"unicode/utf8"

	"github.com/sant0-9/chartwise/internal/dataset"
	"github.com/sant0-9/chartwise/internal/stats"
)

const (
	sampleCount  = 5
	dateSampleMax = 100
)

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.DateTime,
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006-01",
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// looksLikeDates reports whether every sampled non-null value of a text
// column parses as a date. Columns with no values are not dates.
func looksLikeDates(rows []dataset.Row, column string) bool {
	seen := 0
	for _, r := range rows {
		s, ok := r[column].(string)
		if !ok || s == "" {
			continue
		}
		if _, ok := parseDate(s); !ok {
			return false
		}
		seen++
		if seen >= dateSampleMax {
			break
		}
	}
	return seen > 0
}

// samples returns the first n non-null values as labels
func samples(rows []dataset.Row, column string, n int) []string {
	out := make([]string, 0, n)
	for _, r := range rows {
		v := r[column]
		if v == nil {
			continue
		}
		out = append(out, stats.Label(v))
		if len(out) == n {
			break
		}
	}
	return out
}

func columnStats(rows []dataset.Row, column string, typ dataset.Type) *dataset.ColumnStats {
	cs := &dataset.ColumnStats{UniqueCount: stats.Unique(rows, column)}
	for _, r := range rows {
		if r[column] == nil {
			cs.NullCount++
		}
	}
	if len(rows) > 0 {
		cs.NullPercentage = float64(cs.NullCount) / float64(len(rows)) * 100
	}

	switch typ {
	case dataset.Numeric:
		xs := stats.Column(rows, column)
		if len(xs) == 0 {
			break
		}
		d := stats.Describe(xs)
		cs.Min, cs.Max, cs.Mean = ptr(d.Min), ptr(d.Max), ptr(d.Mean)
		cs.Median, cs.Std = ptr(d.Median), ptr(d.Std)
	case dataset.Date:
		var lo, hi time.Time
		for _, r := range rows {
			s, ok := r[column].(string)
			if !ok {
				continue
			}
			t, ok := parseDate(s)
			if !ok {
				continue
			}
			if lo.IsZero() || t.Before(lo) {
				lo, cs.MinDate = t, s
			}
			if hi.IsZero() || t.After(hi) {
				hi, cs.MaxDate = t, s
			}
		}
	case dataset.String:
		var n, total, minLen, maxLen int
		for _, r := range rows {
			v := r[column]
			if v == nil {
				continue
			}
			l := utf8.RuneCountInString(stats.Label(v))
			if n == 0 || l < minLen {
				minLen = l
			}
			if l > maxLen {
				maxLen = l
			}
			total += l
			n++
		}
		if n > 0 {
			avg := float64(total) / float64(n)
			cs.MinLength, cs.MaxLength, cs.AvgLength = &minLen, &maxLen, &avg
		}
	}
	return cs
}

func ptr[T any](v T) *T {
	return &v
}
