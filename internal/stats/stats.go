// Package stats holds the small set of descriptive statistics used to ground
// analytical answers and to materialize chart data.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ToFloat coerces a scalar cell value into a float. Strings are parsed
// leniently (thousands separators are stripped).
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case fmt.Stringer:
		return ToFloat(n.String())
	}
	return 0, false
}

// Label renders a cell value as a grouping key
func Label(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case time.Time:
		if s.Hour() == 0 && s.Minute() == 0 && s.Second() == 0 {
			return s.Format("2006-01-02")
		}
		return s.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// Column extracts the numeric values of one column, skipping cells that do
// not coerce.
func Column(rows []map[string]any, name string) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if f, ok := ToFloat(r[name]); ok {
			out = append(out, f)
		}
	}
	return out
}

func Sum(xs []float64) float64 {
	return floats.Sum(xs)
}

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// Median is the middle value, or the mean of the two middle values for an
// even count
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return median(sorted(xs))
}

func median(s []float64) float64 {
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, s, nil)
	}
	return stat.Mean(s[mid-1:mid+1], nil)
}

// StdDev is the sample standard deviation (n-1), zero below two values
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// Quantile interpolates linearly over the empirical distribution. q is
// clamped to [0, 1].
func Quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return quantile(sorted(xs), q)
}

func quantile(s []float64, q float64) float64 {
	q = math.Max(0, math.Min(1, q))
	return stat.Quantile(q, stat.LinInterp, s, nil)
}

func sorted(xs []float64) []float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	return s
}

// ArgMin returns the index of the row holding the smallest value of column,
// or -1 when no cell coerces.
func ArgMin(rows []map[string]any, column string) (int, float64) {
	return argBest(rows, column, func(a, b float64) bool { return a < b })
}

// ArgMax is ArgMin's counterpart
func ArgMax(rows []map[string]any, column string) (int, float64) {
	return argBest(rows, column, func(a, b float64) bool { return a > b })
}

func argBest(rows []map[string]any, column string, better func(a, b float64) bool) (int, float64) {
	idx, best := -1, 0.0
	for i, r := range rows {
		f, ok := ToFloat(r[column])
		if !ok {
			continue
		}
		if idx == -1 || better(f, best) {
			idx, best = i, f
		}
	}
	return idx, best
}

// Entry is one labeled value of a ranking or frequency table
type Entry struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// GroupSum sums metric per distinct category label, keeping first-seen order
func GroupSum(rows []map[string]any, category, metric string) []Entry {
	idx := map[string]int{}
	var out []Entry
	for _, r := range rows {
		f, ok := ToFloat(r[metric])
		if !ok {
			continue
		}
		label := Label(r[category])
		i, seen := idx[label]
		if !seen {
			i = len(out)
			idx[label] = i
			out = append(out, Entry{Label: label})
		}
		out[i].Value += f
	}
	return out
}

// SortDesc orders entries by value descending, ties by label ascending
func SortDesc(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Label < entries[j].Label
	})
}

// SortByLabel orders entries by label ascending
func SortByLabel(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Label < entries[j].Label
	})
}

// Head returns at most n entries
func Head(entries []Entry, n int) []Entry {
	if n >= 0 && len(entries) > n {
		return entries[:n]
	}
	return entries
}

// TopValues counts occurrences of each label in column, most frequent first
func TopValues(rows []map[string]any, column string, n int) []Entry {
	counts := map[string]int{}
	var order []string
	for _, r := range rows {
		v, ok := r[column]
		if !ok || v == nil {
			continue
		}
		label := Label(v)
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}
	out := make([]Entry, len(order))
	for i, label := range order {
		out[i] = Entry{Label: label, Value: float64(counts[label])}
	}
	SortDesc(out)
	return Head(out, n)
}

// Unique counts distinct non-null labels in column
func Unique(rows []map[string]any, column string) int {
	seen := map[string]struct{}{}
	for _, r := range rows {
		v, ok := r[column]
		if !ok || v == nil {
			continue
		}
		seen[Label(v)] = struct{}{}
	}
	return len(seen)
}

// Summary is the per-numeric-column description handed to the narrator
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Sum    float64 `json:"sum"`
	Std    float64 `json:"std"`
	P25    float64 `json:"25%"`
	P75    float64 `json:"75%"`
}

// Describe summarizes one numeric column
func Describe(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	s := sorted(xs)
	return Summary{
		Count:  len(s),
		Mean:   Mean(s),
		Median: median(s),
		Sum:    Sum(s),
		Std:    StdDev(s),
		P25:    quantile(s, 0.25),
		P75:    quantile(s, 0.75),
		Min:    floats.Min(s),
		Max:    floats.Max(s),
	}
}
