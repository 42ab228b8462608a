package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sant0-9/chartwise/internal/dataset"
	"github.com/sant0-9/chartwise/internal/stats"
)

// Kind is the family of question a deterministic analysis answers
type Kind string

const (
	KindRanking  Kind = "ranking"
	KindAverage  Kind = "average"
	KindTotal    Kind = "total"
	KindCount    Kind = "count"
	KindMinimum  Kind = "minimum"
	KindMaximum  Kind = "maximum"
	KindDescribe Kind = "statistics"
)

const defaultTopN = 5

// kindKeywords is checked in order, the first family with a hit wins
var kindKeywords = []struct {
	kind  Kind
	words []string
}{
	{KindRanking, []string{"top", "highest", "best"}},
	{KindAverage, []string{"average", "mean", "avg"}},
	{KindTotal, []string{"total", "sum"}},
	{KindCount, []string{"count", "how many", "number of"}},
	{KindMinimum, []string{"minimum", "min", "lowest"}},
	{KindMaximum, []string{"maximum", "max"}},
}

var topNPattern = regexp.MustCompile(`top\s+(\d+)`)

// Findings are the computed facts a narrated answer is grounded on
type Findings struct {
	Kind        Kind                     `json:"kind"`
	Metric      string                   `json:"metric,omitempty"`
	Category    string                   `json:"category,omitempty"`
	TopItems    []stats.Entry            `json:"top_items,omitempty"`
	Value       *float64                 `json:"value,omitempty"`
	Count       *int                     `json:"count,omitempty"`
	UniqueCount map[string]int           `json:"unique_count,omitempty"`
	Row         map[string]any           `json:"row,omitempty"`
	Statistics  map[string]stats.Summary `json:"statistics,omitempty"`
	Dataset     DatasetInfo              `json:"dataset_info"`
}

type DatasetInfo struct {
	TotalRows    int      `json:"total_rows"`
	TotalColumns int      `json:"total_columns"`
	Columns      []string `json:"columns"`
}

// Classify picks the question family from keywords
func Classify(question string) Kind {
	q := strings.ToLower(question)
	for _, k := range kindKeywords {
		for _, w := range k.words {
			if strings.Contains(q, w) {
				return k.kind
			}
		}
	}
	return KindDescribe
}

// Analyze computes the deterministic findings for a question
func Analyze(question string, catalog dataset.Catalog, rows []dataset.Row) Findings {
	q := strings.ToLower(question)
	b := catalog.Buckets()

	f := Findings{
		Kind: Classify(question),
		Dataset: DatasetInfo{
			TotalRows:    len(rows),
			TotalColumns: len(catalog),
			Columns:      catalog.Names(),
		},
	}

	metric := mentioned(q, b.Numeric)
	if metric == "" {
		metric = dataset.First(b.Numeric)
	}

	switch f.Kind {
	case KindRanking:
		n := defaultTopN
		if m := topNPattern.FindStringSubmatch(q); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				n = v
			}
		}
		category := mentioned(q, b.String)
		if category == "" {
			category = dataset.First(b.String)
		}
		if metric == "" {
			break
		}
		f.Metric = metric
		if category != "" {
			f.Category = category
			entries := stats.GroupSum(rows, category, metric)
			stats.SortDesc(entries)
			f.TopItems = stats.Head(entries, n)
			break
		}
		f.TopItems = topRows(rows, metric, n)

	case KindAverage, KindTotal:
		if metric == "" {
			break
		}
		xs := stats.Column(rows, metric)
		v := stats.Sum(xs)
		if f.Kind == KindAverage {
			v = stats.Mean(xs)
		}
		f.Metric = metric
		f.Value = &v

	case KindCount:
		n := len(rows)
		f.Count = &n
		if strings.Contains(q, "unique") || strings.Contains(q, "distinct") {
			if col := mentioned(q, catalog.Names()); col != "" {
				f.UniqueCount = map[string]int{col: stats.Unique(rows, col)}
			}
		}

	case KindMinimum, KindMaximum:
		if metric == "" {
			break
		}
		pick := stats.ArgMin
		if f.Kind == KindMaximum {
			pick = stats.ArgMax
		}
		idx, v := pick(rows, metric)
		if idx < 0 {
			break
		}
		f.Metric = metric
		f.Value = &v
		f.Row = rows[idx]

	default:
		if len(b.Numeric) == 0 {
			break
		}
		f.Statistics = make(map[string]stats.Summary, len(b.Numeric))
		for _, col := range b.Numeric {
			f.Statistics[col] = stats.Describe(stats.Column(rows, col))
		}
	}

	return f
}

// mentioned returns the first name whose lowercase form appears in q
func mentioned(q string, names []string) string {
	for _, n := range names {
		if strings.Contains(q, strings.ToLower(n)) {
			return n
		}
	}
	return ""
}

// topRows ranks individual rows when there is no category to group by.
// Labels are row positions.
func topRows(rows []dataset.Row, metric string, n int) []stats.Entry {
	var out []stats.Entry
	for i, r := range rows {
		if v, ok := stats.ToFloat(r[metric]); ok {
			out = append(out, stats.Entry{Label: strconv.Itoa(i), Value: v})
		}
	}
	stats.SortDesc(out)
	return stats.Head(out, n)
}
