package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float", 1.5, 1.5, true},
		{"int64", int64(7), 7, true},
		{"int32", int32(-3), -3, true},
		{"numeric string", "1,234.5", 1234.5, true},
		{"bool", true, 1, true},
		{"text", "north", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescriptive(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.Equal(t, 40.0, Sum(xs))
	assert.Equal(t, 5.0, Mean(xs))
	assert.Equal(t, 4.5, Median(xs))
	assert.InDelta(t, 2.138, StdDev(xs), 0.001)
	assert.Equal(t, 0.0, StdDev([]float64{3}))
	assert.Equal(t, 2.0, Quantile(xs, 0))
	assert.Equal(t, 9.0, Quantile(xs, 1))

	d := Describe(xs)
	assert.Equal(t, 8, d.Count)
	assert.Equal(t, 2.0, d.Min)
	assert.Equal(t, 9.0, d.Max)

	assert.Equal(t, Summary{}, Describe(nil))
	assert.Equal(t, 0.0, Median(nil))
}

func TestQuantiles(t *testing.T) {
	xs := []float64{4, 1, 3, 2}

	tests := []struct {
		name string
		q    float64
		want float64
	}{
		{"lower bound", 0, 1},
		{"first quartile", 0.25, 1},
		{"interpolated", 0.6, 2.4},
		{"third quartile", 0.75, 3},
		{"upper bound", 1, 4},
		{"clamped high", 1.5, 4},
		{"clamped low", -0.5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Quantile(xs, tt.q), 1e-9)
		})
	}

	assert.Equal(t, []float64{4, 1, 3, 2}, xs, "input is not reordered")
	assert.Equal(t, 2.5, Median(xs))
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 0.0, Quantile(nil, 0.5))

	d := Describe(xs)
	assert.Equal(t, Summary{Count: 4, Mean: 2.5, Median: 2.5, Min: 1, Max: 4, Sum: 10, Std: d.Std, P25: 1, P75: 3}, d)
	assert.InDelta(t, 1.291, d.Std, 0.001)
}

func rows() []map[string]any {
	return []map[string]any{
		{"product": "widget", "revenue": 100.0},
		{"product": "gadget", "revenue": 300.0},
		{"product": "widget", "revenue": 250.0},
		{"product": "gizmo", "revenue": "50"},
		{"product": "doohickey", "revenue": nil},
		{"product": "gadget", "revenue": 50.0},
	}
}

func TestGroupSumSorted(t *testing.T) {
	got := GroupSum(rows(), "product", "revenue")
	SortDesc(got)

	// ties break by label
	assert.Equal(t, []Entry{
		{Label: "gadget", Value: 350},
		{Label: "widget", Value: 350},
		{Label: "gizmo", Value: 50},
	}, got)
	assert.Len(t, Head(got, 2), 2)
	assert.Len(t, Head(got, 10), 3)
}

func TestArgMinMax(t *testing.T) {
	i, v := ArgMax(rows(), "revenue")
	assert.Equal(t, 1, i)
	assert.Equal(t, 300.0, v)

	i, v = ArgMin(rows(), "revenue")
	assert.Equal(t, 3, i)
	assert.Equal(t, 50.0, v)

	i, _ = ArgMin(rows(), "missing")
	assert.Equal(t, -1, i)
}

func TestTopValuesAndUnique(t *testing.T) {
	top := TopValues(rows(), "product", 2)
	assert.Equal(t, []Entry{{Label: "gadget", Value: 2}, {Label: "widget", Value: 2}}, top)
	assert.Equal(t, 4, Unique(rows(), "product"))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "2024-03-01", Label(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1.5", Label(1.5))
	assert.Equal(t, "", Label(nil))
	assert.Equal(t, "42", Label(42))
}
