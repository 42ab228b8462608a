package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sant0-9/chartwise/internal/dataset"
)

const salesCSV = `Order Date,Region,Product,Revenue,Units,Shipped
2024-01-05,North,Widget,1200.50,10,true
2024-01-09,South,Gadget,850.00,4,false
2024-02-11,North,Gadget,430.25,2,true
2024-02-20,East,Widget,990.00,8,true
2024-03-02,West,Doohickey,,3,false
2024-03-15,South,Widget,1500.75,12,true
`

func newLoader(t *testing.T, opts ...Option) *Loader {
	t.Helper()
	log, _ := test.NewNullLogger()
	l, err := NewLoader(context.Background(), log, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	l := newLoader(t)
	ds, err := l.Load(context.Background(), writeFile(t, "sales.csv", salesCSV))
	require.NoError(t, err)

	assert.Equal(t, "sales", ds.Metadata.Name)
	assert.Equal(t, "csv", ds.Metadata.SourceFormat)
	assert.Equal(t, 6, ds.Metadata.RowCount)
	assert.Equal(t, 6, ds.Metadata.ColumnCount)
	require.Len(t, ds.Rows, 6)

	want := []struct {
		name string
		typ  dataset.Type
	}{
		{"order_date", dataset.Date},
		{"region", dataset.String},
		{"product", dataset.String},
		{"revenue", dataset.Numeric},
		{"units", dataset.Numeric},
		{"shipped", dataset.Boolean},
	}
	require.Len(t, ds.Catalog, len(want))
	for i, w := range want {
		assert.Equal(t, w.name, ds.Catalog[i].Name)
		assert.Equal(t, w.typ, ds.Catalog[i].Type, w.name)
	}

	region := ds.Catalog[1]
	assert.Equal(t, []string{"North", "South", "North", "East", "West"}, region.SampleValues)
	require.NotNil(t, region.Stats)
	assert.Equal(t, 4, region.Stats.UniqueCount)
	require.NotNil(t, region.Stats.MaxLength)
	assert.Equal(t, 5, *region.Stats.MaxLength)

	revenue := ds.Catalog[3].Stats
	require.NotNil(t, revenue)
	assert.Equal(t, 1, revenue.NullCount)
	assert.InDelta(t, 100.0/6, revenue.NullPercentage, 1e-9)
	require.NotNil(t, revenue.Max)
	assert.InDelta(t, 1500.75, *revenue.Max, 1e-9)

	date := ds.Catalog[0].Stats
	assert.Equal(t, "2024-01-05", date.MinDate)
	assert.Equal(t, "2024-03-15", date.MaxDate)
	assert.Equal(t, "2024-01-05", ds.Rows[0]["order_date"])
}

func TestLoadMaxRows(t *testing.T) {
	l := newLoader(t, WithMaxRows(2))
	ds, err := l.Load(context.Background(), writeFile(t, "sales.csv", salesCSV))
	require.NoError(t, err)
	assert.Len(t, ds.Rows, 2)
}

func TestLoadJSON(t *testing.T) {
	l := newLoader(t)
	body := `[{"city":"Oslo","temp":4.5},{"city":"Lima","temp":19.0}]`
	ds, err := l.Load(context.Background(), writeFile(t, "weather.json", body))
	require.NoError(t, err)

	require.Len(t, ds.Catalog, 2)
	assert.Equal(t, dataset.String, ds.Catalog[0].Type)
	assert.Equal(t, dataset.Numeric, ds.Catalog[1].Type)
}

func TestLoadErrors(t *testing.T) {
	l := newLoader(t)
	ctx := context.Background()

	_, err := l.Load(ctx, writeFile(t, "empty.csv", ""))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = l.Load(ctx, writeFile(t, "book.xlsx", "x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = l.Load(ctx, filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMapType(t *testing.T) {
	tests := []struct {
		in   string
		want dataset.Type
	}{
		{"BOOLEAN", dataset.Boolean},
		{"DATE", dataset.Date},
		{"TIMESTAMP", dataset.Date},
		{"TIMESTAMP WITH TIME ZONE", dataset.Date},
		{"BIGINT", dataset.Numeric},
		{"INTEGER", dataset.Numeric},
		{"SMALLINT", dataset.Numeric},
		{"UBIGINT", dataset.Numeric},
		{"DOUBLE", dataset.Numeric},
		{"DECIMAL(10,2)", dataset.Numeric},
		{"VARCHAR", dataset.String},
		{"INTERVAL", dataset.String},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MapType(tt.in))
		})
	}
}

func TestLooksLikeDates(t *testing.T) {
	rows := []dataset.Row{{"d": "2024-01-02"}, {"d": nil}, {"d": "03/04/2024"}}
	assert.True(t, looksLikeDates(rows, "d"))

	rows = append(rows, dataset.Row{"d": "soon"})
	assert.False(t, looksLikeDates(rows, "d"))

	assert.False(t, looksLikeDates([]dataset.Row{{"d": nil}}, "d"))
}

func TestFileSizeHuman(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Metadata{FileSizeBytes: tt.size}.FileSizeHuman())
		})
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.CSV"))
	assert.True(t, Supported("a.parquet"))
	assert.False(t, Supported("a.xlsx"))
}
