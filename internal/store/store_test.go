package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/dataset"
	"github.com/sant0-9/chartwise/internal/eval"
	"github.com/sant0-9/chartwise/internal/intent"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var salesCatalog = dataset.Catalog{
	{Name: "region", Type: dataset.String, SampleValues: []string{"North", "South"}},
	{Name: "revenue", Type: dataset.Numeric},
}

func salesRows() []dataset.Row {
	return []dataset.Row{
		{"region": "North", "revenue": 120.5},
		{"region": "South", "revenue": 80.0},
		{"region": "East", "revenue": nil},
	}
}

func saveSales(t *testing.T, s *Store) *Dataset {
	t.Helper()
	ds := &Dataset{Name: "sales", SourcePath: "/tmp/sales.csv", Catalog: salesCatalog}
	require.NoError(t, s.SaveDataset(context.Background(), ds, salesRows()))
	return ds
}

func TestOpenMigrates(t *testing.T) {
	s := openMemory(t)
	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chartwise.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	saveSales(t, s)
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()

	list, err := s.ListDatasets(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDatasets(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	ds := saveSales(t, s)

	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, 3, ds.RowCount)

	got, err := s.GetDataset(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, "sales", got.Name)
	assert.Equal(t, 3, got.RowCount)
	assert.Equal(t, salesCatalog, got.Catalog)

	rows, err := s.LoadRows(ctx, ds.ID, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "North", rows[0]["region"])
	assert.Equal(t, 120.5, rows[0]["revenue"])
	assert.Nil(t, rows[2]["revenue"])

	rows, err = s.LoadRows(ctx, ds.ID, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = s.GetDataset(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.ListDatasets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ds.ID, list[0].ID)
}

func TestDashboards(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	ds := saveSales(t, s)

	d := dashboard.New("", ds.ID, "Sales Overview")
	require.NoError(t, d.Add(dashboard.Component{
		ID:     "c1",
		Type:   dashboard.BarChart,
		Title:  "Revenue by Region",
		Config: dashboard.Config{XAxis: "region", YAxis: "revenue"},
	}))
	require.NoError(t, s.SaveDashboard(ctx, d))
	require.NotEmpty(t, d.ID)

	got, err := s.GetDashboard(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sales Overview", got.Title)
	require.Len(t, got.Components, 1)
	assert.Equal(t, "region", got.Components[0].Config.XAxis)
	assert.Equal(t, d.Layout, got.Layout)

	d.Title = "Renamed"
	require.NoError(t, d.Remove("c1"))
	require.NoError(t, s.SaveDashboard(ctx, d))

	got, err = s.GetDashboard(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Empty(t, got.Components)

	all, err := s.ListDashboards(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	none, err := s.ListDashboards(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = s.GetDashboard(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDashboardNeedsDataset(t *testing.T) {
	s := openMemory(t)
	err := s.SaveDashboard(context.Background(), dashboard.New("d1", "no-such-dataset", "x"))
	assert.Error(t, err)
}

func TestEvaluations(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	results := []eval.Result{
		{ID: "e1", At: at, Command: "add a chart", ActionType: intent.AddChart, Success: true, Latency: 150 * time.Millisecond, PromptTokens: 10, ResponseTokens: 5, Cost: 0.001, Correctness: 1, ToolCorrect: true, Provider: "openai", Intent: []byte(`{"action_type":"add_chart"}`)},
		{ID: "e2", At: at.Add(time.Second), Command: "nonsense", ActionType: intent.Unknown, Error: "unrecognized_action_type", Provider: "ollama"},
	}
	for _, r := range results {
		require.NoError(t, s.SaveEvaluation(ctx, r))
	}

	got, err := s.ListEvaluations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "e1", got[0].ID)
	assert.True(t, got[0].At.Equal(at))
	assert.Equal(t, intent.AddChart, got[0].ActionType)
	assert.Equal(t, 150*time.Millisecond, got[0].Latency)
	assert.True(t, got[0].ToolCorrect)
	assert.JSONEq(t, `{"action_type":"add_chart"}`, string(got[0].Intent))
	assert.Equal(t, "null", string(got[1].Action))
	assert.Equal(t, "unrecognized_action_type", got[1].Error)

	limited, err := s.ListEvaluations(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStoreErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("dataset insert rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO datasets").WillReturnError(boom)
		mock.ExpectRollback()

		err = New(db).SaveDataset(ctx, &Dataset{Name: "x"}, salesRows())
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row insert rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO datasets").WillReturnResult(sqlmock.NewResult(1, 1))
		prep := mock.ExpectPrepare("INSERT INTO dataset_rows")
		prep.ExpectExec().WillReturnError(boom)
		mock.ExpectRollback()

		err = New(db).SaveDataset(ctx, &Dataset{Name: "x"}, salesRows())
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "row 0")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get dataset query error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT (.+) FROM datasets").WillReturnError(boom)

		_, err = New(db).GetDataset(ctx, "d1")
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("corrupt layout", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM dashboards").
			WillReturnRows(sqlmock.NewRows([]string{"id", "dataset_id", "title", "components", "layout", "created_at", "updated_at"}).
				AddRow("d1", "ds1", "t", "[]", "{not json", now, now))

		_, err = New(db).GetDashboard(ctx, "d1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode layout")
	})

	t.Run("save evaluation", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("INSERT INTO evaluations").WillReturnError(boom)

		err = New(db).SaveEvaluation(ctx, eval.Result{ID: "e1"})
		assert.ErrorIs(t, err, boom)
	})
}
