package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sant0-9/chartwise/internal/agent"
	"github.com/sant0-9/chartwise/internal/analysis"
	"github.com/sant0-9/chartwise/internal/compiler"
	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/dataset"
	"github.com/sant0-9/chartwise/internal/ingest"
	"github.com/sant0-9/chartwise/internal/intent"
	"github.com/sant0-9/chartwise/internal/llm"
	"github.com/sant0-9/chartwise/internal/pipeline"
	"github.com/sant0-9/chartwise/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixedLoader struct{}

func (fixedLoader) Load(_ context.Context, path string) (*ingest.Dataset, error) {
	if strings.HasSuffix(path, "empty.csv") {
		return nil, ingest.ErrEmptyFile
	}
	return &ingest.Dataset{
		Metadata: ingest.Metadata{Name: "sales", SourcePath: path},
		Catalog: dataset.Catalog{
			{Name: "region", Type: dataset.String},
			{Name: "revenue", Type: dataset.Numeric},
		},
		Rows: []dataset.Row{
			{"region": "North", "revenue": 10.0},
			{"region": "South", "revenue": 30.0},
		},
	}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	gw := llm.NewGateway(llm.NewOfflineProvider(), "", time.Second)
	c := compiler.New(analysis.NewEngine(gw, log))
	p := pipeline.New(pipeline.Deps{
		Store:    s,
		Loader:   fixedLoader{},
		Agent:    agent.New(intent.NewParser(gw, log), c, log),
		Compiler: c,
		Log:      log,
	})

	ts := httptest.NewServer(New(Config{UploadDir: t.TempDir(), Pipeline: p, Log: log}).Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = s.Close()
	})
	return ts
}

func upload(t *testing.T, ts *httptest.Server, name string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, _ = fw.Write([]byte("region,revenue\nNorth,10\n"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/datasets", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func postJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestDatasetFlow(t *testing.T) {
	ts := newTestServer(t)

	resp := upload(t, ts, "sales.csv")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	ds := decode[store.Dataset](t, resp)
	assert.Equal(t, "sales", ds.Name)
	assert.Equal(t, 2, ds.RowCount)

	resp, err := http.Get(ts.URL + "/api/datasets")
	require.NoError(t, err)
	assert.Len(t, decode[[]store.Dataset](t, resp), 1)

	resp, err = http.Get(ts.URL + "/api/datasets/" + ds.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/datasets/"+ds.ID+"/dashboards", map[string]string{"title": "Sales"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decode[dashboard.Dashboard](t, resp)
	assert.Equal(t, "Sales", d.Title)
	assert.NotEmpty(t, d.Components)

	resp, err = http.Get(ts.URL + "/api/dashboards/" + d.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/dashboards")
	require.NoError(t, err)
	assert.Len(t, decode[[]dashboard.Dashboard](t, resp), 1)
}

func TestUploadErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		file string
		want int
	}{
		{"unsupported", "book.xlsx", http.StatusBadRequest},
		{"empty", "empty.csv", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := upload(t, ts, tt.file)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.NotEmpty(t, decode[errorBody](t, resp).Error)
		})
	}

	resp, err := http.Post(ts.URL+"/api/datasets", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/api/datasets/nope", "/api/dashboards/nope"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + path)
			require.NoError(t, err)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.Contains(t, decode[errorBody](t, resp).Error, "not found")
		})
	}

	resp := postJSON(t, ts.URL+"/api/agent/chat", chatRequest{Command: "add a chart", DashboardID: "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestChatFlow(t *testing.T) {
	ts := newTestServer(t)

	ds := decode[store.Dataset](t, upload(t, ts, "sales.csv"))
	d := decode[dashboard.Dashboard](t, postJSON(t, ts.URL+"/api/datasets/"+ds.ID+"/dashboards", nil))
	before := len(d.Components)

	resp := postJSON(t, ts.URL+"/api/agent/chat", chatRequest{Command: "add a pie chart of revenue by region", DashboardID: d.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[map[string]any](t, resp)
	assert.Equal(t, true, out["success"])
	sessionID, _ := out["session_id"].(string)
	require.NotEmpty(t, sessionID)

	action, _ := out["action"].(map[string]any)
	assert.Equal(t, "add_component", action["action"])

	resp, err := http.Get(ts.URL + "/api/dashboards/" + d.ID)
	require.NoError(t, err)
	assert.Len(t, decode[dashboard.Dashboard](t, resp).Components, before+1)

	resp = postJSON(t, ts.URL+"/api/agent/chat", chatRequest{Command: "blorp", DashboardID: d.ID, SessionID: sessionID})
	out = decode[map[string]any](t, resp)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "unrecognized_action_type", out["error"])

	resp, err = http.Get(ts.URL + "/api/agent/history?session_id=" + sessionID)
	require.NoError(t, err)
	hist := decode[map[string]any](t, resp)
	entries, _ := hist["history"].([]any)
	assert.Len(t, entries, 2)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/agent/history?session_id="+sessionID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/agent/history?session_id=" + sessionID)
	require.NoError(t, err)
	entries, _ = decode[map[string]any](t, resp)["history"].([]any)
	assert.Empty(t, entries)

	resp, err = http.Get(ts.URL + "/api/evaluations")
	require.NoError(t, err)
	evals := decode[map[string]any](t, resp)
	results, _ := evals["results"].([]any)
	assert.Len(t, results, 2)
	summary, _ := evals["summary"].(map[string]any)
	assert.Equal(t, 0.5, summary["task_success_rate"])
}

func TestChatValidation(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/agent/chat", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/agent/chat", chatRequest{Command: "add a chart"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/agent/history")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/agent/history?session_id=unknown")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/evaluations?limit=-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestServeStopsOnCancel(t *testing.T) {
	log, _ := test.NewNullLogger()
	srv := New(Config{Addr: "127.0.0.1:0", Log: log})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
