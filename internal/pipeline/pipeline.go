// Package pipeline ties ingestion, persistence and the command agent into
// the operations the server, CLI and terminal UI expose.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sant0-9/chartwise/internal/agent"
	"github.com/sant0-9/chartwise/internal/analysis"
	"github.com/sant0-9/chartwise/internal/compiler"
	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/dataset"
	"github.com/sant0-9/chartwise/internal/eval"
	"github.com/sant0-9/chartwise/internal/ingest"
	"github.com/sant0-9/chartwise/internal/intent"
	"github.com/sant0-9/chartwise/internal/prompts"
	"github.com/sant0-9/chartwise/internal/store"
)

// Stage represents a pipeline stage
type Stage int

const (
	StageLoading Stage = iota
	StageProcessing
	StageApplying
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageLoading:
		return "Loading"
	case StageProcessing:
		return "Processing"
	case StageApplying:
		return "Applying"
	case StageDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Progress represents pipeline progress
type Progress struct {
	Stage   Stage
	Message string
}

// Loader reads a dataset file
type Loader interface {
	Load(ctx context.Context, path string) (*ingest.Dataset, error)
}

type Deps struct {
	Store     *store.Store
	Loader    Loader
	Agent     *agent.Agent
	Compiler  *compiler.Compiler
	Evaluator *eval.Evaluator
	Sessions  *agent.Sessions
	// Provider names the model behind the agent for cost accounting
	Provider string
	Log      logrus.FieldLogger
}

type Pipeline struct {
	store     *store.Store
	loader    Loader
	agent     *agent.Agent
	compiler  *compiler.Compiler
	evaluator *eval.Evaluator
	sessions  *agent.Sessions
	provider  string
	log       logrus.FieldLogger
	locks     *keyedMutex

	onProgress func(Progress)
}

func New(d Deps) *Pipeline {
	sessions := d.Sessions
	if sessions == nil {
		sessions = agent.NewSessions()
	}
	evaluator := d.Evaluator
	if evaluator == nil {
		evaluator = eval.NewEvaluator()
	}
	return &Pipeline{
		store:     d.Store,
		loader:    d.Loader,
		agent:     d.Agent,
		compiler:  d.Compiler,
		evaluator: evaluator,
		sessions:  sessions,
		provider:  d.Provider,
		log:       d.Log,
		locks:     newKeyedMutex(),
	}
}

// SetProgressCallback sets the progress callback
func (p *Pipeline) SetProgressCallback(fn func(Progress)) {
	p.onProgress = fn
}

func (p *Pipeline) progress(stage Stage, msg string) {
	if p.onProgress != nil {
		p.onProgress(Progress{Stage: stage, Message: msg})
	}
}

func (p *Pipeline) Sessions() *agent.Sessions {
	return p.sessions
}

func (p *Pipeline) Store() *store.Store {
	return p.store
}

// Ingest loads the file at path and stores it as a new dataset
func (p *Pipeline) Ingest(ctx context.Context, path string) (*store.Dataset, error) {
	if p.loader == nil {
		return nil, fmt.Errorf("no dataset loader configured")
	}

	p.progress(StageLoading, "Reading "+path)
	ds, err := p.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	rec := &store.Dataset{
		Name:       ds.Metadata.Name,
		SourcePath: ds.Metadata.SourcePath,
		Catalog:    ds.Catalog,
	}
	if err := p.store.SaveDataset(ctx, rec, ds.Rows); err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"dataset_id": rec.ID,
		"name":       rec.Name,
		"rows":       rec.RowCount,
		"columns":    len(rec.Catalog),
		"size":       ds.Metadata.FileSizeHuman(),
	}).Info("dataset ingested")
	p.progress(StageDone, "Dataset stored")

	return rec, nil
}

// Generate builds and stores a starter dashboard for a dataset. An empty
// title defaults to the dataset name.
func (p *Pipeline) Generate(ctx context.Context, datasetID, title string) (*dashboard.Dashboard, error) {
	p.progress(StageLoading, "Loading dataset")
	ds, err := p.store.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	rows, err := p.store.LoadRows(ctx, datasetID, 0)
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = ds.Name + " Dashboard"
	}
	d := dashboard.New("", ds.ID, title)

	p.progress(StageApplying, "Building components")
	components := p.compiler.Synthesize(0, ds.Catalog.Buckets())
	components = append(components, dataTable(p.compiler.NewID(), rowAfter(components), ds.Catalog))
	if err := d.Add(components...); err != nil {
		return nil, err
	}
	analysis.MaterializeAll(d, ds.Catalog, rows)

	if err := p.store.SaveDashboard(ctx, d); err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"dashboard_id": d.ID,
		"dataset_id":   ds.ID,
		"components":   len(d.Components),
	}).Info("dashboard generated")
	p.progress(StageDone, "Dashboard ready")

	return d, nil
}

func dataTable(id string, row int, catalog dataset.Catalog) dashboard.Component {
	return dashboard.Component{
		ID:       id,
		Type:     dashboard.Table,
		Title:    "Data",
		Config:   dashboard.Config{Columns: catalog.Names(), PageSize: 10},
		Position: dashboard.Position{Row: row, Col: 0, Width: dashboard.GridColumns, Height: 3},
	}
}

func rowAfter(components []dashboard.Component) int {
	row := 0
	for _, c := range components {
		if end := c.Position.Row + c.Position.Height; end > row {
			row = end
		}
	}
	return row
}

// ChatResult is the outcome of one command
type ChatResult struct {
	SessionID  string               `json:"session_id"`
	Response   agent.Response       `json:"response"`
	Dashboard  *dashboard.Dashboard `json:"dashboard"`
	Evaluation eval.Result          `json:"evaluation"`
}

// Chat runs command against a stored dashboard. Successful mutations are
// applied, rematerialized and persisted; commands on the same dashboard run
// one at a time.
func (p *Pipeline) Chat(ctx context.Context, sessionID, dashboardID, command string) (*ChatResult, error) {
	unlock := p.locks.Lock(dashboardID)
	defer unlock()

	p.progress(StageLoading, "Loading dashboard")
	d, err := p.store.GetDashboard(ctx, dashboardID)
	if err != nil {
		return nil, err
	}
	ds, err := p.store.GetDataset(ctx, d.DatasetID)
	if err != nil {
		return nil, err
	}
	rows, err := p.store.LoadRows(ctx, ds.ID, 0)
	if err != nil {
		return nil, err
	}

	sess := p.sessions.Get(sessionID)

	p.progress(StageProcessing, "Understanding command")
	resp := p.agent.Process(ctx, sess, agent.Request{
		Command:   command,
		Dashboard: d,
		Catalog:   ds.Catalog,
		Rows:      rows,
	})

	if resp.Action.Mutates() {
		p.progress(StageApplying, "Updating dashboard")
		applied, err := apply(resp.Action, d)
		if err != nil {
			return nil, err
		}
		if applied.Success {
			analysis.MaterializeAll(d, ds.Catalog, rows)
			if err := p.store.SaveDashboard(ctx, d); err != nil {
				return nil, err
			}
		} else {
			resp.Action = applied
			sess.Amend(applied)
		}
	}

	result := p.evaluate(command, resp, d, ds.Catalog)
	if err := p.store.SaveEvaluation(ctx, result); err != nil {
		p.log.WithError(err).Warn("failed to record evaluation")
	}

	p.progress(StageDone, "Done")
	return &ChatResult{
		SessionID:  sess.ID,
		Response:   resp,
		Dashboard:  d,
		Evaluation: result,
	}, nil
}

// apply mutates d with a. A target that is gone from the dashboard turns
// into a failed action rather than an error; d is left unchanged then.
func apply(a compiler.Action, d *dashboard.Dashboard) (compiler.Action, error) {
	err := a.Apply(d)
	switch {
	case errors.Is(err, dashboard.ErrComponentNotFound):
		return compiler.Failed(compiler.ErrNoTargetComponent,
			fmt.Sprintf("No component with id '%s' in dashboard", a.ComponentID)), nil
	case err != nil:
		return a, fmt.Errorf("failed to apply %s: %w", a.Kind, err)
	}
	return a, nil
}

// evaluate scores a response. Token counts are estimated from the intent
// prompt the model would have seen and the intent it produced.
func (p *Pipeline) evaluate(command string, resp agent.Response, d *dashboard.Dashboard, catalog dataset.Catalog) eval.Result {
	provider := string(resp.Intent.Source)
	var promptText, responseText string
	if resp.Intent.Source == intent.SourceLLM {
		provider = p.provider
		promptText = prompts.IntentSystem() + prompts.BuildIntentPrompt(command, prompts.BuildIntentContext(d, catalog))
		if data, err := json.Marshal(resp.Intent); err == nil {
			responseText = string(data)
		}
	}
	return p.evaluator.Score(command, resp.Intent, resp.Action, provider, resp.Latency, promptText, responseText)
}
