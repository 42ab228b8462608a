package cli

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/sant0-9/chartwise/internal/agent"
	"github.com/sant0-9/chartwise/internal/analysis"
	"github.com/sant0-9/chartwise/internal/compiler"
	"github.com/sant0-9/chartwise/internal/config"
	"github.com/sant0-9/chartwise/internal/ingest"
	"github.com/sant0-9/chartwise/internal/intent"
	"github.com/sant0-9/chartwise/internal/llm"
	"github.com/sant0-9/chartwise/internal/pipeline"
	"github.com/sant0-9/chartwise/internal/store"
)

// workspace is an opened database plus everything needed to run commands
// against it.
type workspace struct {
	*pipeline.Pipeline

	store  *store.Store
	loader *ingest.Loader
}

// openWorkspace wires the store, dataset loader, model gateway and agent
// into a pipeline.
func openWorkspace(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*workspace, error) {
	s, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	loader, err := ingest.NewLoader(ctx, log)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	gw := llm.Resolve(ctx, cfg, log)
	engine := analysis.NewEngine(gw, log)
	c := compiler.New(engine)

	p := pipeline.New(pipeline.Deps{
		Store:    s,
		Loader:   loader,
		Agent:    agent.New(intent.NewParser(gw, log), c, log),
		Compiler: c,
		Provider: gw.Provider(),
		Log:      log,
	})

	log.WithFields(logrus.Fields{
		"database": cfg.Database.Path,
		"provider": gw.Provider(),
	}).Debug("workspace opened")

	return &workspace{Pipeline: p, store: s, loader: loader}, nil
}

func (w *workspace) Close() error {
	return errors.Join(w.loader.Close(), w.store.Close())
}

func (e *env) open(ctx context.Context) (*workspace, error) {
	return openWorkspace(ctx, e.cfg, e.log)
}
