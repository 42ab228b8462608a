// Package agent runs one command through the parse, compile and record
// steps of a conversation.
package agent

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sant0-9/chartwise/internal/compiler"
	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/dataset"
	"github.com/sant0-9/chartwise/internal/intent"
)

const (
	answerRowLimit  = 500
	explainRowLimit = 100
)

// IntentParser is the parsing step of the pipeline
type IntentParser interface {
	Parse(ctx context.Context, command string, d *dashboard.Dashboard, catalog dataset.Catalog) intent.Intent
}

type Request struct {
	Command   string
	Dashboard *dashboard.Dashboard
	Catalog   dataset.Catalog
	Rows      []dataset.Row
}

type Response struct {
	Intent  intent.Intent   `json:"intent"`
	Action  compiler.Action `json:"action"`
	Latency time.Duration   `json:"-"`
}

type Agent struct {
	parser   IntentParser
	compiler *compiler.Compiler
	log      logrus.FieldLogger
	now      func() time.Time
}

func New(parser IntentParser, c *compiler.Compiler, log logrus.FieldLogger) *Agent {
	return &Agent{
		parser:   parser,
		compiler: c,
		log:      log,
		now:      time.Now,
	}
}

// Process handles one command against a dashboard snapshot and records it
// in sess. The snapshot is not modified; callers apply the returned action.
func (a *Agent) Process(ctx context.Context, sess *Session, req Request) Response {
	start := a.now()

	snapshot := req.Dashboard.Clone()
	in := a.parser.Parse(ctx, req.Command, snapshot, req.Catalog)

	var rows []dataset.Row
	switch compiler.EffectiveType(in) {
	case intent.AnswerQuestion:
		rows = limit(req.Rows, answerRowLimit)
	case intent.ExplainChart:
		rows = limit(req.Rows, explainRowLimit)
	}

	action := a.compiler.Compile(ctx, compiler.Input{
		Intent:    in,
		Dashboard: snapshot,
		Catalog:   req.Catalog,
		Rows:      rows,
	})

	latency := a.now().Sub(start)
	if sess != nil {
		sess.Record(Entry{
			Command: req.Command,
			Intent:  in,
			Action:  action,
			Latency: latency,
			At:      start,
		})
	}

	entry := a.log.WithFields(logrus.Fields{
		"command":     req.Command,
		"action_type": in.ActionType,
		"source":      in.Source,
		"success":     action.Success,
		"latency":     latency,
	})
	if action.Success {
		entry.Info("command processed")
	} else {
		entry.WithField("error", action.Error).Info("command processed")
	}

	return Response{Intent: in, Action: action, Latency: latency}
}

func limit(rows []dataset.Row, n int) []dataset.Row {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
