package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sant0-9/chartwise/internal/eval"
	"github.com/sant0-9/chartwise/internal/intent"
)

func (s *Store) SaveEvaluation(ctx context.Context, r eval.Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluations (
			id, created_at, command, action_type, intent, action, success, error,
			latency_ns, prompt_tokens, response_tokens, cost, correctness, tool_correct, provider
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.At, r.Command, string(r.ActionType), rawOrNull(r.Intent), rawOrNull(r.Action),
		r.Success, r.Error, int64(r.Latency), r.PromptTokens, r.ResponseTokens,
		r.Cost, r.Correctness, r.ToolCorrect, r.Provider,
	)
	if err != nil {
		return fmt.Errorf("failed to save evaluation: %w", err)
	}
	return nil
}

// ListEvaluations returns up to limit results, oldest first. A limit of zero
// or less returns all of them.
func (s *Store) ListEvaluations(ctx context.Context, limit int) ([]eval.Result, error) {
	query := `
		SELECT id, created_at, command, action_type, intent, action, success, error,
			latency_ns, prompt_tokens, response_tokens, cost, correctness, tool_correct, provider
		FROM evaluations ORDER BY created_at, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	var out []eval.Result
	for rows.Next() {
		var r eval.Result
		var actionType, in, act string
		var latency int64
		if err := rows.Scan(&r.ID, &r.At, &r.Command, &actionType, &in, &act, &r.Success, &r.Error,
			&latency, &r.PromptTokens, &r.ResponseTokens, &r.Cost, &r.Correctness, &r.ToolCorrect, &r.Provider); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		r.ActionType = intent.ActionType(actionType)
		r.Intent = []byte(in)
		r.Action = []byte(act)
		r.Latency = time.Duration(latency)
		out = append(out, r)
	}
	return out, rows.Err()
}

func rawOrNull(b []byte) string {
	if len(b) == 0 {
		return "null"
	}
	return string(b)
}
