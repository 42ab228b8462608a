package eval

// Reasoning is the average token volume per task
type Reasoning struct {
	Prompt   float64 `json:"prompt"`
	Response float64 `json:"response"`
	Total    float64 `json:"total"`
}

type TypeMetrics struct {
	Count        int     `json:"count"`
	SuccessCount int     `json:"success_count"`
	SuccessRate  float64 `json:"success_rate"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	AvgCost      float64 `json:"avg_cost"`

	totalLatency float64
	totalCost    float64
}

type Summary struct {
	TotalTasks     int                    `json:"total_tasks"`
	SuccessRate    float64                `json:"task_success_rate"`
	AvgLatencyMs   float64                `json:"average_latency_ms"`
	AvgCorrectness float64                `json:"average_action_correctness"`
	TotalCost      float64                `json:"total_estimated_cost"`
	AvgReasoning   Reasoning              `json:"average_reasoning_length"`
	ToolAccuracy   float64                `json:"tool_usage_accuracy"`
	ByActionType   map[string]TypeMetrics `json:"metrics_by_action_type"`
}

// Summarize aggregates a set of results. An empty set yields zeros.
func Summarize(results []Result) Summary {
	s := Summary{TotalTasks: len(results), ByActionType: map[string]TypeMetrics{}}
	if len(results) == 0 {
		return s
	}

	var success, tool int
	var latency, correctness, prompt, response float64
	for _, r := range results {
		if r.Success {
			success++
		}
		if r.ToolCorrect {
			tool++
		}
		latency += r.LatencyMs()
		correctness += r.Correctness
		prompt += float64(r.PromptTokens)
		response += float64(r.ResponseTokens)
		s.TotalCost += r.Cost

		key := string(r.ActionType)
		if key == "" {
			key = "unknown"
		}
		m := s.ByActionType[key]
		m.Count++
		if r.Success {
			m.SuccessCount++
		}
		m.totalLatency += r.LatencyMs()
		m.totalCost += r.Cost
		s.ByActionType[key] = m
	}

	n := float64(len(results))
	s.SuccessRate = float64(success) / n
	s.ToolAccuracy = float64(tool) / n
	s.AvgLatencyMs = latency / n
	s.AvgCorrectness = correctness / n
	s.AvgReasoning = Reasoning{Prompt: prompt / n, Response: response / n, Total: (prompt + response) / n}

	for k, m := range s.ByActionType {
		c := float64(m.Count)
		m.SuccessRate = float64(m.SuccessCount) / c
		m.AvgLatencyMs = m.totalLatency / c
		m.AvgCost = m.totalCost / c
		s.ByActionType[k] = m
	}
	return s
}
