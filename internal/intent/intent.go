package intent

import (
	"encoding/json"
)

// ActionType is one of the eleven dashboard actions a command can map to
type ActionType string

const (
	GenerateDashboard ActionType = "generate_dashboard"
	AddChart          ActionType = "add_chart"
	ModifyChart       ActionType = "modify_chart"
	RemoveChart       ActionType = "remove_chart"
	ExplainChart      ActionType = "explain_chart"
	AnswerQuestion    ActionType = "answer_question"
	FilterData        ActionType = "filter_data"
	TransformData     ActionType = "transform_data"
	UpdateKPI         ActionType = "update_kpi"
	RenameComponent   ActionType = "rename_component"
	Unknown           ActionType = "unknown"
)

// ActionTypes lists the vocabulary in its canonical order
var ActionTypes = []ActionType{
	GenerateDashboard, AddChart, ModifyChart, RemoveChart,
	ExplainChart, AnswerQuestion, FilterData, TransformData,
	UpdateKPI, RenameComponent, Unknown,
}

func (a ActionType) Valid() bool {
	for _, t := range ActionTypes {
		if a == t {
			return true
		}
	}
	return false
}

// Source records which path produced an intent
type Source string

const (
	SourceLLM      Source = "llm"
	SourceRules    Source = "rules"
	SourceFallback Source = "fallback"
)

// Intent is a validated, structured reading of one user command
type Intent struct {
	ActionType      ActionType
	TargetComponent string
	Params          Params
	Explanation     string
	Command         string
	Source          Source
}

// Parameters returns the params, never nil
func (i Intent) Parameters() Params {
	if i.Params == nil {
		return EmptyParams(i.ActionType)
	}
	return i.Params
}

type intentJSON struct {
	ActionType      ActionType `json:"action_type"`
	TargetComponent *string    `json:"target_component"`
	Parameters      Params     `json:"parameters"`
	Explanation     string     `json:"explanation"`
	Command         string     `json:"user_command,omitempty"`
	Source          Source     `json:"source,omitempty"`
}

func (i Intent) MarshalJSON() ([]byte, error) {
	out := intentJSON{
		ActionType:  i.ActionType,
		Parameters:  i.Parameters(),
		Explanation: i.Explanation,
		Command:     i.Command,
		Source:      i.Source,
	}
	if i.TargetComponent != "" {
		target := i.TargetComponent
		out.TargetComponent = &target
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the same loose shape a model produces and runs it
// through Validate.
func (i *Intent) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Validate(raw)
	if cmd, ok := raw["user_command"].(string); ok {
		v.Command = cmd
	}
	if src, ok := raw["source"].(string); ok {
		v.Source = Source(src)
	}
	*i = v
	return nil
}
