package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/sant0-9/chartwise/internal/analysis"
	"github.com/sant0-9/chartwise/internal/dashboard"
	"github.com/sant0-9/chartwise/internal/intent"
)

// Kind is the concrete change or response an action carries
type Kind string

const (
	AddComponent          Kind = "add_component"
	UpdateComponent       Kind = "update_component"
	RemoveComponent       Kind = "remove_component"
	AddMultipleComponents Kind = "add_multiple_components"
	ApplyFilter           Kind = "apply_filter"
	ApplyTransformation   Kind = "apply_transformation"
	ExplainChart          Kind = "explain_chart"
	AnswerQuestion        Kind = "answer_question"
)

// ErrorCode identifies why an intent could not be compiled
type ErrorCode string

const (
	ErrMissingRequiredColumn  ErrorCode = "missing_required_column"
	ErrNoTargetComponent      ErrorCode = "no_target_component"
	ErrNoUpdateSpecified      ErrorCode = "no_update_specified"
	ErrInsufficientColumns    ErrorCode = "insufficient_columns_for_chart_type"
	ErrUnrecognizedActionType ErrorCode = "unrecognized_action_type"
	ErrNoDataAvailable        ErrorCode = "no_data_available"
)

// Filter describes a data filter for the client to apply
type Filter struct {
	Column   string `json:"column,omitempty"`
	Operator string `json:"operator"`
	Value    any    `json:"value,omitempty"`
	Limit    *int   `json:"limit,omitempty"`
	SortBy   string `json:"sort_by,omitempty"`
	Order    string `json:"order"`
}

// Action is the compiled result of one intent. On success Kind says which
// payload fields are set; on failure Error says why.
type Action struct {
	Success     bool
	Kind        Kind
	Explanation string
	Error       ErrorCode
	Suggestions []string

	Component      *dashboard.Component
	Components     []dashboard.Component
	ComponentID    string
	Updates        *dashboard.Patch
	Filter         *Filter
	Transformation map[string]any
	ChartID        string
	Question       string
	Insights       string
	Analysis       *analysis.Findings
}

func failure(code ErrorCode, explanation string) Action {
	return Action{Error: code, Explanation: explanation}
}

// Failed builds an unsuccessful action for callers outside the compiler
func Failed(code ErrorCode, explanation string) Action {
	return failure(code, explanation)
}

// Mutates reports whether applying the action changes a dashboard
func (a Action) Mutates() bool {
	if !a.Success {
		return false
	}
	switch a.Kind {
	case AddComponent, UpdateComponent, RemoveComponent, AddMultipleComponents:
		return true
	}
	return false
}

// Apply performs a mutating action on d. Non-mutating and failed actions
// leave d untouched.
func (a Action) Apply(d *dashboard.Dashboard) error {
	if !a.Mutates() {
		return nil
	}

	switch a.Kind {
	case AddComponent:
		if a.Component == nil {
			return fmt.Errorf("add_component without a component")
		}
		return d.Add(*a.Component)
	case AddMultipleComponents:
		return d.Add(a.Components...)
	case UpdateComponent:
		if a.Updates == nil {
			return nil
		}
		return d.Update(a.ComponentID, *a.Updates)
	case RemoveComponent:
		return d.Remove(a.ComponentID)
	}
	return nil
}

// ActionType maps a successful action back to the intent type that
// produces it.
func (a Action) ActionType() intent.ActionType {
	if !a.Success {
		return intent.Unknown
	}
	switch a.Kind {
	case AddComponent:
		return intent.AddChart
	case AddMultipleComponents:
		return intent.GenerateDashboard
	case RemoveComponent:
		return intent.RemoveChart
	case ApplyFilter:
		return intent.FilterData
	case ApplyTransformation:
		return intent.TransformData
	case ExplainChart:
		return intent.ExplainChart
	case AnswerQuestion:
		return intent.AnswerQuestion
	case UpdateComponent:
		return intent.ModifyChart
	}
	return intent.Unknown
}

type actionJSON struct {
	Success        bool                  `json:"success"`
	Action         Kind                  `json:"action,omitempty"`
	Explanation    string                `json:"explanation"`
	Error          ErrorCode             `json:"error,omitempty"`
	Suggestions    []string              `json:"suggestions,omitempty"`
	Component      *dashboard.Component  `json:"component,omitempty"`
	Components     []dashboard.Component `json:"components,omitempty"`
	ComponentID    string                `json:"component_id,omitempty"`
	Updates        *dashboard.Patch      `json:"updates,omitempty"`
	Filter         *Filter               `json:"filter,omitempty"`
	Transformation map[string]any        `json:"transformation,omitempty"`
	ChartID        string                `json:"chart_id,omitempty"`
	Question       string                `json:"question,omitempty"`
	Insights       string                `json:"insights,omitempty"`
	Analysis       *analysis.Findings    `json:"analysis,omitempty"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	if !a.Success {
		return json.Marshal(actionJSON{
			Explanation: a.Explanation,
			Error:       a.Error,
			Suggestions: a.Suggestions,
		})
	}
	return json.Marshal(actionJSON{
		Success:        true,
		Action:         a.Kind,
		Explanation:    a.Explanation,
		Component:      a.Component,
		Components:     a.Components,
		ComponentID:    a.ComponentID,
		Updates:        a.Updates,
		Filter:         a.Filter,
		Transformation: a.Transformation,
		ChartID:        a.ChartID,
		Question:       a.Question,
		Insights:       a.Insights,
		Analysis:       a.Analysis,
	})
}
