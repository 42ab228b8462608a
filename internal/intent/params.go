package intent

import (
	"encoding/json"

	"github.com/go-viper/mapstructure/v2"
)

// Params is the closed set of per-action parameter types
type Params interface {
	Action() ActionType
}

type AddChartParams struct {
	ChartType   string `json:"chart_type,omitempty"`
	XAxis       string `json:"x_axis,omitempty"`
	YAxis       string `json:"y_axis,omitempty"`
	Title       string `json:"title,omitempty"`
	Aggregation string `json:"aggregation,omitempty"`
}

// ModifyChartParams fields are nil when the command leaves them unchanged
type ModifyChartParams struct {
	Type  string  `json:"chart_type,omitempty"`
	Title *string `json:"title,omitempty"`
	XAxis *string `json:"x_axis,omitempty"`
	YAxis *string `json:"y_axis,omitempty"`
}

type RemoveChartParams struct{}

type FilterParams struct {
	Column   string `json:"column,omitempty"`
	Operator string `json:"operator,omitempty"`
	Value    any    `json:"value,omitempty"`
	Limit    *int   `json:"limit,omitempty"`
	SortBy   string `json:"sort_by,omitempty"`
	Order    string `json:"order,omitempty"`
}

// TransformParams passes the model's transformation spec through untouched
type TransformParams struct {
	Spec map[string]any
}

type UpdateKPIParams struct {
	Value    any
	HasValue bool
	Title    *string
}

type RenameParams struct {
	Title string `json:"title,omitempty"`
}

type WidgetSpec struct {
	ChartType string `json:"chart_type,omitempty"`
	XAxis     string `json:"x_axis,omitempty"`
	YAxis     string `json:"y_axis,omitempty"`
	Title     string `json:"title,omitempty"`
}

type GenerateDashboardParams struct {
	Widgets []WidgetSpec `json:"widgets,omitempty"`
}

type ExplainChartParams struct {
	ChartID  string `json:"chart_id,omitempty"`
	Question string `json:"question,omitempty"`
}

type AnswerQuestionParams struct {
	Question string `json:"question,omitempty"`
}

type UnknownParams struct{}

func (AddChartParams) Action() ActionType          { return AddChart }
func (ModifyChartParams) Action() ActionType       { return ModifyChart }
func (RemoveChartParams) Action() ActionType       { return RemoveChart }
func (FilterParams) Action() ActionType            { return FilterData }
func (TransformParams) Action() ActionType         { return TransformData }
func (UpdateKPIParams) Action() ActionType         { return UpdateKPI }
func (RenameParams) Action() ActionType            { return RenameComponent }
func (GenerateDashboardParams) Action() ActionType { return GenerateDashboard }
func (ExplainChartParams) Action() ActionType      { return ExplainChart }
func (AnswerQuestionParams) Action() ActionType    { return AnswerQuestion }
func (UnknownParams) Action() ActionType           { return Unknown }

func (p TransformParams) MarshalJSON() ([]byte, error) {
	if p.Spec == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Spec)
}

func (p UpdateKPIParams) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if p.HasValue {
		out["value"] = p.Value
	}
	if p.Title != nil {
		out["title"] = *p.Title
	}
	return json.Marshal(out)
}

// EmptyParams returns the zero parameters for an action type
func EmptyParams(action ActionType) Params {
	switch action {
	case GenerateDashboard:
		return GenerateDashboardParams{}
	case AddChart:
		return AddChartParams{}
	case ModifyChart:
		return ModifyChartParams{}
	case RemoveChart:
		return RemoveChartParams{}
	case ExplainChart:
		return ExplainChartParams{}
	case AnswerQuestion:
		return AnswerQuestionParams{}
	case FilterData:
		return FilterParams{}
	case TransformData:
		return TransformParams{Spec: map[string]any{}}
	case UpdateKPI:
		return UpdateKPIParams{}
	case RenameComponent:
		return RenameParams{}
	default:
		return UnknownParams{}
	}
}

// DecodeParams converts the loose parameter object of a model response into
// the typed parameters for action. Values that cannot be decoded leave the
// zero value in place.
func DecodeParams(action ActionType, raw map[string]any) Params {
	if raw == nil {
		raw = map[string]any{}
	}

	switch action {
	case GenerateDashboard:
		var p GenerateDashboardParams
		if !decode(raw, &p) {
			return GenerateDashboardParams{}
		}
		return p

	case AddChart:
		var p AddChartParams
		if !decode(raw, &p) {
			return AddChartParams{}
		}
		return p

	case ModifyChart:
		var aux struct {
			ChartType string  `json:"chart_type"`
			Type      string  `json:"type"`
			Title     *string `json:"title"`
			XAxis     *string `json:"x_axis"`
			YAxis     *string `json:"y_axis"`
		}
		if !decode(raw, &aux) {
			return ModifyChartParams{}
		}
		p := ModifyChartParams{Type: aux.ChartType, Title: aux.Title, XAxis: aux.XAxis, YAxis: aux.YAxis}
		if p.Type == "" {
			p.Type = aux.Type
		}
		return p

	case ExplainChart:
		var p ExplainChartParams
		if !decode(raw, &p) {
			return ExplainChartParams{}
		}
		return p

	case AnswerQuestion:
		var p AnswerQuestionParams
		if !decode(raw, &p) {
			return AnswerQuestionParams{}
		}
		return p

	case FilterData:
		var p FilterParams
		if !decode(raw, &p) {
			return FilterParams{}
		}
		return p

	case TransformData:
		spec := make(map[string]any, len(raw))
		for k, v := range raw {
			spec[k] = v
		}
		return TransformParams{Spec: spec}

	case UpdateKPI:
		var aux struct {
			Title *string `json:"title"`
		}
		if !decode(raw, &aux) {
			aux.Title = nil
		}
		v, ok := raw["value"]
		return UpdateKPIParams{Value: v, HasValue: ok, Title: aux.Title}

	case RenameComponent:
		var aux struct {
			Title    string `json:"title"`
			NewTitle string `json:"new_title"`
		}
		if !decode(raw, &aux) {
			return RenameParams{}
		}
		if aux.Title == "" {
			aux.Title = aux.NewTitle
		}
		return RenameParams{Title: aux.Title}

	case RemoveChart:
		return RemoveChartParams{}

	default:
		return UnknownParams{}
	}
}

func decode(raw map[string]any, out any) bool {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return false
	}
	return dec.Decode(raw) == nil
}

// ParamMap flattens typed params back into a generic object
func ParamMap(p Params) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	return out
}
