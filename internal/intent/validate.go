package intent

import (
	"fmt"
	"strings"
)

const defaultExplanation = "Processing your request."

// Validate normalizes a decoded action object into an Intent. Missing keys
// get defaults and an unrecognized action type becomes unknown.
func Validate(raw map[string]any) Intent {
	in := Intent{
		ActionType:  Unknown,
		Explanation: defaultExplanation,
	}
	if raw == nil {
		in.Params = UnknownParams{}
		return in
	}

	if v, ok := raw["action_type"]; ok && v != nil {
		at := ActionType(fmt.Sprint(v))
		if at.Valid() {
			in.ActionType = at
		} else {
			in.ActionType = Unknown
			raw = withExplanation(raw, unknownTypeExplanation())
		}
	}

	if v, ok := raw["target_component"].(string); ok {
		in.TargetComponent = v
	}

	if v, ok := raw["explanation"]; ok && v != nil {
		in.Explanation = fmt.Sprint(v)
	}

	params, _ := raw["parameters"].(map[string]any)
	in.Params = DecodeParams(in.ActionType, params)
	return in
}

func unknownTypeExplanation() string {
	names := make([]string, len(ActionTypes))
	for i, t := range ActionTypes {
		names[i] = string(t)
	}
	return "Unknown action type. Available: " + strings.Join(names, ", ")
}

func withExplanation(raw map[string]any, explanation string) map[string]any {
	out := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		out[k] = v
	}
	out["explanation"] = explanation
	return out
}
