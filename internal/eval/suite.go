package eval

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sant0-9/chartwise/internal/intent"
)

// Case is one command of an evaluation suite. Expect is optional.
type Case struct {
	Command string            `yaml:"command"`
	Expect  intent.ActionType `yaml:"expect,omitempty"`
}

// Suite is a YAML file of cases run against one dashboard
type Suite struct {
	Dashboard string `yaml:"dashboard"`
	Cases     []Case `yaml:"cases"`
}

func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse suite %s: %w", path, err)
	}
	if len(s.Cases) == 0 {
		return nil, fmt.Errorf("suite %s has no cases", path)
	}
	for i, c := range s.Cases {
		if c.Command == "" {
			return nil, fmt.Errorf("case %d: command is required", i+1)
		}
		if c.Expect != "" && !c.Expect.Valid() {
			return nil, fmt.Errorf("case %d: unknown action type %q", i+1, c.Expect)
		}
	}
	return &s, nil
}
