// Package scenario replays scripted answers through the wizard engine and
// checks the resulting path, answers and mapped record against test.yaml
// assertions.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Action is one scripted interaction. Exactly one of Answer or Do is used;
// when Step is set the engine must be on that step before the action runs.
type Action struct {
	Step   string `yaml:"step,omitempty"   json:"step,omitempty"`
	Answer any    `yaml:"answer,omitempty" json:"answer,omitempty"`
	Do     string `yaml:"do,omitempty"     json:"do,omitempty"` // back, skip, reset, confirm
}

// Script is the content of steps.yaml.
type Script struct {
	Actions []Action `yaml:"actions"`
}

// Expectations is the content of test.yaml. Omitted fields are not
// asserted.
type Expectations struct {
	Description        string            `yaml:"description,omitempty"         json:"description,omitempty"`
	Tags               []string          `yaml:"tags,omitempty"                json:"tags,omitempty"`
	ExpectedOutcome    string            `yaml:"expected_outcome,omitempty"    json:"expected_outcome,omitempty"`
	ExpectedAnswers    map[string]string `yaml:"expected_answers,omitempty"    json:"expected_answers,omitempty"`
	AbsentAnswers      []string          `yaml:"absent_answers,omitempty"      json:"absent_answers,omitempty"`
	ExpectedRecord     map[string]string `yaml:"expected_record,omitempty"     json:"expected_record,omitempty"`
	MustReach          []string          `yaml:"must_reach,omitempty"          json:"must_reach,omitempty"`
	MustNotReach       []string          `yaml:"must_not_reach,omitempty"      json:"must_not_reach,omitempty"`
	ExpectedRejections []string          `yaml:"expected_rejections,omitempty" json:"expected_rejections,omitempty"`
}

// LoadExpectations reads and parses a test.yaml file.
func LoadExpectations(path string) (*Expectations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test.yaml: %w", err)
	}
	return ParseExpectations(data)
}

// ParseExpectations parses test.yaml content.
func ParseExpectations(data []byte) (*Expectations, error) {
	var exp Expectations
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("parse test.yaml: %w", err)
	}
	return &exp, nil
}

// LoadScript reads and parses a steps.yaml file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript parses a Script and checks every action is well formed.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(s.Actions) == 0 {
		return nil, fmt.Errorf("script must have at least one action")
	}
	for i, a := range s.Actions {
		switch a.Do {
		case "", "back", "skip", "reset", "confirm":
		default:
			return nil, fmt.Errorf("action %d: unknown do %q", i+1, a.Do)
		}
		if a.Do != "" && a.Answer != nil {
			return nil, fmt.Errorf("action %d: answer and do are exclusive", i+1)
		}
		if a.Do == "" && a.Answer == nil {
			return nil, fmt.Errorf("action %d: needs an answer or a do", i+1)
		}
	}
	return &s, nil
}
