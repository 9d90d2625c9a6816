package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot captures the step trace and final closure table of a
// scenario execution.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
	Final        FinalState   `json:"final"`
}

// FinalState is the store contents with paths rendered as "(a,d)".
type FinalState struct {
	Categories []FinalCategory `json:"categories"`
	Paths      []string        `json:"paths"`
}

// FinalCategory is one category row in a golden file.
type FinalCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewTraceSnapshot builds the golden-file view of a result.
func NewTraceSnapshot(scenarioName string, result *Result) TraceSnapshot {
	final := FinalState{
		Categories: make([]FinalCategory, len(result.Final.Categories)),
		Paths:      make([]string, len(result.Final.Paths)),
	}
	for i, c := range result.Final.Categories {
		final.Categories[i] = FinalCategory{ID: int64(c.ID), Name: c.Name}
	}
	for i, p := range result.Final.Paths {
		final.Paths[i] = p.String()
	}

	return TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Final:        final,
	}
}

// MarshalGolden renders a snapshot as indented JSON with a trailing newline.
// Categories and paths are already in ascending order, so the output is
// deterministic.
func (s TraceSnapshot) MarshalGolden() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its trace and final state
// against a golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the output doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already-run result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewTraceSnapshot(scenarioName, result).MarshalGolden()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
