package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/taxon/internal/model"
)

// Scenario defines a taxonomy test scenario: a starting fixture, a sequence
// of mutations with expected outcomes, and assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixture names the seed data loaded before the steps run.
	// One of "subjects", "subjects_raw", or empty for an empty store.
	Fixture string `yaml:"fixture,omitempty"`

	// Strict enables the precommit validator for every step.
	Strict bool `yaml:"strict,omitempty"`

	// Steps are the mutations to run, in order.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is a single mutation.
type Step struct {
	// Op is one of insert, move, remove, rename.
	Op string `yaml:"op"`

	// ID is the category to move, remove, or rename.
	ID model.CategoryID `yaml:"id,omitempty"`

	// Name is the category name for insert and rename.
	Name string `yaml:"name,omitempty"`

	// Parent is the parent for insert or the new parent for move.
	// Absent means root.
	Parent *model.CategoryID `yaml:"parent,omitempty"`

	// Policy is the remove policy (reject or reparent).
	Policy model.RemovePolicy `yaml:"policy,omitempty"`

	// ExpectID is the ID an insert must be assigned, if set.
	ExpectID model.CategoryID `yaml:"expect_id,omitempty"`

	// ExpectError is the error code the step must fail with, if set.
	// A step with ExpectError that succeeds fails the scenario.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type. See the Assert* constants.
	Type string `yaml:"type"`

	// ID is the category the query runs against.
	ID model.CategoryID `yaml:"id,omitempty"`

	// Expect is the expected result as category IDs, in result order.
	// For parent, an empty list means "no parent".
	Expect []model.CategoryID `yaml:"expect,omitempty"`

	// Name is the expected category name (used by category). An empty
	// name asserts the category does not exist.
	Name string `yaml:"name,omitempty"`

	// Invariant is the expected violated invariant (used by violation).
	Invariant string `yaml:"invariant,omitempty"`
}

// Fixture names.
const (
	FixtureSubjects    = "subjects"
	FixtureSubjectsRaw = "subjects_raw"
)

// Step operations.
const (
	OpInsert = "insert"
	OpMove   = "move"
	OpRemove = "remove"
	OpRename = "rename"
)

// Assertion type constants.
const (
	AssertSubtree    = "subtree"
	AssertLeaves     = "leaves"
	AssertParent     = "parent"
	AssertChildren   = "children"
	AssertAncestors  = "ancestors"
	AssertRoots      = "roots"
	AssertCategory   = "category"
	AssertConsistent = "consistent"
	AssertViolation  = "violation"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads path if it is a file, or every *.yaml file in it if
// it is a directory, sorted by file name.
func LoadScenarios(path string) ([]*Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.yaml"))
		if err != nil {
			return nil, fmt.Errorf("failed to list scenarios: %w", err)
		}
		sort.Strings(files)
	}

	scenarios := make([]*Scenario, 0, len(files))
	for _, f := range files {
		s, err := LoadScenario(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Fixture {
	case "", FixtureSubjects, FixtureSubjectsRaw:
	default:
		return fmt.Errorf("unknown fixture %q", s.Fixture)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its op.
func validateStep(index int, s *Step) error {
	switch s.Op {
	case OpInsert:
		if s.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for insert", index)
		}
	case OpMove:
		if s.ID <= 0 {
			return fmt.Errorf("steps[%d]: id is required for move", index)
		}
	case OpRemove:
		if s.ID <= 0 {
			return fmt.Errorf("steps[%d]: id is required for remove", index)
		}
		if s.Policy == "" {
			return fmt.Errorf("steps[%d]: policy is required for remove", index)
		}
	case OpRename:
		if s.ID <= 0 {
			return fmt.Errorf("steps[%d]: id is required for rename", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}

	if s.ExpectID != 0 && s.Op != OpInsert {
		return fmt.Errorf("steps[%d]: expect_id is only valid for insert", index)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertSubtree, AssertLeaves, AssertParent, AssertChildren, AssertAncestors:
		if a.ID <= 0 {
			return fmt.Errorf("assertions[%d]: id is required for %s", index, a.Type)
		}
	case AssertCategory:
		if a.ID <= 0 {
			return fmt.Errorf("assertions[%d]: id is required for category", index)
		}
	case AssertViolation:
		if a.Invariant == "" {
			return fmt.Errorf("assertions[%d]: invariant is required for violation", index)
		}
	case AssertRoots, AssertConsistent:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
