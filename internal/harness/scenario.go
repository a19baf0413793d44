package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: SQL statements that seed a
// local model, then a flow of facade calls with expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Setup contains SQL statements applied to a fresh local engine
	// before the flow runs. Setup statements are assumed to succeed.
	Setup []string `yaml:"setup,omitempty"`

	// Flow contains the facade calls to make, in order.
	Flow []Step `yaml:"flow"`
}

// Step is one facade call in a scenario flow.
type Step struct {
	// Op selects the call: "execute", "info", or "table".
	Op string `yaml:"op"`

	// Query is the raw expression for op execute.
	Query string `yaml:"query,omitempty"`

	// Kind is the metadata kind for op info.
	Kind string `yaml:"kind,omitempty"`

	// Table scopes op info, or names the table for op table.
	Table string `yaml:"table,omitempty"`

	// Limit is the row limit (execute, info) or max rows (table).
	Limit int `yaml:"limit,omitempty"`

	// BypassCache skips the result cache for op execute.
	BypassCache bool `yaml:"bypass_cache,omitempty"`

	// Expect validates the call's result. Nil means no validation.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected result behavior. All fields are
// optional; only set fields are checked.
type ExpectClause struct {
	Success        *bool  `yaml:"success,omitempty"`
	CacheHit       *bool  `yaml:"cache_hit,omitempty"`
	ClientFiltered *bool  `yaml:"client_filtered,omitempty"`
	RowCount       *int   `yaml:"row_count,omitempty"`
	TableReference string `yaml:"table_reference,omitempty"`
	ErrorType      string `yaml:"error_type,omitempty"`

	// Rows, when set, must match the result rows exactly, in order.
	// YAML scalars decode as native types, so numeric cells should be
	// written as strings to match the serialized row values.
	Rows []map[string]any `yaml:"rows,omitempty"`
}

// Step operation constants.
const (
	OpExecute = "execute"
	OpInfo    = "info"
	OpTable   = "table"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:".
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single flow step based on its op.
func validateStep(index int, step *Step) error {
	switch step.Op {
	case OpExecute:
		if step.Query == "" {
			return fmt.Errorf("flow[%d]: query is required for execute", index)
		}
	case OpInfo:
		if step.Kind == "" {
			return fmt.Errorf("flow[%d]: kind is required for info", index)
		}
	case OpTable:
		if step.Table == "" {
			return fmt.Errorf("flow[%d]: table is required for table", index)
		}
	case "":
		return fmt.Errorf("flow[%d]: op is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", index, step.Op)
	}
	return nil
}
