package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: sample
description: a sample scenario
setup:
  - CREATE TABLE Sales (Region TEXT)
flow:
  - op: execute
    query: "1+1"
    limit: 10
    expect:
      success: true
      row_count: 1
`)
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", scenario.Name)
	require.Len(t, scenario.Flow, 1)

	step := scenario.Flow[0]
	assert.Equal(t, OpExecute, step.Op)
	assert.Equal(t, "1+1", step.Query)
	require.NotNil(t, step.Expect)
	require.NotNil(t, step.Expect.Success)
	assert.True(t, *step.Expect.Success)
	require.NotNil(t, step.Expect.RowCount)
	assert.Equal(t, 1, *step.Expect.RowCount)
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: has a typo
flow:
  - op: execute
    query: "1+1"
    expects:
      success: true
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse YAML")
}

func TestLoadScenario_Validation(t *testing.T) {
	cases := []struct {
		name    string
		source  string
		wantErr string
	}{
		{
			"missing name",
			"description: d\nflow:\n  - op: execute\n    query: x\n",
			"name is required",
		},
		{
			"missing description",
			"name: n\nflow:\n  - op: execute\n    query: x\n",
			"description is required",
		},
		{
			"empty flow",
			"name: n\ndescription: d\n",
			"flow list is required",
		},
		{
			"execute without query",
			"name: n\ndescription: d\nflow:\n  - op: execute\n",
			"query is required",
		},
		{
			"info without kind",
			"name: n\ndescription: d\nflow:\n  - op: info\n",
			"kind is required",
		},
		{
			"table without table",
			"name: n\ndescription: d\nflow:\n  - op: table\n",
			"table is required",
		},
		{
			"unknown op",
			"name: n\ndescription: d\nflow:\n  - op: explode\n    query: x\n",
			"unknown op",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tc.source))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
