package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/facet/internal/facade"
	"github.com/roach88/facet/internal/tabular"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("query_execution", "evaluation aborted", []string{"Simplify the query"})
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "query_execution", resp.Error.Code)
	assert.Equal(t, []string{"Simplify the query"}, resp.Error.Suggestions)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Error("object_not_found", "table 'Ghost' cannot be found", []string{"Check the name"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [object_not_found]")
	assert.Contains(t, buf.String(), "- Check the name")
}

func TestQueryResult_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	res := facade.Result{
		Success:     true,
		Columns:     []string{"[Region]", "[Amount]"},
		Rows:        []tabular.RowMap{{"[Region]": "EMEA", "[Amount]": "100.5"}},
		RowCount:    1,
		ExecutionMs: 1.5,
	}
	require.NoError(t, formatter.QueryResult(res))

	out := buf.String()
	assert.Contains(t, out, "[Region]\t[Amount]")
	assert.Contains(t, out, "EMEA\t100.5")
	assert.Contains(t, out, "1 rows in 1.5ms")
}

func TestQueryResult_TextNotes(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	res := facade.Result{
		Success:            true,
		RowCount:           0,
		Cache:              facade.CacheInfo{Hit: true, AgeSeconds: 12},
		Truncated:          true,
		ClientFiltered:     true,
		TableReferenceUsed: "[Sales]",
	}
	require.NoError(t, formatter.QueryResult(res))

	out := buf.String()
	assert.Contains(t, out, "cache hit, age 12s")
	assert.Contains(t, out, "truncated")
	assert.Contains(t, out, "client filtered")
	assert.Contains(t, out, "via [Sales]")
}

func TestQueryResult_FailureCarriesExitCode(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	res := facade.Result{
		Success:     false,
		Error:       "evaluation aborted",
		ErrorType:   facade.ErrTypeQueryExecution,
		Suggestions: []string{"Simplify the query"},
	}
	err := formatter.QueryResult(res)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
}

func TestExitError(t *testing.T) {
	base := errors.New("boom")
	wrapped := WrapExitError(ExitCommandError, "opening engine", base)
	assert.Equal(t, "opening engine: boom", wrapped.Error())
	assert.Equal(t, base, errors.Unwrap(wrapped))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))

	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestVerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	diag := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag, Verbose: true}

	formatter.VerboseLog("resolved %d tables", 2)
	assert.Empty(t, out.String())
	assert.Contains(t, diag.String(), "resolved 2 tables")

	formatter.Verbose = false
	diag.Reset()
	formatter.VerboseLog("hidden")
	assert.Empty(t, diag.String())
}
