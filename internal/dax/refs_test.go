package dax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRefCandidates_OrderIsFixed(t *testing.T) {
	got := TableRefCandidates("Sales")
	require.Len(t, got, 3)
	assert.Equal(t, []string{"'Sales'", "Sales", "[Sales]"}, got)
}

func TestTableRefCandidates_NameWithSpaces(t *testing.T) {
	got := TableRefCandidates("Sales Orders")
	assert.Equal(t, []string{"'Sales Orders'", "Sales Orders", "[Sales Orders]"}, got)
}

func TestTableQuery_WithLimit(t *testing.T) {
	got := TableQuery("'Sales'", 50)
	assert.Equal(t, "EVALUATE TOPN(50, 'Sales')", got.Text)
	assert.Equal(t, 50, got.RowLimit)
}

func TestTableQuery_NoLimit(t *testing.T) {
	got := TableQuery("[Sales]", 0)
	assert.Equal(t, "EVALUATE [Sales]", got.Text)
	assert.Zero(t, got.RowLimit)
}

// TableQuery must never route a bare identifier through scalar wrapping,
// which Rewrite would do for a name like "Sales".
func TestTableQuery_BareIdentifierStaysTable(t *testing.T) {
	got := TableQuery("Sales", 10)
	assert.Equal(t, "EVALUATE TOPN(10, Sales)", got.Text)
}
