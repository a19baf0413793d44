package tabular

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *SQLConnection {
	t.Helper()
	conn, err := OpenSQLite(filepath.Join(t.TempDir(), "model.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	cmd, err := conn.Command(`CREATE TABLE sales (id INTEGER PRIMARY KEY, region TEXT, amount REAL)`)
	require.NoError(t, err)
	cur, err := cmd.ExecuteReader(context.Background())
	require.NoError(t, err)
	require.NoError(t, cur.Close())

	cmd, err = conn.Command(`INSERT INTO sales (region, amount) VALUES ('north', 10.5), ('south', 20.0)`)
	require.NoError(t, err)
	cur, err = cmd.ExecuteReader(context.Background())
	require.NoError(t, err)
	require.NoError(t, cur.Close())

	return conn
}

func TestSQLConnection_ExecuteAndDrain(t *testing.T) {
	conn := openTestDB(t)

	cmd, err := conn.Command(`SELECT region, amount FROM sales ORDER BY id`)
	require.NoError(t, err)

	cur, err := cmd.ExecuteReader(context.Background())
	require.NoError(t, err)

	rs, err := Drain(cur, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "amount"}, rs.Columns)
	require.Len(t, rs.Rows, 2)
	assert.Equal(t, "north", rs.Rows[0]["region"])
	assert.Equal(t, "10.5", rs.Rows[0]["amount"])
}

func TestSQLConnection_QueryErrorSurfaces(t *testing.T) {
	conn := openTestDB(t)

	cmd, err := conn.Command(`SELECT nope FROM missing`)
	require.NoError(t, err)

	_, err = cmd.ExecuteReader(context.Background())
	require.Error(t, err)
}

func TestSQLConnection_ClosedConnection(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, conn.Close())

	_, err := conn.Command(`SELECT 1`)
	require.Error(t, err)
}

func TestSQLConnection_TimeoutSurfacesAsError(t *testing.T) {
	conn := openTestDB(t)

	cmd, err := conn.Command(`SELECT region FROM sales`)
	require.NoError(t, err)
	cmd.SetTimeout(time.Nanosecond)

	// The deadline may trip during execute or during the first read; either
	// way it must surface as an ordinary error, never a panic.
	cur, err := cmd.ExecuteReader(context.Background())
	if err != nil {
		return
	}
	_, err = Drain(cur, 0)
	assert.Error(t, err)
}

func TestSQLConnection_SqlmockRowIterationError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	conn := NewSQLConnection(db)
	t.Cleanup(func() { conn.Close() })

	rows := sqlmock.NewRows([]string{"region"}).
		AddRow("north").
		RowError(0, errors.New("wire cut"))
	mock.ExpectQuery("SELECT region").WillReturnRows(rows)

	cmd, err := conn.Command(`SELECT region FROM sales`)
	require.NoError(t, err)
	cur, err := cmd.ExecuteReader(context.Background())
	require.NoError(t, err)

	_, err = Drain(cur, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wire cut")
}

func TestSQLConnection_SqlmockQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	conn := NewSQLConnection(db)
	t.Cleanup(func() { conn.Close() })

	mock.ExpectQuery("SELECT boom").WillReturnError(errors.New("engine rejected"))

	cmd, err := conn.Command(`SELECT boom`)
	require.NoError(t, err)
	_, err = cmd.ExecuteReader(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine rejected")
}
