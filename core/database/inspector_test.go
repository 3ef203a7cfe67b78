package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE test_docs (realm TEXT NOT NULL, name TEXT NOT NULL, value BLOB, PRIMARY KEY (realm, name))").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "test_docs")
	require.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]ColumnInfo)
	for _, col := range columns {
		colMap[col.Field] = col
	}

	assert.Equal(t, "text", colMap["realm"].Type)
	assert.Equal(t, "PRI", colMap["realm"].Key)
	assert.Equal(t, "NO", colMap["name"].Null)
	assert.Equal(t, "blob", colMap["value"].Type)

	// PRAGMA table_info returns an empty result for a missing table
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestRequireColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE docs (realm TEXT, name TEXT)").Error)

	assert.NoError(t, RequireColumns(db, "docs", "realm", "NAME"))

	err = RequireColumns(db, "docs", "realm", "value", "synced_at")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value, synced_at")
}
