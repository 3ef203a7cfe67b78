package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresMigrationsAreEmbedded(t *testing.T) {
	files, err := fs.Glob(Postgres, "postgres/*.sql")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "postgres/00001_create_sync_documents.sql", files[0])

	for _, name := range files {
		raw, err := fs.ReadFile(Postgres, name)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "-- +goose Up", name)
		assert.Contains(t, string(raw), "-- +goose Down", name)
	}
}
