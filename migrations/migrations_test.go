package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS(t *testing.T) {
	files, err := fs.Glob(MigrationsFS, "*.sql")
	require.NoError(t, err)
	require.Equal(t, []string{"00001_create_pincodes.sql", "00002_seed_pincodes.sql"}, files)

	for _, name := range files {
		body, err := fs.ReadFile(MigrationsFS, name)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(body), "-- +goose Up"), name)
		assert.True(t, strings.Contains(string(body), "-- +goose Down"), name)
	}
}
