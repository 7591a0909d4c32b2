package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpMigrationsOrdered(t *testing.T) {
	up, err := UpMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, up)
	assert.Equal(t, "0001_catalog.up.sql", up[0].Name)
	assert.Contains(t, up[0].SQL, "CREATE TABLE IF NOT EXISTS ratings")

	for i := 1; i < len(up); i++ {
		assert.Less(t, up[i-1].Name, up[i].Name)
	}
}

func TestDownMigrationsNewestFirst(t *testing.T) {
	down, err := DownMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, down)
	for i := 1; i < len(down); i++ {
		assert.Greater(t, down[i-1].Name, down[i].Name)
	}
	assert.Contains(t, down[len(down)-1].SQL, "DROP TABLE IF EXISTS ratings")
}
