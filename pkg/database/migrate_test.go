package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationsAreEmbeddedInOrder(t *testing.T) {
	names, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	require.Equal(t, "001_schema.sql", names[0])
	for i := 1; i < len(names); i++ {
		require.Less(t, names[i-1], names[i])
	}

	sql, err := migrationsFS.ReadFile("migrations/" + names[0])
	require.NoError(t, err)
	for _, table := range []string{"users", "organizations", "departments", "events", "categories", "types", "feedback"} {
		require.True(t, strings.Contains(string(sql), "CREATE TABLE IF NOT EXISTS "+table+" "), table)
	}
}
