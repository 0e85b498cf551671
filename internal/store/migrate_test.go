package store

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_SortedSQL(t *testing.T) {
	names, err := migrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, names)

	assert.True(t, sort.StringsAreSorted(names), "apply order must follow file names: %v", names)
	for _, name := range names {
		assert.True(t, strings.HasSuffix(name, ".sql"), "unexpected migration file %s", name)
	}
}

func TestRunMigrations_CreatesSchema(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, table := range []string{"users", "cards", "study_sessions", "user_settings", "reminders"} {
		var name string
		err := repo.db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "missing table %s", table)
	}
}
