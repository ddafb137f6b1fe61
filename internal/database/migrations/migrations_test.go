package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "sql")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
			down := strings.TrimSuffix(e.Name(), ".up.sql") + ".down.sql"
			_, err := fs.Stat(migrationFiles, "sql/"+down)
			assert.NoError(t, err, "missing %s", down)
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Equal(t, ups, downs)
}

func TestSchemaMatchesEventColumns(t *testing.T) {
	b, err := fs.ReadFile(migrationFiles, "sql/000001_create_calendar_events.up.sql")
	require.NoError(t, err)
	schema := string(b)
	for _, col := range []string{"id", "title", "date", "status", "customer_name", "customer_phone", "location", "customer_email", "created_at", "updated_at"} {
		assert.Contains(t, schema, "\n    "+col+" ", "column %s", col)
	}
}
