package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestConfigEnabledAndDefaults(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.False(t, Config{Host: "  "}.Enabled())

	cfg := Config{Host: "db", User: "bot", Password: "p@ss word", Name: "tango"}.WithDefaults()
	assert.True(t, cfg.Enabled())
	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, defaultMaxConnections, cfg.MaxConnections)

	assert.Equal(t, "user=bot password=p@ss word host=db port=5432 dbname=tango sslmode=disable", cfg.DSN())
	assert.Equal(t, "postgres://bot:p%40ss%20word@db:5432/tango?sslmode=disable", cfg.URL())
}

func TestUpFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_index.up.sql":         {Data: []byte("--")},
		"migrations/0001_transitions.up.sql":   {Data: []byte("--")},
		"migrations/0001_transitions.down.sql": {Data: []byte("--")},
		"migrations/README":                    {Data: []byte("")},
	}
	assert.Equal(t, []string{"0001_transitions.up.sql", "0002_index.up.sql"}, upFiles(fsys, "migrations"))
	assert.Nil(t, upFiles(fsys, "missing"))
}

func TestAppliedBetween(t *testing.T) {
	files := []string{"0001_transitions.up.sql", "0002_index.up.sql", "0003_outcome.up.sql"}

	assert.Equal(t, uint64(2), version("0002_index.up.sql"))
	assert.Zero(t, version("junk"))
	assert.Equal(t, []string{"0002_index.up.sql", "0003_outcome.up.sql"}, appliedBetween(files, 1, 3))
	assert.Empty(t, appliedBetween(files, 3, 3))
	assert.Len(t, appliedBetween(files, 0, 3), 3)
}

func TestLogAttrsOmitCredentials(t *testing.T) {
	for _, a := range (Config{Host: "db", User: "bot", Password: "secret"}).logAttrs() {
		assert.NotEqual(t, "secret", a.Value.String())
	}
}
