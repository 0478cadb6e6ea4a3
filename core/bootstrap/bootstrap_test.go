package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/Vladislavbro/tango-bot/core/config"
	coredatabase "github.com/Vladislavbro/tango-bot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunWithoutDatabase(t *testing.T) {
	connected := false
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	require.NoError(t, err)
	assert.Nil(t, res.DB)
	assert.False(t, connected)
}

func TestRunConnectsAndMigrates(t *testing.T) {
	// sql.Open does not dial; the handle is only used for Close.
	raw, err := sql.Open("postgres", "host=127.0.0.1")
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "postgres")

	migrations := fstest.MapFS{"m/0001_x.up.sql": {Data: []byte("select 1;")}}
	var gotDir string
	res, err := Run(context.Background(), Options{
		Config:        &coreconfig.Config{},
		Database:      coredatabase.Config{Host: "db"},
		Migrations:    migrations,
		MigrationsDir: "m",
		LoggerInit:    noLogger,
		Connect:       func(context.Context, coredatabase.Config) (*sqlx.DB, error) { return db, nil },
		Migrate: func(_ context.Context, _ coredatabase.Config, _ fs.FS, dir string) error {
			gotDir = dir
			return nil
		},
	})
	require.NoError(t, err)
	assert.Same(t, db, res.DB)
	assert.Equal(t, "m", gotDir)
}

func TestRunErrors(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)

	_, err = Run(context.Background(), Options{Config: &coreconfig.Config{}, LoggerInit: func(*coreconfig.Config) error {
		return errors.New("no log dir")
	}})
	assert.ErrorContains(t, err, "logger init failed")

	_, err = Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Host: "db"},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return nil, errors.New("refused")
		},
	})
	assert.ErrorContains(t, err, "database initialization failed")
}
