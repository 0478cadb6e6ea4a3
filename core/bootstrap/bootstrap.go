// Package bootstrap brings up the infrastructure a bot needs before it
// starts taking updates.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/Vladislavbro/tango-bot/core/config"
	coredatabase "github.com/Vladislavbro/tango-bot/core/database"
	"github.com/Vladislavbro/tango-bot/core/logger"
)

// Options for Run. Nil hooks fall back to the real implementations.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	// Migrations holds *.up.sql files under MigrationsDir. Nil skips migrations.
	Migrations    fs.FS
	MigrationsDir string

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config, fs.FS, string) error
}

// Result holds what Run brought up.
type Result struct {
	// DB is nil when no database is configured.
	DB *sqlx.DB
}

func (o *Options) withDefaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
	if o.MigrationsDir == "" {
		o.MigrationsDir = "."
	}
}

// Run installs the logger, then connects to the database and migrates it
// when one is configured.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config")
	}
	opts.withDefaults()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}
	if !opts.Database.Enabled() {
		logger.Info(ctx, "db", "db.skip")
		return &Result{}, nil
	}

	db, err := opts.Connect(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	if opts.Migrations == nil {
		return &Result{DB: db}, nil
	}
	if err := opts.Migrate(ctx, opts.Database, opts.Migrations, opts.MigrationsDir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	return &Result{DB: db}, nil
}
