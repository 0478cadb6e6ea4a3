package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/Vladislavbro/tango-bot/core/logger"
)

const (
	migrateComponent = "db.migrate"
	readyTimeout     = 30 * time.Second
	previewFiles     = 6
)

// RunMigrations applies the *.up.sql files found in dir of fsys.
func RunMigrations(ctx context.Context, cfg Config, fsys fs.FS, dir string) error {
	cfg = cfg.WithDefaults()
	dsn := cfg.URL()

	waitCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	err := waitReady(waitCtx, dsn)
	cancel()
	if err != nil {
		logger.Error(ctx, migrateComponent, "db.migrate.not_ready", slog.String("err", err.Error()))
		return err
	}

	files := upFiles(fsys, dir)
	logger.Debug(ctx, migrateComponent, "db.migrate.resolve",
		append([]slog.Attr{slog.String("path", dir)}, filesAttrs(files)...)...)

	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("open migrations source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		logger.Error(ctx, migrateComponent, "db.migrate.init_failed", slog.String("err", err.Error()))
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	err = m.Up()
	took := logger.RoundMS(time.Since(start))
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error(ctx, migrateComponent, "db.migrate.failed",
			slog.String("err", err.Error()),
			slog.Duration("duration", took),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}
	to, _, _ := m.Version()

	applied := appliedBetween(files, uint64(from), uint64(to))
	if len(applied) > 0 {
		logger.Debug(ctx, migrateComponent, "db.migrate.applied", filesAttrs(applied)...)
	}
	logger.Info(ctx, migrateComponent, "db.migrate.summary",
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", took),
	)
	return nil
}

func filesAttrs(files []string) []slog.Attr {
	attrs := []slog.Attr{slog.Int("files_total", len(files))}
	preview, truncated := logger.SummarizeStrings(files, previewFiles)
	if preview != "" {
		attrs = append(attrs, slog.String("files_preview", preview))
	}
	if truncated {
		attrs = append(attrs, slog.Bool("files_truncated", true))
	}
	return attrs
}

// upFiles lists the up migrations in dir, sorted by name.
func upFiles(fsys fs.FS, dir string) []string {
	matches, err := fs.Glob(fsys, path.Join(dir, "*.up.sql"))
	if err != nil || len(matches) == 0 {
		return nil
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = path.Base(m)
	}
	slices.Sort(names)
	return names
}

// version reads the numeric prefix of a migration file name.
func version(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

// appliedBetween returns the files with from < version <= to.
func appliedBetween(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := version(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
