package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createSchemaMigrations = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// Migration is one versioned schema change read from a migrations directory
type Migration struct {
	Version  string // file name without the .up.sql / .down.sql suffix
	UpPath   string
	DownPath string
}

// Migrator applies migrations/*.up.sql files in lexical order and records each
// applied version in schema_migrations
type Migrator struct {
	pool *pgxpool.Pool
	dir  string
}

// NewMigrator creates a migrator for the files in dir
func NewMigrator(pool *pgxpool.Pool, dir string) *Migrator {
	return &Migrator{pool: pool, dir: dir}
}

// Load lists the migrations found in the directory, oldest first
func (m *Migrator) Load() ([]Migration, error) {
	files, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byVersion := map[string]*Migration{}
	for _, f := range files {
		name := f.Name()
		var version string
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			version = strings.TrimSuffix(name, ".up.sql")
		case strings.HasSuffix(name, ".down.sql"):
			version = strings.TrimSuffix(name, ".down.sql")
		default:
			continue
		}

		mig, ok := byVersion[version]
		if !ok {
			mig = &Migration{Version: version}
			byVersion[version] = mig
		}
		if strings.HasSuffix(name, ".up.sql") {
			mig.UpPath = filepath.Join(m.dir, name)
		} else {
			mig.DownPath = filepath.Join(m.dir, name)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		if mig.UpPath == "" {
			return nil, fmt.Errorf("migration %s has no up file", mig.Version)
		}
		migrations = append(migrations, *mig)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// Applied returns the recorded versions
func (m *Migrator) Applied(ctx context.Context) (map[string]bool, error) {
	if _, err := m.pool.Exec(ctx, createSchemaMigrations); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	rows, err := m.pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}

	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

// Up applies every pending migration, each in its own transaction, and returns
// the versions it applied
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	migrations, err := m.Load()
	if err != nil {
		return nil, err
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}
		err := m.run(ctx, mig.UpPath, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, mig.Version)
			return err
		})
		if err != nil {
			return done, fmt.Errorf("migration %s failed: %w", mig.Version, err)
		}
		done = append(done, mig.Version)
	}
	return done, nil
}

// Down reverts the most recently applied migration. It returns an empty version
// when nothing is applied.
func (m *Migrator) Down(ctx context.Context) (string, error) {
	migrations, err := m.Load()
	if err != nil {
		return "", err
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return "", err
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		mig := migrations[i]
		if !applied[mig.Version] {
			continue
		}
		if mig.DownPath == "" {
			return "", fmt.Errorf("migration %s has no down file", mig.Version)
		}
		err := m.run(ctx, mig.DownPath, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, mig.Version)
			return err
		})
		if err != nil {
			return "", fmt.Errorf("revert of %s failed: %w", mig.Version, err)
		}
		return mig.Version, nil
	}
	return "", nil
}

// run executes a SQL file and the bookkeeping statement atomically. A file
// holds several statements, so it is sent without arguments over the simple protocol.
func (m *Migrator) run(ctx context.Context, path string, record func(pgx.Tx) error) (err error) {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) && err == nil {
			err = rbErr
		}
	}()

	if _, err := tx.Exec(ctx, string(sql)); err != nil {
		return err
	}
	if err := record(tx); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit(ctx)
}
