package testdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/budgetly/backend/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// NewTestDB creates a new test database with PostgreSQL container
func NewTestDB(ctx context.Context) (*TestDB, error) {
	migrationsDir, err := repoPath("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to get migrations dir: %w", err)
	}

	// Read migration files
	initScripts, err := readMigrationFiles(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("budgetly_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(initScripts...),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(120*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	// Get connection string
	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	// Create connection pool
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &TestDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
	}, nil
}

// Reset empties every table, restarts id sequences and seeds the global categories
// from config/categories.yaml, so the first seeded category ("Other") gets id 1.
func (db *TestDB) Reset(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE transactions, debt_transactions, debts, categories RESTART IDENTITY CASCADE
	`)
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}

	return db.SeedCategories(ctx)
}

// SeedCategories inserts the global categories from the seed file, in file order
func (db *TestDB) SeedCategories(ctx context.Context) error {
	path, err := repoPath(filepath.Join("config", "categories.yaml"))
	if err != nil {
		return err
	}

	seed, err := config.LoadCategoriesConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	for _, c := range seed.Categories {
		if _, err := db.Pool.Exec(ctx,
			`INSERT INTO categories (user_id, name, type) VALUES (NULL, $1, $2)`,
			c.Name, c.Type,
		); err != nil {
			return fmt.Errorf("failed to seed category %s: %w", c.Name, err)
		}
	}
	return nil
}

// TruncateCategories removes every category. Used to exercise the fallback path.
func (db *TestDB) TruncateCategories(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `TRUNCATE TABLE transactions, categories RESTART IDENTITY CASCADE`)
	return err
}

// Close closes the connection pool and terminates the container
func (db *TestDB) Close(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// repoPath resolves rel against the repository root, found relative to this file
func repoPath(rel string) (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to get current file path")
	}

	// testutil/testdb/postgres.go -> repository root
	root := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	path := filepath.Join(root, rel)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("%s not found", path)
	}
	return path, nil
}

// readMigrationFiles reads all .up.sql files and returns them as init scripts
func readMigrationFiles(migrationsDir string) ([]string, error) {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	// Filter and sort .up.sql files
	var upFiles []string
	for _, file := range files {
		if strings.HasSuffix(file.Name(), ".up.sql") {
			upFiles = append(upFiles, file.Name())
		}
	}
	sort.Strings(upFiles)

	// Build full paths
	var scripts []string
	for _, file := range upFiles {
		scripts = append(scripts, filepath.Join(migrationsDir, file))
	}

	return scripts, nil
}
