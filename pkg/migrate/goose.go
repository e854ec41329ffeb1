package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

var (
	fileNameRe  = regexp.MustCompile(`^\d{14}_[a-z0-9_]+\.sql$`)
	nonSlugRune = regexp.MustCompile(`[^a-z0-9]+`)
)

// Runner applies the goose migrations in dir against a postgres database.
type Runner struct {
	db  *sql.DB
	dir string
}

func NewRunner(db *sql.DB, dir string) (*Runner, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	return &Runner{db: db, dir: dir}, nil
}

func (r *Runner) Up(ctx context.Context) error {
	return wrapGoose("up", goose.UpContext(ctx, r.db, r.dir))
}

func (r *Runner) Down(ctx context.Context) error {
	return wrapGoose("down", goose.DownContext(ctx, r.db, r.dir))
}

func (r *Runner) Status(ctx context.Context) error {
	return wrapGoose("status", goose.StatusContext(ctx, r.db, r.dir))
}

// To moves the schema up or down until it sits at version.
func (r *Runner) To(ctx context.Context, version int64) error {
	current, err := goose.GetDBVersionContext(ctx, r.db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch {
	case version > current:
		return wrapGoose("up-to", goose.UpToContext(ctx, r.db, r.dir, version))
	case version < current:
		return wrapGoose("down-to", goose.DownToContext(ctx, r.db, r.dir, version))
	}
	return nil
}

func wrapGoose(op string, err error) error {
	if err != nil {
		return fmt.Errorf("goose %s: %w", op, err)
	}
	return nil
}

// ValidateDir lets goose parse every migration in dir, then enforces the
// timestamped file naming and that each file declares both directions.
func ValidateDir(dir string) error {
	migrations, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
	if err != nil {
		return fmt.Errorf("collect migrations in %q: %w", dir, err)
	}
	for _, m := range migrations {
		name := filepath.Base(m.Source)
		if !fileNameRe.MatchString(name) {
			return fmt.Errorf("migration %q must be named YYYYMMDDHHMMSS_snake_name.sql", name)
		}
		body, err := os.ReadFile(m.Source)
		if err != nil {
			return fmt.Errorf("read %q: %w", name, err)
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(body), marker) {
				return fmt.Errorf("migration %q has no %q section", name, marker)
			}
		}
	}
	return nil
}

// CreateSQLMigration writes a new timestamped goose SQL file and returns its path.
func CreateSQLMigration(dir, name string) (string, error) {
	slug := strings.Trim(nonSlugRune.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}
	if err := goose.Create(nil, dir, slug, "sql"); err != nil {
		return "", fmt.Errorf("goose create: %w", err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*_"+slug+".sql"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("created migration %q not found in %q", slug, dir)
	}
	// timestamps sort lexically
	return matches[len(matches)-1], nil
}
