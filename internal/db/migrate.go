package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"scamfeed/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations lists the embedded migration files in apply order
func Migrations() ([]string, error) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Migrate applies every embedded migration. The scripts are idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	names, err := Migrations()
	if err != nil {
		return err
	}
	for _, name := range names {
		b, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		logger.Info("migration applied", "file", name)
	}
	return nil
}
