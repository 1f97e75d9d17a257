package internal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/pinfill/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies the pincode directory schema and seed data.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.MigrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
