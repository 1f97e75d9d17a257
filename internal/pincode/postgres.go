package pincode

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// RowQuerier is the subset of *pgxpool.Pool the directory needs.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const findPincodeSQL = `SELECT city, state FROM pincodes WHERE code = $1`

// PostgresDirectory reads pincodes from the "pincodes" table.
type PostgresDirectory struct {
	db RowQuerier
}

// NewPostgresDirectory creates a Postgres-backed directory.
func NewPostgresDirectory(db RowQuerier) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// Find returns the location for code.
func (d *PostgresDirectory) Find(ctx context.Context, code string) (*Location, error) {
	if !Valid(code) {
		return nil, ErrInvalidFormat
	}

	loc := Location{PostalCode: code}
	err := d.db.QueryRow(ctx, findPincodeSQL, code).Scan(&loc.City, &loc.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query pincode %s: %w", code, err)
	}

	return &loc, nil
}
