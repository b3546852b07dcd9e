package repositories

import (
	"database/sql"
	"fmt"
)

// scanner is the part of [sql.Row] and [sql.Rows] the scan helpers need.
type scanner interface {
	Scan(dest ...any) error
}

// expectOne fails with notFound when result touched no rows.
func expectOne(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
