package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/musik/internal/models"
	"github.com/desertthunder/musik/internal/shared"
)

var _ models.Repository[*models.ImportRecord] = (*ImportRepository)(nil)

const importColumns = `id, path, outcome, detail, submitted_at, finished_at`

// ImportRepository implements models.Repository[*models.ImportRecord] for the import history.
type ImportRepository struct {
	db *sql.DB
}

// NewImportRepository creates a new ImportRepository with the given database connection
func NewImportRepository(db *sql.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// Create inserts a new import record with a generated ID
func (r *ImportRepository) Create(record *models.ImportRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()
	query := `INSERT INTO imports (` + importColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		id,
		record.Path(),
		string(record.Outcome()),
		record.Detail(),
		record.SubmittedAt(),
		finishedAt(record),
	)
	if err != nil {
		return fmt.Errorf("failed to insert import: %w", err)
	}

	record.SetID(id)
	return nil
}

// Get retrieves an import record by ID
func (r *ImportRepository) Get(id string) (*models.ImportRecord, error) {
	query := `SELECT ` + importColumns + ` FROM imports WHERE id = ?`
	return r.scan(r.db.QueryRow(query, id), id)
}

// Update stores the outcome of an import record
func (r *ImportRepository) Update(record *models.ImportRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `UPDATE imports SET outcome = ?, detail = ?, finished_at = ? WHERE id = ?`

	result, err := r.db.Exec(query,
		string(record.Outcome()),
		record.Detail(),
		finishedAt(record),
		record.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update import: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: %s", shared.ErrImportNotFound, record.ID()))
}

// Delete removes an import record by ID
func (r *ImportRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM imports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete import: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: %s", shared.ErrImportNotFound, id))
}

// List retrieves import records, newest first.
//
// Supported criteria: "outcome" ([models.ImportOutcome] or string) and "limit" (int).
func (r *ImportRepository) List(criteria map[string]any) ([]*models.ImportRecord, error) {
	query := `SELECT ` + importColumns + ` FROM imports`
	args := []any{}

	switch outcome := criteria["outcome"].(type) {
	case models.ImportOutcome:
		if outcome != "" {
			query += " WHERE outcome = ?"
			args = append(args, string(outcome))
		}
	case string:
		if outcome != "" {
			query += " WHERE outcome = ?"
			args = append(args, outcome)
		}
	}

	query += " ORDER BY submitted_at DESC, rowid DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	defer rows.Close()

	var records []*models.ImportRecord
	for rows.Next() {
		record, err := r.scan(rows, "")
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Recent returns the latest limit records; zero or less returns all of them.
func (r *ImportRepository) Recent(limit int) ([]*models.ImportRecord, error) {
	return r.List(map[string]any{"limit": limit})
}

func (r *ImportRepository) scan(row scanner, key string) (*models.ImportRecord, error) {
	var (
		id          string
		path        string
		outcome     string
		detail      string
		submittedAt time.Time
		finished    sql.NullTime
	)

	err := row.Scan(&id, &path, &outcome, &detail, &submittedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrImportNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan import: %w", err)
	}

	var finishedAt time.Time
	if finished.Valid {
		finishedAt = finished.Time
	}

	return models.RestoreImportRecord(id, path, models.ImportOutcome(outcome), detail, submittedAt, finishedAt), nil
}

func finishedAt(record *models.ImportRecord) any {
	if record.FinishedAt().IsZero() {
		return nil
	}
	return record.FinishedAt()
}
