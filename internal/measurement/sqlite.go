package measurement

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/philipparndt/takeoff/pkg/measure"
)

const schema = `
CREATE TABLE IF NOT EXISTS measurements (
    seq             INTEGER PRIMARY KEY AUTOINCREMENT,
    id              TEXT NOT NULL UNIQUE,
    condition_id    TEXT NOT NULL,
    page_id         TEXT NOT NULL,
    geometry_type   TEXT NOT NULL,
    geometry_data   TEXT NOT NULL,
    quantity        REAL NOT NULL,
    unit            TEXT NOT NULL,
    is_ai_generated INTEGER NOT NULL DEFAULT 0,
    ai_confidence   REAL NOT NULL DEFAULT 0,
    is_verified     INTEGER NOT NULL DEFAULT 0,
    is_rejected     INTEGER NOT NULL DEFAULT 0,
    is_modified     INTEGER NOT NULL DEFAULT 0,
    reject_reason   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS measurements_page ON measurements (page_id, seq);
`

const selectColumns = `id, condition_id, page_id, geometry_type, geometry_data, quantity, unit,
        is_ai_generated, ai_confidence, is_verified, is_rejected, is_modified`

// SQLiteStore persists measurements in a SQLite database file
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates the schema
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create implements Store
func (s *SQLiteStore) Create(ctx context.Context, conditionID string, in CreateInput) (Measurement, error) {
	if conditionID == "" {
		return Measurement{}, fmt.Errorf("failed to create measurement: condition id is required")
	}
	if err := in.GeometryData.Validate(in.GeometryType); err != nil {
		return Measurement{}, fmt.Errorf("failed to create measurement: %w", err)
	}
	data, err := json.Marshal(in.GeometryData)
	if err != nil {
		return Measurement{}, fmt.Errorf("failed to encode geometry: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO measurements (id, condition_id, page_id, geometry_type, geometry_data, quantity, unit, is_ai_generated, ai_confidence)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, id, conditionID, in.PageID, string(in.GeometryType), string(data), in.Quantity, string(in.Unit), in.IsAIGenerated, in.AIConfidence)
	if err != nil {
		return Measurement{}, fmt.Errorf("failed to insert measurement: %w", err)
	}
	return s.get(ctx, id)
}

// Update implements Store
func (s *SQLiteStore) Update(ctx context.Context, id string, in UpdateInput) (Measurement, error) {
	current, err := s.get(ctx, id)
	if err != nil {
		return Measurement{}, err
	}
	if err := in.GeometryData.Validate(current.GeometryType); err != nil {
		return Measurement{}, fmt.Errorf("failed to update %s: %w", id, err)
	}
	data, err := json.Marshal(in.GeometryData)
	if err != nil {
		return Measurement{}, fmt.Errorf("failed to encode geometry: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
        UPDATE measurements SET geometry_data = ?, quantity = ?, unit = ?, is_modified = 1
        WHERE id = ?
    `, string(data), in.Quantity, string(in.Unit), id)
	if err != nil {
		return Measurement{}, fmt.Errorf("failed to update %s: %w", id, err)
	}
	return s.get(ctx, id)
}

// Delete implements Store
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM measurements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	return requireRow(res, id)
}

// List implements Lister
func (s *SQLiteStore) List(ctx context.Context, pageID string) ([]Measurement, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+selectColumns+`
        FROM measurements
        WHERE ? = '' OR page_id = ?
        ORDER BY seq
    `, pageID, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}
	defer rows.Close()

	var out []Measurement
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Approve implements ReviewActions
func (s *SQLiteStore) Approve(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE measurements SET is_verified = 1, is_rejected = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to approve %s: %w", id, err)
	}
	return requireRow(res, id)
}

// Reject implements ReviewActions
func (s *SQLiteStore) Reject(ctx context.Context, id, reason string) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE measurements SET is_rejected = 1, is_verified = 0, reject_reason = ? WHERE id = ?
    `, reason, id)
	if err != nil {
		return fmt.Errorf("failed to reject %s: %w", id, err)
	}
	return requireRow(res, id)
}

// AutoAccept implements ReviewActions
func (s *SQLiteStore) AutoAccept(ctx context.Context, pageID string, threshold float64) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin auto-accept: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
        SELECT id FROM measurements
        WHERE (? = '' OR page_id = ?) AND is_ai_generated = 1 AND is_verified = 0 AND is_rejected = 0 AND ai_confidence >= ?
        ORDER BY seq
    `, pageID, pageID, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending measurements: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE measurements SET is_verified = 1 WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("failed to approve %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit auto-accept: %w", err)
	}
	return ids, nil
}

func (s *SQLiteStore) get(ctx context.Context, id string) (Measurement, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM measurements WHERE id = ?`, id)
	m, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Measurement{}, fmt.Errorf("failed to load %s: %w", id, ErrNotFound)
	}
	return m, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (Measurement, error) {
	var (
		m    Measurement
		kind string
		data string
		unit string
	)
	err := row.Scan(&m.ID, &m.ConditionID, &m.PageID, &kind, &data, &m.Quantity, &unit,
		&m.IsAIGenerated, &m.AIConfidence, &m.IsVerified, &m.IsRejected, &m.IsModified)
	if err != nil {
		return Measurement{}, err
	}
	m.GeometryType = measure.GeometryType(kind)
	m.Unit = measure.Unit(unit)
	if err := json.Unmarshal([]byte(data), &m.GeometryData); err != nil {
		return Measurement{}, fmt.Errorf("failed to decode geometry of %s: %w", m.ID, err)
	}
	return m, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
