package model

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Repository loads and stores a whole model.
// This abstraction allows different implementations (SQLite, mock, etc.).
type Repository interface {
	Load(ctx context.Context) (*Model, error)
	Save(ctx context.Context, m *Model) error
}

// SQLiteRepository implements Repository using SQLite.
//
// Each of the entities, rest_sources and automations tables holds one row
// per descriptor: the name, the descriptor as JSON and its position in the
// model.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Load reads the model, each list in its stored order.
func (r *SQLiteRepository) Load(ctx context.Context) (*Model, error) {
	var m Model
	var err error

	if m.Entities, err = loadTable[Entity](ctx, r.db, "entities"); err != nil {
		return nil, err
	}
	if m.RESTSources, err = loadTable[RESTSource](ctx, r.db, "rest_sources"); err != nil {
		return nil, err
	}
	if m.Automations, err = loadTable[Automation](ctx, r.db, "automations"); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save replaces the stored model with m in a single transaction.
func (r *SQLiteRepository) Save(ctx context.Context, m *Model) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	now := time.Now().UTC().Format(time.RFC3339)

	if err := saveTable(ctx, tx, "entities", m.Entities, func(e Entity) string { return e.Name }, now); err != nil {
		return err
	}
	if err := saveTable(ctx, tx, "rest_sources", m.RESTSources, func(s RESTSource) string { return s.Name }, now); err != nil {
		return err
	}
	if err := saveTable(ctx, tx, "automations", m.Automations, func(a Automation) string { return a.Name }, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing model: %w", err)
	}
	return nil
}

// loadTable decodes every descriptor in table, ordered by sort_order.
func loadTable[T any](ctx context.Context, db *sql.DB, table string) ([]T, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, descriptor FROM `+table+` ORDER BY sort_order, name`) //nolint:gosec // table name is a package constant
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var name, descriptor string
		if err := rows.Scan(&name, &descriptor); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		var v T
		if err := json.Unmarshal([]byte(descriptor), &v); err != nil {
			return nil, fmt.Errorf("decoding %s %s: %w", table, name, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}
	return out, nil
}

// saveTable clears table and inserts items in order.
func saveTable[T any](ctx context.Context, tx *sql.Tx, table string, items []T, name func(T) string, now string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil { //nolint:gosec // table name is a package constant
		return fmt.Errorf("clearing %s: %w", table, err)
	}

	query := `INSERT INTO ` + table + ` (name, descriptor, sort_order, updated_at) VALUES (?, ?, ?, ?)` //nolint:gosec // table name is a package constant
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", table, name(item), err)
		}
		if _, err := tx.ExecContext(ctx, query, name(item), string(data), i, now); err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("%w: %s %s", ErrDuplicateName, table, name(item))
			}
			return fmt.Errorf("inserting %s %s: %w", table, name(item), err)
		}
	}
	return nil
}

// isUniqueConstraintError checks if an error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint")
}
