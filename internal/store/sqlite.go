package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"docbind/internal/schema"
)

const createTemplates = `CREATE TABLE IF NOT EXISTS templates (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	model_name TEXT NOT NULL,
	payload    BLOB,
	filename   TEXT NOT NULL DEFAULT '',
	mapping    TEXT NOT NULL DEFAULT '',
	updated_at INTEGER NOT NULL
)`

const createFieldMappings = `CREATE TABLE IF NOT EXISTS field_mappings (
	template_id   TEXT NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
	path          TEXT NOT NULL,
	field_name    TEXT NOT NULL,
	field_type    TEXT NOT NULL DEFAULT '',
	format_string TEXT NOT NULL DEFAULT '',
	default_value TEXT NOT NULL DEFAULT '',
	is_required   INTEGER NOT NULL DEFAULT 0,
	sequence      INTEGER NOT NULL DEFAULT 10,
	description   TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (template_id, path)
)`

// SQLite is a Store backed by a SQLite database.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at dsn and ensures the schema.
// Use ":memory:" for a private in-process database.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", dsn, err)
	}

	// An in-memory database lives as long as its single connection.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range []string{createTemplates, createFieldMappings} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Create implements Store.
func (s *SQLite) Create(ctx context.Context, r Record) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO templates (id, name, model_name, payload, filename, mapping, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.ModelName, r.Payload, r.Filename, r.Mapping, s.now().UnixMilli())
		if err != nil {
			return err
		}

		return insertFields(ctx, tx, r.ID, r.Fields)
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert template %s: %w", r.ID, err)
	}

	return r.ID, nil
}

// Read implements Store.
func (s *SQLite) Read(ctx context.Context, id string) (Record, error) {
	var (
		r       Record
		updated int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, model_name, payload, filename, mapping, updated_at FROM templates WHERE id = ?`, id).
		Scan(&r.ID, &r.Name, &r.ModelName, &r.Payload, &r.Filename, &r.Mapping, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err != nil {
		return Record{}, fmt.Errorf("failed to read template %s: %w", id, err)
	}

	r.UpdatedAt = time.UnixMilli(updated)

	if r.Fields, err = s.readFields(ctx, id); err != nil {
		return Record{}, fmt.Errorf("failed to read template %s: %w", id, err)
	}

	return r, nil
}

func (s *SQLite) readFields(ctx context.Context, id string) ([]FieldMapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, field_name, field_type, format_string, default_value, is_required, sequence, description
		 FROM field_mappings WHERE template_id = ? ORDER BY sequence, field_name, path`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FieldMapping

	for rows.Next() {
		var (
			m         FieldMapping
			fieldType string
		)

		if err := rows.Scan(&m.Path, &m.FieldName, &fieldType, &m.FormatString,
			&m.DefaultValue, &m.Required, &m.Sequence, &m.Description); err != nil {
			return nil, fmt.Errorf("failed to scan field mapping: %w", err)
		}

		m.FieldType, _ = schema.ParseFieldType(fieldType)
		out = append(out, m)
	}

	return out, rows.Err()
}

// Write implements Store.
func (s *SQLite) Write(ctx context.Context, id string, u Update) error {
	var (
		sets []string
		args []any
	)

	if u.Payload != nil {
		sets = append(sets, "payload = ?")
		args = append(args, u.Payload)
	}

	if u.Filename != nil {
		sets = append(sets, "filename = ?")
		args = append(args, *u.Filename)
	}

	if u.Mapping != nil {
		sets = append(sets, "mapping = ?")
		args = append(args, *u.Mapping)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, s.now().UnixMilli(), id)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE templates SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		if u.Fields == nil {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM field_mappings WHERE template_id = ?`, id); err != nil {
			return err
		}

		return insertFields(ctx, tx, id, u.Fields)
	})
	if errors.Is(err, ErrNotFound) {
		return err
	}

	if err != nil {
		return fmt.Errorf("failed to write template %s: %w", id, err)
	}

	return nil
}

func insertFields(ctx context.Context, tx *sql.Tx, id string, fields []FieldMapping) error {
	for _, m := range fields {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO field_mappings
			 (template_id, path, field_name, field_type, format_string, default_value, is_required, sequence, description)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, m.Path, m.FieldName, m.FieldType.String(), m.FormatString, m.DefaultValue, m.Required, m.Sequence, m.Description)
		if err != nil {
			return fmt.Errorf("failed to insert field mapping %s: %w", m.Path, err)
		}
	}

	return nil
}

// inTx runs fn in a transaction, committing when it returns nil.
func (s *SQLite) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// List implements Store.
func (s *SQLite) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, model_name, filename, mapping, updated_at FROM templates ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var out []Record

	for rows.Next() {
		var (
			r       Record
			updated int64
		)

		if err := rows.Scan(&r.ID, &r.Name, &r.ModelName, &r.Filename, &r.Mapping, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}

		r.UpdatedAt = time.UnixMilli(updated)
		out = append(out, r)
	}

	return out, rows.Err()
}
