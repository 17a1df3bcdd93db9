package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/settingsd/internal/settings"
)

// timestampLayout is fixed-width so created_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteRepository stores changes in the setting_changes table.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a repository over an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Record inserts e. The ID ("chg-" plus the first 16 characters of a
// random UUID) and CreatedAt are filled in when empty.
func (r *SQLiteRepository) Record(ctx context.Context, e *Entry) error {
	if e.Name == "" || !e.Type.IsValid() || !e.New.IsValid() {
		return fmt.Errorf("%w: name, type and new value are required", ErrInvalidEntry)
	}
	if e.ID == "" {
		e.ID = "chg-" + uuid.NewString()[:16]
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	newRaw, err := e.New.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding new value: %w", err)
	}
	var oldRaw any
	if e.Old.IsValid() {
		b, err := e.Old.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encoding old value: %w", err)
		}
		oldRaw = string(b)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO setting_changes (id, name, type, old_value, new_value, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, string(e.Type), oldRaw, string(newRaw), string(e.Source),
		e.CreatedAt.Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting setting change: %w", err)
	}
	return nil
}

// List returns entries matching f, newest first. Entries recorded within
// the same instant keep insertion order reversed.
func (r *SQLiteRepository) List(ctx context.Context, f Filter) ([]Entry, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var conditions []string
	var args []any
	if f.Name != "" {
		conditions = append(conditions, "name = ?")
		args = append(args, f.Name)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions
		`SELECT id, name, type, old_value, new_value, source, created_at
		 FROM setting_changes %s
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		where,
	)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying setting changes: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, f.Limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating setting changes: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e         Entry
		typ       string
		source    string
		oldRaw    sql.NullString
		newRaw    string
		createdAt string
	)
	if err := rows.Scan(&e.ID, &e.Name, &typ, &oldRaw, &newRaw, &source, &createdAt); err != nil {
		return Entry{}, fmt.Errorf("scanning setting change: %w", err)
	}

	t, err := settings.ParseType(typ)
	if err != nil {
		return Entry{}, fmt.Errorf("setting change %s: %w", e.ID, err)
	}
	e.Type = t
	e.Source = settings.Source(source)

	if e.New, err = settings.DecodeValue(t, newRaw); err != nil {
		return Entry{}, fmt.Errorf("setting change %s new value: %w", e.ID, err)
	}
	if oldRaw.Valid {
		if e.Old, err = settings.DecodeValue(t, oldRaw.String); err != nil {
			return Entry{}, fmt.Errorf("setting change %s old value: %w", e.ID, err)
		}
	}

	if e.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return Entry{}, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	return e, nil
}

// Prune deletes entries recorded more than olderThan ago.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("history: olderThan must be positive")
	}

	cutoff := r.now().UTC().Add(-olderThan).Format(timestampLayout)
	result, err := r.db.ExecContext(ctx, "DELETE FROM setting_changes WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting setting changes: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}
