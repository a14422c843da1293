// Package audit persists the command log: one row per speaker for every
// volume or transport action the controller performed.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Page size bounds for List.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// timeFormat is fixed-width UTC so created_at sorts lexically.
const timeFormat = "2006-01-02T15:04:05.000000Z"

// Entry is one command log row.
type Entry struct {
	ID        string    `json:"id"`
	RequestID string    `json:"requestId,omitempty"`
	Action    string    `json:"action"`
	Host      string    `json:"host"`
	Device    string    `json:"device,omitempty"`
	Status    string    `json:"status"`
	Previous  *int      `json:"previous,omitempty"`
	Volume    *int      `json:"volume,omitempty"`
	Error     string    `json:"error,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Filter controls which entries List returns.
type Filter struct {
	Host   string // optional: exact host
	Action string // optional: volume_up, next, ...
	Status string // optional: applied, rejected, no_snapshot, failed
	Limit  int    // default 50, max 200
	Offset int
}

// ListResult is one page of entries, newest first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository defines the interface for command log operations.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores the command log in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new command log repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts an entry. ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = "cmd-" + uuid.NewString()[:8]
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO command_log (id, request_id, action, host, device, status, previous, volume, error, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RequestID, e.Action, e.Host, e.Device, e.Status,
		nullableInt(e.Previous), nullableInt(e.Volume),
		e.Error, e.Source,
		e.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting command log entry: %w", err)
	}
	return nil
}

// nullableInt maps nil to SQL NULL.
func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// List returns entries matching filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any
	for _, c := range []struct{ column, value string }{
		{"host", filter.Host},
		{"action", filter.Action},
		{"status", filter.Status},
	} {
		if c.value != "" {
			conditions = append(conditions, c.column+" = ?")
			args = append(args, c.value)
		}
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM command_log " + where //nolint:gosec // WHERE built from fixed column names and placeholders
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting command log: %w", err)
	}

	query := "SELECT id, request_id, action, host, device, status, previous, volume, error, source, created_at FROM command_log " + //nolint:gosec // as above
		where + " ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying command log: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var previous, volume sql.NullInt64
		var createdAt string

		if err := rows.Scan(&e.ID, &e.RequestID, &e.Action, &e.Host, &e.Device, &e.Status,
			&previous, &volume, &e.Error, &e.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning command log entry: %w", err)
		}
		if previous.Valid {
			v := int(previous.Int64)
			e.Previous = &v
		}
		if volume.Valid {
			v := int(volume.Int64)
			e.Volume = &v
		}
		t, err := time.Parse(timeFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing command log timestamp %q: %w", createdAt, err)
		}
		e.CreatedAt = t

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating command log: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}
