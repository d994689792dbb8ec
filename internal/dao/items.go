package dao

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")
)

// ItemDAO provides access to the items table
type ItemDAO struct {
	db *sql.DB
}

// ItemRecord represents a row of the items table. Secret holds whatever
// bytes the caller stored; see SecureItemDAO for sealed values.
type ItemRecord struct {
	ID             int64
	Service        string
	Account        string
	Synchronizable bool
	Label          string
	Accessibility  string
	Secret         []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ItemQuery narrows List. Empty strings match anything; Scopes lists the
// accepted synchronizable values (nil accepts both).
type ItemQuery struct {
	Service string
	Account string
	Scopes  []bool
}

// NewItemDAO creates a new ItemDAO
func NewItemDAO(db *sql.DB) *ItemDAO {
	return &ItemDAO{db: db}
}

// Get retrieves the record of one identity in one scope.
func (d *ItemDAO) Get(service, account string, synchronizable bool) (*ItemRecord, error) {
	var rec ItemRecord
	err := d.db.QueryRow(
		`SELECT id, service, account, synchronizable, label, accessibility, secret, created_at, updated_at
		FROM items WHERE service = ? AND account = ? AND synchronizable = ?`,
		service, account, synchronizable,
	).Scan(&rec.ID, &rec.Service, &rec.Account, &rec.Synchronizable, &rec.Label,
		&rec.Accessibility, &rec.Secret, &rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &rec, nil
}

// Put inserts a record or replaces the secret, label and accessibility of
// the existing record with the same identity and scope.
func (d *ItemDAO) Put(rec ItemRecord) error {
	_, err := d.db.Exec(
		`INSERT INTO items (service, account, synchronizable, label, accessibility, secret)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(service, account, synchronizable) DO UPDATE SET
			label = excluded.label,
			accessibility = excluded.accessibility,
			secret = excluded.secret`,
		rec.Service, rec.Account, rec.Synchronizable, rec.Label, rec.Accessibility, rec.Secret,
	)
	if err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

// Delete removes the record of one identity in one scope.
func (d *ItemDAO) Delete(service, account string, synchronizable bool) error {
	result, err := d.db.Exec(
		"DELETE FROM items WHERE service = ? AND account = ? AND synchronizable = ?",
		service, account, synchronizable,
	)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns matching records without their secrets, ordered by identity.
func (d *ItemDAO) List(q ItemQuery) ([]ItemRecord, error) {
	var (
		where []string
		args  []any
	)
	if q.Service != "" {
		where = append(where, "service = ?")
		args = append(args, q.Service)
	}
	if q.Account != "" {
		where = append(where, "account = ?")
		args = append(args, q.Account)
	}
	if len(q.Scopes) == 1 {
		where = append(where, "synchronizable = ?")
		args = append(args, q.Scopes[0])
	}

	query := `SELECT id, service, account, synchronizable, label, accessibility, created_at, updated_at FROM items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY service, account, synchronizable"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	records := []ItemRecord{}
	for rows.Next() {
		var rec ItemRecord
		if err := rows.Scan(&rec.ID, &rec.Service, &rec.Account, &rec.Synchronizable,
			&rec.Label, &rec.Accessibility, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return records, nil
}
