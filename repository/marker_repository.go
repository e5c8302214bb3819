package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/wangkuke/MapConnect/models"
)

// MarkerRepository is the SQLite-backed store for Marker entities.
type MarkerRepository struct {
	db *sql.DB
}

// NewMarkerRepository creates a new MarkerRepository.
func NewMarkerRepository(db *sql.DB) *MarkerRepository {
	return &MarkerRepository{db: db}
}

// Timestamps are stored as unix microseconds in UTC.
func micros(t time.Time) int64     { return t.UTC().UnixMicro() }
func fromMicros(v int64) time.Time { return time.UnixMicro(v).UTC() }

const markerColumns = `id, title, description, contact, marker_type, visibility, lat, lng, user_username, created_at, expires_at, status`

// CreateWithinQuota inserts a marker unless the owner is already at the
// active-marker limit. Count and insert share one transaction; db.Open sets
// _txlock=immediate so the transaction holds the write lock from the start
// and two concurrent creates for the same owner cannot both pass the count.
func (r *MarkerRepository) CreateWithinQuota(ctx context.Context, m *models.Marker, limit int) (*models.Marker, int, error) {
	if m == nil {
		return nil, 0, errors.New("marker is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM markers WHERE user_username = ? AND status = ?`,
		m.Owner, string(models.MarkerStatusActive)).Scan(&active)
	if err != nil {
		return nil, 0, err
	}
	if active >= limit {
		return nil, active, nil
	}

	res, err := tx.ExecContext(ctx, `
INSERT INTO markers (title, description, contact, marker_type, visibility, lat, lng, user_username, created_at, expires_at, status)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		m.Title, m.Description, m.Contact, m.Type, string(m.Visibility), m.Lat, m.Lng,
		m.Owner, micros(m.CreatedAt), micros(m.ExpiresAt), string(m.Status))
	if err != nil {
		return nil, active, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, active, err
	}
	if err := tx.Commit(); err != nil {
		return nil, active, err
	}

	out := *m
	out.ID = id
	return &out, active + 1, nil
}

// GetByID fetches a marker by its ID. Returns (nil, nil) when absent.
func (r *MarkerRepository) GetByID(ctx context.Context, id int64) (*models.Marker, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `SELECT `+markerColumns+` FROM markers WHERE id = ?`, id)
	m, err := scanMarker(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// CountActiveByOwner counts the owner's markers with status active.
func (r *MarkerRepository) CountActiveByOwner(ctx context.Context, owner string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM markers WHERE user_username = ? AND status = ?`,
		owner, string(models.MarkerStatusActive)).Scan(&n)
	return n, err
}

// ListActiveFeed returns active markers that have not expired as of `now`,
// joined with the owner's display name, newest first.
func (r *MarkerRepository) ListActiveFeed(ctx context.Context, now time.Time) ([]models.Marker, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `
SELECT m.id, m.title, m.description, m.contact, m.marker_type, m.visibility, m.lat, m.lng,
       m.user_username, m.created_at, m.expires_at, m.status, u.name AS user_name
FROM markers m
JOIN users u ON m.user_username = u.username
WHERE m.status = ? AND m.expires_at > ?
ORDER BY m.created_at DESC, m.id DESC`,
		string(models.MarkerStatusActive), micros(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMarkerRows(rows, true)
}

// ListByOwner returns all of an owner's markers regardless of status or
// expiration, newest first. Used for self-management.
func (r *MarkerRepository) ListByOwner(ctx context.Context, owner string) ([]models.Marker, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `
SELECT m.id, m.title, m.description, m.contact, m.marker_type, m.visibility, m.lat, m.lng,
       m.user_username, m.created_at, m.expires_at, m.status, u.name AS user_name
FROM markers m
JOIN users u ON m.user_username = u.username
WHERE m.user_username = ?
ORDER BY m.created_at DESC, m.id DESC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMarkerRows(rows, true)
}

// ListMarkersAdminParams represents filters and pagination for ListAdmin.
type ListMarkersAdminParams struct {
	Statuses    []models.MarkerStatus
	Owner       *string
	PageSize    int
	AfterMicros int64 // keyset cursor: created_at unix microseconds
	AfterID     int64 // keyset cursor: marker id
}

// ListAdmin returns markers matching the filters, newest first, with keyset
// pagination. No status or expiration filtering is applied by default.
func (r *MarkerRepository) ListAdmin(ctx context.Context, p ListMarkersAdminParams) ([]models.Marker, error) {
	if p.PageSize <= 0 {
		p.PageSize = 50
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var where []string
	var args []any
	if len(p.Statuses) > 0 {
		placeholders := make([]string, len(p.Statuses))
		for i, s := range p.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, "m.status IN ("+strings.Join(placeholders, ",")+")")
	}
	if p.Owner != nil {
		where = append(where, "m.user_username = ?")
		args = append(args, *p.Owner)
	}
	if p.AfterMicros > 0 && p.AfterID > 0 {
		where = append(where, "(m.created_at < ? OR (m.created_at = ? AND m.id < ?))")
		args = append(args, p.AfterMicros, p.AfterMicros, p.AfterID)
	}

	query := `
SELECT m.id, m.title, m.description, m.contact, m.marker_type, m.visibility, m.lat, m.lng,
       m.user_username, m.created_at, m.expires_at, m.status, u.name AS user_name
FROM markers m
JOIN users u ON m.user_username = u.username`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY m.created_at DESC, m.id DESC LIMIT ?"
	args = append(args, p.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMarkerRows(rows, true)
}

// UpdateStatus updates the status of a marker. Returns sql.ErrNoRows when
// the marker does not exist.
func (r *MarkerRepository) UpdateStatus(ctx context.Context, id int64, status models.MarkerStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE markers SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AdminUpdateMarkerParams holds the fields an admin may change on any marker.
// Nil fields are left untouched. Changing Visibility does not recompute the
// expiration.
type AdminUpdateMarkerParams struct {
	Title       *string
	Description *string
	Contact     *string
	Type        *string
	Visibility  *models.Visibility
	Status      *models.MarkerStatus
}

// IsEmpty reports whether no field is set.
func (p AdminUpdateMarkerParams) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Contact == nil &&
		p.Type == nil && p.Visibility == nil && p.Status == nil
}

// AdminUpdate applies the set fields to a marker. Returns sql.ErrNoRows when
// the marker does not exist.
func (r *MarkerRepository) AdminUpdate(ctx context.Context, id int64, p AdminUpdateMarkerParams) error {
	var set []string
	var args []any
	if p.Title != nil {
		set, args = append(set, "title = ?"), append(args, *p.Title)
	}
	if p.Description != nil {
		set, args = append(set, "description = ?"), append(args, *p.Description)
	}
	if p.Contact != nil {
		set, args = append(set, "contact = ?"), append(args, *p.Contact)
	}
	if p.Type != nil {
		set, args = append(set, "marker_type = ?"), append(args, *p.Type)
	}
	if p.Visibility != nil {
		set, args = append(set, "visibility = ?"), append(args, string(*p.Visibility))
	}
	if p.Status != nil {
		set, args = append(set, "status = ?"), append(args, string(*p.Status))
	}
	if len(set) == 0 {
		return errors.New("no fields to update")
	}
	args = append(args, id)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE markers SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ExpireDue transitions every active marker whose expires_at has passed to
// inactive in one batch update. Idempotent: a second run right after finds
// nothing to transition.
func (r *MarkerRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx,
		`UPDATE markers SET status = ? WHERE status = ? AND expires_at <= ?`,
		string(models.MarkerStatusInactive), string(models.MarkerStatusActive), micros(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a marker by ID. Returns sql.ErrNoRows when absent.
func (r *MarkerRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM markers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByOwner removes all markers owned by the given username and returns
// how many were removed.
func (r *MarkerRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM markers WHERE user_username = ?`, owner)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMarker(row rowScanner) (*models.Marker, error) {
	var m models.Marker
	var status, visibility string
	var createdAt, expiresAt int64
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.Contact, &m.Type, &visibility,
		&m.Lat, &m.Lng, &m.Owner, &createdAt, &expiresAt, &status)
	if err != nil {
		return nil, err
	}
	m.Visibility = models.Visibility(visibility)
	m.Status = models.MarkerStatus(status)
	m.CreatedAt = fromMicros(createdAt)
	m.ExpiresAt = fromMicros(expiresAt)
	return &m, nil
}

func scanMarkerRows(rows *sql.Rows, withOwnerName bool) ([]models.Marker, error) {
	var out []models.Marker
	for rows.Next() {
		var m models.Marker
		var status, visibility string
		var createdAt, expiresAt int64
		dest := []any{&m.ID, &m.Title, &m.Description, &m.Contact, &m.Type, &visibility,
			&m.Lat, &m.Lng, &m.Owner, &createdAt, &expiresAt, &status}
		if withOwnerName {
			dest = append(dest, &m.OwnerName)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		m.Visibility = models.Visibility(visibility)
		m.Status = models.MarkerStatus(status)
		m.CreatedAt = fromMicros(createdAt)
		m.ExpiresAt = fromMicros(expiresAt)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
