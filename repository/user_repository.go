package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/wangkuke/MapConnect/models"
)

// ErrDuplicate reports a unique-constraint violation (username or email taken).
var ErrDuplicate = errors.New("duplicate record")

// UserRepository is the SQLite-backed store for User entities.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, name, contact, bio, gender, age, role, created_at`

// Create inserts a new user. Role defaults to 'user' and gender to 'secret'
// when unset. Returns ErrDuplicate when the username or email is taken.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if u == nil {
		return nil, errors.New("user is nil")
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Gender == "" {
		u.Gender = "secret"
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (username, email, name, contact, bio, gender, age, role, created_at)
VALUES (?,?,?,?,?,?,?,?,?)`,
		u.Username, u.Email, u.Name, u.Contact, u.Bio, u.Gender, u.Age, u.Role, micros(u.CreatedAt))
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out := *u
	out.ID = id
	return &out, nil
}

// GetByUsername fetches a user by username. Returns (nil, nil) when absent.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// GetByID fetches a user by ID. Returns (nil, nil) when absent.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// List returns users ordered by creation time descending.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// UpdateProfileParams holds the self-service profile fields. Nil fields are
// left untouched; username, email and role are never updatable here.
type UpdateProfileParams struct {
	Name    *string
	Contact *string
	Bio     *string
	Gender  *string
	Age     *int64
}

// IsEmpty reports whether no field is set.
func (p UpdateProfileParams) IsEmpty() bool {
	return p.Name == nil && p.Contact == nil && p.Bio == nil && p.Gender == nil && p.Age == nil
}

// UpdateProfile applies the set fields to the user's own profile.
// Returns sql.ErrNoRows when the user does not exist.
func (r *UserRepository) UpdateProfile(ctx context.Context, username string, p UpdateProfileParams) error {
	var set []string
	var args []any
	if p.Name != nil {
		set, args = append(set, "name = ?"), append(args, *p.Name)
	}
	if p.Contact != nil {
		set, args = append(set, "contact = ?"), append(args, *p.Contact)
	}
	if p.Bio != nil {
		set, args = append(set, "bio = ?"), append(args, *p.Bio)
	}
	if p.Gender != nil {
		set, args = append(set, "gender = ?"), append(args, *p.Gender)
	}
	if p.Age != nil {
		set, args = append(set, "age = ?"), append(args, *p.Age)
	}
	if len(set) == 0 {
		return errors.New("no fields to update")
	}
	args = append(args, username)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(set, ", ")+` WHERE username = ?`, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AdminUpdateUserParams holds the fields an admin may change on any account.
type AdminUpdateUserParams struct {
	Name    *string
	Contact *string
	Role    *string
}

// IsEmpty reports whether no field is set.
func (p AdminUpdateUserParams) IsEmpty() bool {
	return p.Name == nil && p.Contact == nil && p.Role == nil
}

// AdminUpdate applies the set fields to a user by ID.
// Returns sql.ErrNoRows when the user does not exist.
func (r *UserRepository) AdminUpdate(ctx context.Context, id int64, p AdminUpdateUserParams) error {
	var set []string
	var args []any
	if p.Name != nil {
		set, args = append(set, "name = ?"), append(args, *p.Name)
	}
	if p.Contact != nil {
		set, args = append(set, "contact = ?"), append(args, *p.Contact)
	}
	if p.Role != nil {
		set, args = append(set, "role = ?"), append(args, *p.Role)
	}
	if len(set) == 0 {
		return errors.New("no fields to update")
	}
	args = append(args, id)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountAdminsExcluding counts admin accounts other than the given ID.
// Used to refuse demoting or deleting the last admin.
func (r *UserRepository) CountAdminsExcluding(ctx context.Context, excludeID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ? AND id != ?`, models.RoleAdmin, excludeID).Scan(&n)
	return n, err
}

// Delete removes a user by ID. The markers table references users(username)
// with ON DELETE CASCADE, so the user's markers are removed in the same
// statement. Returns sql.ErrNoRows when the user does not exist.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanUser(row rowScanner) (*models.User, error) {
	u, err := scanUserRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func scanUserRow(row rowScanner) (*models.User, error) {
	var u models.User
	var age sql.NullInt64
	var createdAt int64
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.Contact, &u.Bio, &u.Gender, &age, &u.Role, &createdAt)
	if err != nil {
		return nil, err
	}
	if age.Valid {
		v := age.Int64
		u.Age = &v
	}
	u.CreatedAt = fromMicros(createdAt)
	return &u, nil
}
