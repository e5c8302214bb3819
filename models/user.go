package models

import "time"

// User roles. RoleAdmin grants moderation rights over all markers and accounts.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the system.
// It maps to the `users` table in SQLite.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Contact   string    `db:"contact" json:"contact"`
	Bio       string    `db:"bio" json:"bio"`
	Gender    string    `db:"gender" json:"gender"`
	Age       *int64    `db:"age" json:"age,omitempty"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// PublicProfile is the projection of a user exposed to public profile reads.
// Contact stays private; it travels only on a user's own markers.
type PublicProfile struct {
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	Gender    string    `json:"gender"`
	Age       *int64    `json:"age,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Public returns the public projection of the user.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		Username:  u.Username,
		Name:      u.Name,
		Bio:       u.Bio,
		Gender:    u.Gender,
		Age:       u.Age,
		CreatedAt: u.CreatedAt,
	}
}
