package models

import "time"

// MarkerStatus represents the lifecycle state of a marker.
type MarkerStatus string

const (
	MarkerStatusActive   MarkerStatus = "active"
	MarkerStatusInactive MarkerStatus = "inactive"
)

// Visibility is the user-chosen class controlling how long a marker stays active.
type Visibility string

const (
	VisibilityToday     Visibility = "today"
	VisibilityThreeDays Visibility = "three_days"
)

// Marker represents a geotagged post with a bounded lifetime, owned by one user
// via Owner (users.username). ExpiresAt is always derived from Visibility and
// CreatedAt at creation time, never supplied by the client.
type Marker struct {
	ID          int64        `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	Contact     string       `db:"contact" json:"contact"`
	Type        string       `db:"marker_type" json:"marker_type"`
	Visibility  Visibility   `db:"visibility" json:"visibility"`
	Lat         float64      `db:"lat" json:"lat"`
	Lng         float64      `db:"lng" json:"lng"`
	Owner       string       `db:"user_username" json:"user_username"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	ExpiresAt   time.Time    `db:"expires_at" json:"expires_at"`
	Status      MarkerStatus `db:"status" json:"status"`
	// OwnerName is the owner's display name, populated by listings that join
	// the users table. Not a column of the markers table.
	OwnerName string `db:"user_name" json:"user_name,omitempty"`
}
