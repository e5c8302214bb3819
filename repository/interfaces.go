package repository

import (
	"context"
	"time"

	"github.com/wangkuke/MapConnect/models"
)

// MarkerStoreI defines persistence operations on Marker entities.
type MarkerStoreI interface {
	// CreateWithinQuota inserts the marker unless the owner already has
	// `limit` active markers. The count and the insert run in one write
	// transaction. When the quota is hit it returns (nil, activeCount, nil).
	CreateWithinQuota(ctx context.Context, m *models.Marker, limit int) (*models.Marker, int, error)
	GetByID(ctx context.Context, id int64) (*models.Marker, error)
	CountActiveByOwner(ctx context.Context, owner string) (int, error)
	// ListActiveFeed returns active, unexpired markers joined with the owner
	// display name, newest first.
	ListActiveFeed(ctx context.Context, now time.Time) ([]models.Marker, error)
	ListByOwner(ctx context.Context, owner string) ([]models.Marker, error)
	ListAdmin(ctx context.Context, p ListMarkersAdminParams) ([]models.Marker, error)
	UpdateStatus(ctx context.Context, id int64, status models.MarkerStatus) error
	AdminUpdate(ctx context.Context, id int64, p AdminUpdateMarkerParams) error
	// ExpireDue transitions every active marker with expires_at <= now to
	// inactive in a single batch update and returns the number transitioned.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	Delete(ctx context.Context, id int64) error
	DeleteByOwner(ctx context.Context, owner string) (int64, error)
}

// UserStoreI defines persistence operations on User entities.
type UserStoreI interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	UpdateProfile(ctx context.Context, username string, p UpdateProfileParams) error
	AdminUpdate(ctx context.Context, id int64, p AdminUpdateUserParams) error
	CountAdminsExcluding(ctx context.Context, excludeID int64) (int, error)
	// Delete removes the user; their markers go with them via the schema's
	// ON DELETE CASCADE.
	Delete(ctx context.Context, id int64) error
}

// UserLookup is the narrow identity view the marker lifecycle core consumes.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
