package marker

import (
	"time"

	"github.com/wangkuke/MapConnect/models"
)

// ActiveQuota is the maximum number of concurrently active markers per owner.
const ActiveQuota = 3

// fallbackTTL applies to unknown visibility classes.
const fallbackTTL = 365 * 24 * time.Hour

// ExpiresAt computes the expiration instant for a marker created at
// createdAt with the given visibility class. Both instants are UTC and the
// result depends on nothing but the two arguments:
//
//   - today:      23:59:59.999999 of the creation day
//   - three_days: creation instant + 72h
//   - otherwise:  creation instant + 365 days
func ExpiresAt(v models.Visibility, createdAt time.Time) time.Time {
	t := createdAt.UTC()
	switch v {
	case models.VisibilityToday:
		y, mo, d := t.Date()
		return time.Date(y, mo, d, 23, 59, 59, 999999000, time.UTC)
	case models.VisibilityThreeDays:
		return t.Add(72 * time.Hour)
	default:
		return t.Add(fallbackTTL)
	}
}
