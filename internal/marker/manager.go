// Package marker implements the marker lifecycle: quota-guarded creation,
// expiration sweeping, explicit status transitions and the listing rules.
//
// The manager owns no transport or schema concerns. It reads and writes
// through the repository interfaces, consults an injected clock, and reports
// business-rule violations as the typed errors in errors.go.
package marker

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/wangkuke/MapConnect/internal/clock"
	"github.com/wangkuke/MapConnect/internal/logging"
	"github.com/wangkuke/MapConnect/internal/metrics"
	"github.com/wangkuke/MapConnect/models"
	"github.com/wangkuke/MapConnect/repository"
)

// Manager is the marker lifecycle manager.
type Manager struct {
	markers  repository.MarkerStoreI
	users    repository.UserLookup
	clk      clock.Clock
	validate *validator.Validate
	// locks serializes quota-check-then-insert per owner. The repository
	// additionally runs the two steps in one write transaction, so the
	// invariant also holds across processes sharing the database file.
	locks cmap.ConcurrentMap[string, *sync.Mutex]
	log   zerolog.Logger
}

// NewManager creates a lifecycle manager on top of the given stores and clock.
func NewManager(markers repository.MarkerStoreI, users repository.UserLookup, clk clock.Clock) *Manager {
	return &Manager{
		markers:  markers,
		users:    users,
		clk:      clk,
		validate: validator.New(),
		locks:    cmap.New[*sync.Mutex](),
		log:      logging.L().With().Str("component", "marker").Logger(),
	}
}

func (m *Manager) ownerLock(owner string) *sync.Mutex {
	m.locks.SetIfAbsent(owner, &sync.Mutex{})
	mu, _ := m.locks.Get(owner)
	return mu
}

// CreateInput is the client-supplied part of a marker. Expiration and status
// are never accepted from the client.
type CreateInput struct {
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description" validate:"required"`
	Contact     string            `json:"contact"`
	Type        string            `json:"marker_type" validate:"required"`
	Visibility  models.Visibility `json:"visibility"`
	Lat         float64           `json:"lat" validate:"latitude"`
	Lng         float64           `json:"lng" validate:"longitude"`
	Owner       string            `json:"user_username" validate:"required"`
}

// Create validates the input, enforces the per-owner active quota and
// persists a new active marker stamped with the clock's current instant.
// The Owner field must equal the authenticated requester. An empty
// visibility defaults to "today".
func (m *Manager) Create(ctx context.Context, requester string, in CreateInput) (*models.Marker, error) {
	if err := m.validate.Struct(in); err != nil {
		return nil, &ValidationError{Err: err}
	}
	if in.Owner != requester {
		return nil, ErrForbidden
	}
	owner, err := m.users.GetByUsername(ctx, in.Owner)
	if err != nil {
		return nil, storageErr("get owner", err)
	}
	if owner == nil {
		return nil, ErrNotFound
	}
	vis := in.Visibility
	if vis == "" {
		vis = models.VisibilityToday
	}

	mu := m.ownerLock(in.Owner)
	mu.Lock()
	defer mu.Unlock()

	now := m.clk.Now()
	mk := &models.Marker{
		Title:       in.Title,
		Description: in.Description,
		Contact:     in.Contact,
		Type:        in.Type,
		Visibility:  vis,
		Lat:         in.Lat,
		Lng:         in.Lng,
		Owner:       in.Owner,
		CreatedAt:   now,
		ExpiresAt:   ExpiresAt(vis, now),
		Status:      models.MarkerStatusActive,
	}
	created, active, err := m.markers.CreateWithinQuota(ctx, mk, ActiveQuota)
	if err != nil {
		return nil, storageErr("create marker", err)
	}
	if created == nil {
		metrics.QuotaRejections.Inc()
		m.log.Debug().Str("owner", in.Owner).Int("active", active).Msg("create rejected by quota")
		return nil, ErrQuotaExceeded
	}
	metrics.MarkersCreated.Inc()
	m.log.Info().Int64("id", created.ID).Str("owner", created.Owner).
		Str("visibility", string(vis)).Time("expires_at", created.ExpiresAt).Msg("marker created")
	return created, nil
}

// Sweep transitions every active marker whose expiration has passed to
// inactive, as one batch, and returns how many were transitioned. Running it
// twice in succession transitions nothing the second time.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	n, err := m.markers.ExpireDue(ctx, m.clk.Now())
	if err != nil {
		return 0, storageErr("expire due markers", err)
	}
	if n > 0 {
		metrics.MarkersExpired.Add(float64(n))
		m.log.Info().Int64("count", n).Msg("expired markers swept")
	}
	return n, nil
}

// PublicFeed returns active, unexpired markers with the owner display name,
// newest first. It sweeps first and additionally filters by expiration at
// read time, so no caller ever observes a marker as active past its
// expiration instant.
func (m *Manager) PublicFeed(ctx context.Context) ([]models.Marker, error) {
	if _, err := m.Sweep(ctx); err != nil {
		return nil, err
	}
	out, err := m.markers.ListActiveFeed(ctx, m.clk.Now())
	if err != nil {
		return nil, storageErr("list feed", err)
	}
	return out, nil
}

// OwnerMarkers returns all of target's markers, any status, any expiration,
// newest first. The requester must be the target user.
func (m *Manager) OwnerMarkers(ctx context.Context, requester, target string) ([]models.Marker, error) {
	if requester != target {
		return nil, ErrForbidden
	}
	out, err := m.markers.ListByOwner(ctx, target)
	if err != nil {
		return nil, storageErr("list by owner", err)
	}
	return out, nil
}

// SetStatus applies an explicit active/inactive transition requested by the
// marker's owner or an admin. Transitioning to active never recomputes the
// expiration: reactivating an already-expired marker leaves it eligible for
// the next sweep and it stays out of the public feed.
func (m *Manager) SetStatus(ctx context.Context, requester string, id int64, target string) (*models.Marker, error) {
	st := models.MarkerStatus(target)
	if st != models.MarkerStatusActive && st != models.MarkerStatusInactive {
		return nil, ErrInvalidStatus
	}
	mk, err := m.markers.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get marker", err)
	}
	if mk == nil {
		return nil, ErrNotFound
	}
	if mk.Owner != requester {
		if err := m.requireAdmin(ctx, requester); err != nil {
			return nil, err
		}
	}
	if err := m.markers.UpdateStatus(ctx, id, st); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("update status", err)
	}
	metrics.StatusTransitions.WithLabelValues(string(st)).Inc()
	m.log.Info().Int64("id", id).Str("status", string(st)).Str("requester", requester).Msg("marker status updated")
	mk.Status = st
	return mk, nil
}

// AdminList returns markers matching the filters with no status or
// expiration restrictions. Admin only.
func (m *Manager) AdminList(ctx context.Context, requester string, p repository.ListMarkersAdminParams) ([]models.Marker, error) {
	if err := m.requireAdmin(ctx, requester); err != nil {
		return nil, err
	}
	out, err := m.markers.ListAdmin(ctx, p)
	if err != nil {
		return nil, storageErr("list admin", err)
	}
	return out, nil
}

// AdminUpdate applies whitelisted field changes to any marker. Admin only.
// Changing visibility does not recompute expiration.
func (m *Manager) AdminUpdate(ctx context.Context, requester string, id int64, p repository.AdminUpdateMarkerParams) error {
	if err := m.requireAdmin(ctx, requester); err != nil {
		return err
	}
	if p.IsEmpty() {
		return &ValidationError{Err: errors.New("no fields to update")}
	}
	if p.Status != nil && *p.Status != models.MarkerStatusActive && *p.Status != models.MarkerStatusInactive {
		return ErrInvalidStatus
	}
	if err := m.markers.AdminUpdate(ctx, id, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return storageErr("admin update marker", err)
	}
	return nil
}

// AdminDelete removes any marker. Admin only.
func (m *Manager) AdminDelete(ctx context.Context, requester string, id int64) error {
	if err := m.requireAdmin(ctx, requester); err != nil {
		return err
	}
	if err := m.markers.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return storageErr("delete marker", err)
	}
	m.log.Info().Int64("id", id).Str("requester", requester).Msg("marker deleted by admin")
	return nil
}

// requireAdmin resolves the requester through the identity collaborator and
// verifies the admin role against the store, not just the token.
func (m *Manager) requireAdmin(ctx context.Context, requester string) error {
	u, err := m.users.GetByUsername(ctx, requester)
	if err != nil {
		return storageErr("get requester", err)
	}
	if !u.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
