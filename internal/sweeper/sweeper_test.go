package sweeper

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/wangkuke/MapConnect/internal/clock"
	"github.com/wangkuke/MapConnect/internal/marker"
	"github.com/wangkuke/MapConnect/internal/testutil"
	"github.com/wangkuke/MapConnect/models"
	"github.com/wangkuke/MapConnect/repository"
)

func newManager(t *testing.T) (*marker.Manager, *repository.MarkerRepository, *clock.Fake) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	d := testutil.OpenInMemoryDB(t, name)
	users := repository.NewUserRepository(d)
	markers := repository.NewMarkerRepository(d)
	if _, err := users.Create(context.Background(), &models.User{
		Username: "alice", Email: "alice@example.com", Name: "Alice",
		CreatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	clk := clock.NewFake(time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC))
	return marker.NewManager(markers, users, clk), markers, clk
}

func TestRunExpiresDueMarkers(t *testing.T) {
	mgr, markers, clk := newManager(t)
	ctx := context.Background()

	m, err := mgr.Create(ctx, "alice", marker.CreateInput{
		Title:       "pop-up market",
		Description: "food stalls until sundown",
		Type:        "event",
		Visibility:  models.VisibilityToday,
		Lat:         22.3193,
		Lng:         114.1694,
		Owner:       "alice",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	clk.Set(m.ExpiresAt.Add(time.Second))

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		New(mgr, 5*time.Millisecond).Run(runCtx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		got, err := markers.GetByID(ctx, m.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Status == models.MarkerStatusInactive {
			break
		}
		select {
		case <-deadline:
			t.Fatal("marker not expired before deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}

func TestRunDisabledInterval(t *testing.T) {
	mgr, _, _ := newManager(t)
	done := make(chan struct{})
	go func() {
		New(mgr, 0).Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run with zero interval should return immediately")
	}
}
