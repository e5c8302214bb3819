package marker

import (
	"testing"
	"time"

	"github.com/wangkuke/MapConnect/models"
)

func TestExpiresAtToday(t *testing.T) {
	// Regardless of the creation time of day, a 'today' marker expires at
	// 23:59:59.999999 UTC of the creation date.
	cases := []time.Time{
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 1, 12, 30, 45, 123456000, time.UTC),
		time.Date(2025, 3, 1, 23, 59, 59, 999999000, time.UTC),
		time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC), // leap day
	}
	for _, created := range cases {
		got := ExpiresAt(models.VisibilityToday, created)
		want := time.Date(created.Year(), created.Month(), created.Day(), 23, 59, 59, 999999000, time.UTC)
		if !got.Equal(want) {
			t.Errorf("ExpiresAt(today, %v) = %v, want %v", created, got, want)
		}
	}
}

func TestExpiresAtTodayNonUTCInput(t *testing.T) {
	// A non-UTC creation instant must be normalized to UTC before the
	// day boundary is computed.
	loc := time.FixedZone("UTC+8", 8*3600)
	created := time.Date(2025, 3, 2, 1, 0, 0, 0, loc) // 2025-03-01 17:00 UTC
	got := ExpiresAt(models.VisibilityToday, created)
	want := time.Date(2025, 3, 1, 23, 59, 59, 999999000, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ExpiresAt(today, %v) = %v, want %v", created, got, want)
	}
}

func TestExpiresAtThreeDays(t *testing.T) {
	created := time.Date(2025, 6, 15, 9, 45, 0, 0, time.UTC)
	got := ExpiresAt(models.VisibilityThreeDays, created)
	if d := got.Sub(created); d != 72*time.Hour {
		t.Errorf("three_days lifetime = %v, want 72h", d)
	}
}

func TestExpiresAtFallback(t *testing.T) {
	created := time.Date(2025, 6, 15, 9, 45, 0, 0, time.UTC)
	for _, v := range []models.Visibility{"", "weekly", "forever"} {
		got := ExpiresAt(v, created)
		if d := got.Sub(created); d != 365*24*time.Hour {
			t.Errorf("ExpiresAt(%q) lifetime = %v, want 365 days", v, d)
		}
	}
}

func TestExpiresAtDeterministic(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, v := range []models.Visibility{models.VisibilityToday, models.VisibilityThreeDays, "other"} {
		a := ExpiresAt(v, created)
		b := ExpiresAt(v, created)
		if !a.Equal(b) {
			t.Errorf("ExpiresAt(%q) not deterministic: %v vs %v", v, a, b)
		}
	}
}
