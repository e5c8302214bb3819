package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/wangkuke/MapConnect/models"
)

func TestUserCreateAndFetch(t *testing.T) {
	_, users := openRepos(t)
	ctx := context.Background()
	created := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

	u, err := users.Create(ctx, &models.User{
		Username:  "alice",
		Email:     "alice@example.com",
		Name:      "Alice",
		Contact:   "wx:alice",
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("id not assigned")
	}
	if u.Role != models.RoleUser {
		t.Errorf("role = %q, want default %q", u.Role, models.RoleUser)
	}
	if u.Gender != "secret" {
		t.Errorf("gender = %q, want default secret", u.Gender)
	}

	got, err := users.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if got == nil || got.ID != u.ID || !got.CreatedAt.Equal(created) {
		t.Errorf("fetched user = %+v", got)
	}
	byID, err := users.GetByID(ctx, u.ID)
	if err != nil || byID == nil || byID.Username != "alice" {
		t.Errorf("get by id = %+v, err %v", byID, err)
	}
}

func TestUserCreateDuplicate(t *testing.T) {
	_, users := openRepos(t)
	ctx := context.Background()
	seedUser(t, users, "alice")

	_, err := users.Create(ctx, &models.User{Username: "alice", Email: "other@example.com"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate username err = %v, want ErrDuplicate", err)
	}
	_, err = users.Create(ctx, &models.User{Username: "alice2", Email: "alice@example.com"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate email err = %v, want ErrDuplicate", err)
	}
}

func TestUserGetMissing(t *testing.T) {
	_, users := openRepos(t)
	u, err := users.GetByUsername(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u != nil {
		t.Fatalf("got %+v, want nil", u)
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	_, users := openRepos(t)
	ctx := context.Background()
	seedUser(t, users, "alice")

	bio := "hiker, amateur cartographer"
	age := int64(29)
	err := users.UpdateProfile(ctx, "alice", UpdateProfileParams{Bio: &bio, Age: &age})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := users.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Bio != bio {
		t.Errorf("bio = %q, want %q", got.Bio, bio)
	}
	if got.Age == nil || *got.Age != age {
		t.Errorf("age = %v, want %d", got.Age, age)
	}
	if got.Name != "Alice" {
		t.Errorf("name changed unexpectedly: %q", got.Name)
	}

	if err := users.UpdateProfile(ctx, "ghost", UpdateProfileParams{Bio: &bio}); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("missing user err = %v, want sql.ErrNoRows", err)
	}
}

func TestAdminUpdateRole(t *testing.T) {
	_, users := openRepos(t)
	ctx := context.Background()
	alice := seedUser(t, users, "alice")

	role := models.RoleAdmin
	if err := users.AdminUpdate(ctx, alice.ID, AdminUpdateUserParams{Role: &role}); err != nil {
		t.Fatalf("promote: %v", err)
	}
	got, err := users.GetByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsAdmin() {
		t.Errorf("role = %q after promotion", got.Role)
	}
}

func TestCountAdminsExcluding(t *testing.T) {
	_, users := openRepos(t)
	ctx := context.Background()
	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	role := models.RoleAdmin
	for _, id := range []int64{alice.ID, bob.ID} {
		if err := users.AdminUpdate(ctx, id, AdminUpdateUserParams{Role: &role}); err != nil {
			t.Fatalf("promote: %v", err)
		}
	}

	n, err := users.CountAdminsExcluding(ctx, alice.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("other admins = %d, want 1", n)
	}
	n, err = users.CountAdminsExcluding(ctx, 0)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("all admins = %d, want 2", n)
	}
}

func TestUserDeleteMissing(t *testing.T) {
	_, users := openRepos(t)
	if err := users.Delete(context.Background(), 99); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestUserList(t *testing.T) {
	_, users := openRepos(t)
	ctx := context.Background()
	for i, name := range []string{"alice", "bob", "carol"} {
		u := &models.User{
			Username:  name,
			Email:     name + "@example.com",
			CreatedAt: time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC),
		}
		if _, err := users.Create(ctx, u); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	all, err := users.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Username != "carol" {
		t.Errorf("newest first: got %q", all[0].Username)
	}
	page, err := users.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].Username != "alice" {
		t.Errorf("offset page = %+v", page)
	}
}
