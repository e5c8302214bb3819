package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wangkuke/MapConnect/internal/auth"
	"github.com/wangkuke/MapConnect/models"
	"github.com/wangkuke/MapConnect/repository"
)

// Register creates a new account. Username and email must be unique.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Name     string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "bad_json", "invalid request body")
		return
	}
	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.TrimSpace(body.Email)
	if body.Username == "" || body.Email == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "username and email are required")
		return
	}
	u, err := h.users.Create(r.Context(), &models.User{
		Username:  body.Username,
		Email:     body.Email,
		Name:      body.Name,
		CreatedAt: h.clk.Now(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

// Login resolves the account and returns a signed token carrying the stored
// role. There is no credential check; identity verification is out of scope
// and tokens assert who the caller claims to be.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "bad_json", "invalid request body")
		return
	}
	body.Username = strings.TrimSpace(body.Username)
	if body.Username == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "username is required")
		return
	}
	u, err := h.users.GetByUsername(r.Context(), body.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if u == nil {
		respondError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	token, err := auth.IssueToken(h.secret, u.Username, u.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Token string               `json:"token"`
		User  models.PublicProfile `json:"user"`
	}{Token: token, User: u.Public()})
}

// PublicProfile returns a user's public profile.
func (h *Handler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	u, err := h.users.GetByUsername(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if u == nil {
		respondError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	respondJSON(w, http.StatusOK, u.Public())
}

// UpdateProfile updates the authenticated user's own profile fields.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		Name    *string `json:"name"`
		Contact *string `json:"contact"`
		Bio     *string `json:"bio"`
		Gender  *string `json:"gender"`
		Age     *int64  `json:"age"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "bad_json", "invalid request body")
		return
	}
	params := repository.UpdateProfileParams{
		Name:    body.Name,
		Contact: body.Contact,
		Bio:     body.Bio,
		Gender:  body.Gender,
		Age:     body.Age,
	}
	if params.IsEmpty() {
		respondError(w, http.StatusBadRequest, "validation_error", "no fields to update")
		return
	}
	if err := h.users.UpdateProfile(r.Context(), p.Name, params); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
}
