package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wangkuke/MapConnect/internal/auth"
	"github.com/wangkuke/MapConnect/internal/clock"
	"github.com/wangkuke/MapConnect/internal/marker"
	"github.com/wangkuke/MapConnect/models"
	"github.com/wangkuke/MapConnect/repository"
)

// Handler bundles the collaborators the HTTP handlers need.
type Handler struct {
	manager *marker.Manager
	users   repository.UserStoreI
	clk     clock.Clock
	secret  string // HS256 signing secret for issued tokens
}

// PublicFeed returns active, unexpired markers, newest first.
func (h *Handler) PublicFeed(w http.ResponseWriter, r *http.Request) {
	list, err := h.manager.PublicFeed(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Marker{}
	}
	respondJSON(w, http.StatusOK, list)
}

// CreateMarker creates a marker for the authenticated user.
func (h *Handler) CreateMarker(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in marker.CreateInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "bad_json", "invalid request body")
		return
	}
	created, err := h.manager.Create(r.Context(), p.Name, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// OwnerMarkers returns all markers of the path's target user, any status.
// The requester must be that user.
func (h *Handler) OwnerMarkers(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	target := chi.URLParam(r, "username")
	list, err := h.manager.OwnerMarkers(r.Context(), p.Name, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Marker{}
	}
	respondJSON(w, http.StatusOK, list)
}

// SetMarkerStatus applies an explicit active/inactive transition.
func (h *Handler) SetMarkerStatus(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_id", "invalid marker id")
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "bad_json", "invalid request body")
		return
	}
	updated, err := h.manager.SetStatus(r.Context(), p.Name, id, body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
