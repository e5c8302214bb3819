package api

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/wangkuke/MapConnect/internal/auth"
	"github.com/wangkuke/MapConnect/models"
	"github.com/wangkuke/MapConnect/repository"
)

// AdminListMarkers returns every marker, regardless of status or expiration,
// with optional status/owner filters and keyset pagination.
func (h *Handler) AdminListMarkers(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequireAdmin(r.Context(), h.users)
	if err != nil {
		writeError(w, r, err)
		return
	}

	params := repository.ListMarkersAdminParams{}
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		for _, part := range strings.Split(s, ",") {
			params.Statuses = append(params.Statuses, models.MarkerStatus(strings.TrimSpace(part)))
		}
	}
	if owner := q.Get("owner"); owner != "" {
		params.Owner = &owner
	}
	if ps := q.Get("page_size"); ps != "" {
		if n, err := strconv.Atoi(ps); err == nil {
			params.PageSize = n
		}
	}
	if tok := q.Get("page_token"); tok != "" {
		if err := decodeCursor(tok, &params.AfterMicros, &params.AfterID); err != nil {
			respondError(w, http.StatusBadRequest, "bad_cursor", "invalid page_token")
			return
		}
	}

	list, err := h.manager.AdminList(r.Context(), p.Name, params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := struct {
		Markers       []models.Marker `json:"markers"`
		NextPageToken string          `json:"next_page_token,omitempty"`
	}{Markers: list}
	if resp.Markers == nil {
		resp.Markers = []models.Marker{}
	}
	if params.PageSize > 0 && len(list) == params.PageSize {
		last := list[len(list)-1]
		resp.NextPageToken = encodeCursor(last.CreatedAt.UnixMicro(), last.ID)
	}
	respondJSON(w, http.StatusOK, resp)
}

// AdminUpdateMarker applies whitelisted field changes to any marker.
func (h *Handler) AdminUpdateMarker(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequireAdmin(r.Context(), h.users)
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
		Title       *string              `json:"title"`
		Description *string              `json:"description"`
		Contact     *string              `json:"contact"`
		Type        *string              `json:"marker_type"`
		Visibility  *models.Visibility   `json:"visibility"`
		Status      *models.MarkerStatus `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "bad_json", "invalid request body")
		return
	}
	params := repository.AdminUpdateMarkerParams{
		Title:       body.Title,
		Description: body.Description,
		Contact:     body.Contact,
		Type:        body.Type,
		Visibility:  body.Visibility,
		Status:      body.Status,
	}
	if err := h.manager.AdminUpdate(r.Context(), p.Name, id, params); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("marker %d updated", id)})
}

// AdminDeleteMarker removes any marker.
func (h *Handler) AdminDeleteMarker(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequireAdmin(r.Context(), h.users)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_id", "invalid marker id")
		return
	}
	if err := h.manager.AdminDelete(r.Context(), p.Name, id); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("marker %d deleted", id)})
}

// AdminListUsers returns all accounts, newest first.
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequireAdmin(r.Context(), h.users); err != nil {
		writeError(w, r, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	list, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.User{}
	}
	respondJSON(w, http.StatusOK, list)
}

// AdminUpdateUser changes name, contact or role on any account. Demoting
// the last remaining admin is refused.
func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequireAdmin(r.Context(), h.users)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_id", "invalid user id")
		return
	}
	var body struct {
		Name    *string `json:"name"`
		Contact *string `json:"contact"`
		Role    *string `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "bad_json", "invalid request body")
		return
	}
	params := repository.AdminUpdateUserParams{Name: body.Name, Contact: body.Contact, Role: body.Role}
	if params.IsEmpty() {
		respondError(w, http.StatusBadRequest, "validation_error", "no fields to update")
		return
	}

	if body.Role != nil && *body.Role != models.RoleAdmin {
		target, err := h.users.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if target != nil && target.Username == p.Name {
			others, err := h.users.CountAdminsExcluding(r.Context(), id)
			if err != nil {
				writeError(w, r, err)
				return
			}
			if others == 0 {
				respondError(w, http.StatusForbidden, "last_admin", "cannot demote the last admin")
				return
			}
		}
	}

	if err := h.users.AdminUpdate(r.Context(), id, params); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("user %d updated", id)})
}

// AdminDeleteUser removes an account. The account's markers are removed with
// it (schema-level cascade). Admins cannot delete themselves.
func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	p, err := auth.RequireAdmin(r.Context(), h.users)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_id", "invalid user id")
		return
	}
	target, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if target == nil {
		respondError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	if target.Username == p.Name {
		respondError(w, http.StatusForbidden, "self_delete", "admin cannot delete themselves")
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("user %d and their markers deleted", id)})
}

func encodeCursor(afterMicros, afterID int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf("%d|%d", afterMicros, afterID)))
}

func decodeCursor(tok string, afterMicros, afterID *int64) error {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return err
	}
	if _, err := fmt.Sscanf(string(raw), "%d|%d", afterMicros, afterID); err != nil {
		return err
	}
	return nil
}
