package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/registry"
)

// UsersHandler handles listing and removal of enrolled identities
type UsersHandler struct {
	service *registry.Service
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(service *registry.Service) *UsersHandler {
	return &UsersHandler{service: service}
}

// UserResponse is an enrolled identity without its descriptor
type UserResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessAt time.Time `json:"last_access_at"`
	AccessCount  int       `json:"access_count"`
}

// ListUsersResponse represents the users listing
type ListUsersResponse struct {
	Count int            `json:"count"`
	Users []UserResponse `json:"users"`
}

// List returns every enrolled identity.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		respondServiceError(w, "listing users", err)
		return
	}

	resp := ListUsersResponse{
		Count: len(users),
		Users: make([]UserResponse, 0, len(users)),
	}
	for _, u := range users {
		resp.Users = append(resp.Users, UserResponse{
			ID:           u.ID,
			Name:         u.Name,
			CreatedAt:    u.CreatedAt,
			LastAccessAt: u.LastAccessAt,
			AccessCount:  u.AccessCount,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// Delete removes the identity named in the URL.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user name in path")
		return
	}

	err = h.service.Delete(r.Context(), name)
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "user not found")
		return
	case err != nil:
		respondServiceError(w, "deleting user", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

// pathParam returns the decoded URL parameter. chi matches against the raw
// path when the request has one, so encoded separators like %2F arrive still
// escaped.
func pathParam(r *http.Request, key string) (string, error) {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value, nil
	}
	return url.PathUnescape(value)
}
