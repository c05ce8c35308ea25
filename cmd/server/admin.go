package main

import (
	"net/http"
	"strings"
	"time"

	"certia/internal/store"
	"certia/pkg/authn"
	"certia/pkg/domain"
	"certia/pkg/httpx"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func registerAdminRoutes(api chi.Router, a *app) {
	api.Post("/admin/users", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireRole(w, r, domain.RoleAdmin); !ok {
			return
		}
		var body registerRequest
		if err := httpx.ReadJSON(r, &body); err != nil {
			httpx.WriteError(w, 400, "BAD_REQUEST", err.Error(), nil)
			return
		}
		role := domain.Role(body.Role)
		if !domain.ValidRole(role) {
			httpx.WriteError(w, 400, "VALIDATION_ERROR", "unknown role "+body.Role, nil)
			return
		}
		hash, err := authn.HashPassword(body.Password)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		profile := domain.Profile{
			ID:        "usr_" + uuid.NewString(),
			Email:     strings.ToLower(strings.TrimSpace(body.Email)),
			Username:  strings.TrimSpace(body.Username),
			FullName:  strings.TrimSpace(body.FullName),
			Role:      role,
			CreatedAt: time.Now().UTC(),
		}
		if err := a.profiles.CreateProfile(r.Context(), profile, hash); err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 201, map[string]any{
			"request_id": httpx.NewRequestID(),
			"user":       profile,
		})
	})

	api.Get("/admin/users", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireRole(w, r, domain.RoleAdmin); !ok {
			return
		}
		users, err := a.profiles.ListProfiles(r.Context())
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id": httpx.NewRequestID(),
			"users":      users,
		})
	})

	api.Put("/admin/users/{user_id}", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireRole(w, r, domain.RoleAdmin); !ok {
			return
		}
		var body struct {
			Username *string `json:"username,omitempty"`
			FullName *string `json:"full_name,omitempty"`
			Role     *string `json:"role,omitempty"`
		}
		if err := httpx.ReadJSON(r, &body); err != nil {
			httpx.WriteError(w, 400, "BAD_REQUEST", err.Error(), nil)
			return
		}
		upd := store.ProfileUpdate{Username: body.Username, FullName: body.FullName}
		if body.Role != nil {
			role := domain.Role(*body.Role)
			if !domain.ValidRole(role) {
				httpx.WriteError(w, 400, "VALIDATION_ERROR", "unknown role "+*body.Role, nil)
				return
			}
			upd.Role = &role
		}
		updated, err := a.profiles.UpdateProfile(r.Context(), chi.URLParam(r, "user_id"), upd)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id": httpx.NewRequestID(),
			"user":       updated,
		})
	})

	// removes the user and everything hanging off them in one transaction
	api.Delete("/admin/users/{user_id}", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, domain.RoleAdmin)
		if !ok {
			return
		}
		userID := chi.URLParam(r, "user_id")
		if userID == claims.UserID {
			httpx.WriteError(w, 400, "VALIDATION_ERROR", "cannot delete your own account", nil)
			return
		}
		if err := a.profiles.DeleteProfileCascade(r.Context(), userID); err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	api.Get("/admin/stats", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireRole(w, r, domain.RoleAdmin); !ok {
			return
		}
		byStatus, err := a.profiles.CountSubmissionsByStatus(r.Context())
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		users := map[string]int{}
		for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleCompany, domain.RoleClient} {
			n, err := a.profiles.CountRows(r.Context(), "profiles", "role", string(role))
			if err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			users[string(role)] = n
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id":            httpx.NewRequestID(),
			"users_by_role":         users,
			"submissions_by_status": byStatus,
		})
	})
}
