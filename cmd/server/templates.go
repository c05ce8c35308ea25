package main

import (
	"net/http"

	"certia/pkg/authn"
	"certia/pkg/domain"
	"certia/pkg/httpx"

	"github.com/go-chi/chi/v5"
)

// requireRole rejects actors outside the allowed roles; it returns the claims
// when admitted.
func requireRole(w http.ResponseWriter, r *http.Request, roles ...domain.Role) (*authn.Claims, bool) {
	claims := authn.Actor(r.Context())
	if claims == nil {
		httpx.WriteError(w, 401, "UNAUTHORIZED", "missing credentials", nil)
		return nil, false
	}
	for _, role := range roles {
		if claims.Role == role {
			return claims, true
		}
	}
	httpx.WriteError(w, 403, "UNAUTHORIZED", "role "+string(claims.Role)+" cannot perform this operation", nil)
	return nil, false
}

func registerTemplateRoutes(api chi.Router, a *app) {
	api.Post("/templates", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, domain.RoleCompany)
		if !ok {
			return
		}
		var tpl domain.Template
		if err := httpx.ReadJSON(r, &tpl); err != nil {
			httpx.WriteError(w, 400, "BAD_REQUEST", err.Error(), nil)
			return
		}
		created, err := a.tm.Create(r.Context(), claims.UserID, tpl)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 201, map[string]any{
			"request_id": httpx.NewRequestID(),
			"template":   created,
		})
	})

	api.Get("/templates", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, domain.RoleCompany, domain.RoleAdmin)
		if !ok {
			return
		}
		list, err := a.tm.ListByCompany(r.Context(), claims.UserID)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id": httpx.NewRequestID(),
			"templates":  list,
		})
	})

	// the client-facing catalogue: active templates across all companies
	api.Get("/templates/active", func(w http.ResponseWriter, r *http.Request) {
		list, err := a.tm.ListActive(r.Context())
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id": httpx.NewRequestID(),
			"templates":  list,
		})
	})

	api.Get("/templates/{template_id}", func(w http.ResponseWriter, r *http.Request) {
		tpl, err := a.tm.Get(r.Context(), chi.URLParam(r, "template_id"))
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		claims := authn.Actor(r.Context())
		if !tpl.IsActive && (claims == nil || tpl.CompanyID != claims.UserID) {
			httpx.WriteError(w, 404, "NOT_FOUND", "template not found", nil)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id": httpx.NewRequestID(),
			"template":   tpl,
		})
	})

	api.Put("/templates/{template_id}", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, domain.RoleCompany)
		if !ok {
			return
		}
		var tpl domain.Template
		if err := httpx.ReadJSON(r, &tpl); err != nil {
			httpx.WriteError(w, 400, "BAD_REQUEST", err.Error(), nil)
			return
		}
		tpl.ID = chi.URLParam(r, "template_id")
		updated, err := a.tm.Update(r.Context(), claims.UserID, tpl)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id": httpx.NewRequestID(),
			"template":   updated,
		})
	})

	api.Post("/templates/{template_id}/active", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, domain.RoleCompany)
		if !ok {
			return
		}
		var body struct {
			Active bool `json:"active"`
		}
		if err := httpx.ReadJSON(r, &body); err != nil {
			httpx.WriteError(w, 400, "BAD_REQUEST", err.Error(), nil)
			return
		}
		id := chi.URLParam(r, "template_id")
		if err := a.tm.SetActive(r.Context(), claims.UserID, id, body.Active); err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id":  httpx.NewRequestID(),
			"template_id": id,
			"is_active":   body.Active,
		})
	})

	api.Delete("/templates/{template_id}", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, domain.RoleCompany)
		if !ok {
			return
		}
		if err := a.tm.Delete(r.Context(), claims.UserID, chi.URLParam(r, "template_id")); err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
