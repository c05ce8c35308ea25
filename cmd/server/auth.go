package main

import (
	"net/http"
	"strings"
	"time"

	"certia/internal/notify"
	"certia/pkg/authn"
	"certia/pkg/domain"
	"certia/pkg/httpx"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func registerAuthRoutes(r chi.Router, a *app) {
	r.Post("/auth/register", func(w http.ResponseWriter, req *http.Request) {
		var body registerRequest
		if err := httpx.ReadJSON(req, &body); err != nil {
			httpx.WriteError(w, 400, "BAD_REQUEST", err.Error(), nil)
			return
		}
		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		if body.Email == "" || body.Password == "" {
			httpx.WriteError(w, 400, "VALIDATION_ERROR", "email and password are required", nil)
			return
		}
		role := domain.Role(body.Role)
		if role == "" {
			role = domain.RoleClient
		}
		// admin accounts are provisioned through the admin surface only
		if role != domain.RoleClient && role != domain.RoleCompany {
			httpx.WriteError(w, 400, "VALIDATION_ERROR", "role must be client or company", nil)
			return
		}
		hash, err := authn.HashPassword(body.Password)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		profile := domain.Profile{
			ID:        "usr_" + uuid.NewString(),
			Email:     body.Email,
			Username:  strings.TrimSpace(body.Username),
			FullName:  strings.TrimSpace(body.FullName),
			Role:      role,
			CreatedAt: time.Now().UTC(),
		}
		if err := a.profiles.CreateProfile(req.Context(), profile, hash); err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		subject, emailBody := notify.WelcomeEmail(a.cfg.AppName, profile.FullName)
		notify.Async(a.logger, a.mailer, profile.Email, subject, emailBody)

		token, err := authn.GenerateToken(a.cfg.JWTSecret, profile.ID, profile.Email, profile.Role)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 201, map[string]any{
			"request_id": httpx.NewRequestID(),
			"user":       profile,
			"token":      token,
		})
	})

	r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var body loginRequest
		if err := httpx.ReadJSON(req, &body); err != nil {
			httpx.WriteError(w, 400, "BAD_REQUEST", err.Error(), nil)
			return
		}
		profile, hash, err := a.profiles.GetProfileByEmail(req.Context(), strings.ToLower(strings.TrimSpace(body.Email)))
		if err != nil || !authn.CheckPassword(hash, body.Password) {
			// same answer for unknown email and wrong password
			httpx.WriteError(w, 401, "UNAUTHORIZED", "invalid credentials", nil)
			return
		}
		token, err := authn.GenerateToken(a.cfg.JWTSecret, profile.ID, profile.Email, profile.Role)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id": httpx.NewRequestID(),
			"user":       profile,
			"token":      token,
		})
	})
}
