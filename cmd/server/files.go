package main

import (
	"io"
	"net/http"
	"path"
	"strings"

	"certia/internal/objectstore"
	"certia/pkg/domain"
	"certia/pkg/httpx"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// registerFileServeRoutes exposes stored objects at the public URLs the
// object store hands out.
func registerFileServeRoutes(r chi.Router, a *app) {
	r.Get("/files/{bucket}/*", func(w http.ResponseWriter, req *http.Request) {
		bucket := chi.URLParam(req, "bucket")
		objectPath := chi.URLParam(req, "*")
		if objectPath == "" || strings.Contains(objectPath, "..") {
			httpx.WriteError(w, 400, "BAD_REQUEST", "invalid object path", nil)
			return
		}
		data, contentType, err := a.objects.Download(req.Context(), bucket, objectPath)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		w.Header().Set("content-type", contentType)
		w.WriteHeader(200)
		_, _ = w.Write(data)
	})
}

// registerFileUploadRoutes accepts designer asset uploads. The body is the
// raw object; content type and size limits are enforced per bucket.
func registerFileUploadRoutes(api chi.Router, a *app) {
	api.Post("/files/{bucket}", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, domain.RoleCompany, domain.RoleAdmin)
		if !ok {
			return
		}
		bucket := chi.URLParam(r, "bucket")
		if bucket != objectstore.BucketLogos && bucket != objectstore.BucketBackgrounds {
			httpx.WriteError(w, 403, "UNAUTHORIZED", "bucket is not writable through this surface", nil)
			return
		}
		contentType := r.Header.Get("Content-Type")
		data, err := io.ReadAll(io.LimitReader(r.Body, objectstore.MaxCertificateSize+1))
		if err != nil {
			httpx.WriteError(w, 400, "BAD_REQUEST", "unreadable body", nil)
			return
		}
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		ext := path.Ext(name)
		objectPath := claims.UserID + "/" + uuid.NewString() + ext
		if err := a.objects.Upload(r.Context(), bucket, objectPath, data, contentType); err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 201, map[string]any{
			"request_id": httpx.NewRequestID(),
			"bucket":     bucket,
			"path":       objectPath,
			"url":        a.objects.PublicURL(bucket, objectPath),
		})
	})
}
