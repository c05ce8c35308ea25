package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"certia/internal/signature"
	"certia/pkg/domain"
	"certia/pkg/httpx"
	"certia/pkg/webhooks"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type createSubmissionRequest struct {
	TemplateID string          `json:"template_id"`
	FormData   domain.FormData `json:"form_data"`
}

type decisionRequest struct {
	Notes string `json:"notes,omitempty"`
}

func registerSubmissionRoutes(api chi.Router, a *app) {
	api.Post("/submissions", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, domain.RoleClient)
		if !ok {
			return
		}
		var body createSubmissionRequest
		if err := httpx.ReadJSON(r, &body); err != nil {
			httpx.WriteError(w, 400, "BAD_REQUEST", err.Error(), nil)
			return
		}
		sub, err := a.engine.CreateSubmission(r.Context(), body.TemplateID, claims.UserID, body.FormData)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 201, map[string]any{
			"request_id": httpx.NewRequestID(),
			"submission": sub,
		})
	})

	api.Get("/submissions/mine", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, domain.RoleClient)
		if !ok {
			return
		}
		list, err := a.engine.ListForClient(r.Context(), claims.UserID)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id":  httpx.NewRequestID(),
			"submissions": list,
		})
	})

	api.Get("/submissions", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, domain.RoleCompany)
		if !ok {
			return
		}
		filter := domain.Status(r.URL.Query().Get("status"))
		list, err := a.engine.ListForReviewer(r.Context(), claims.UserID, filter)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id":  httpx.NewRequestID(),
			"submissions": list,
		})
	})

	// analytics behind the reviewer dashboard, scoped to the actor's company
	api.Get("/submissions/stats", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, domain.RoleCompany)
		if !ok {
			return
		}
		stats, err := a.profiles.CompanySubmissionStats(r.Context(), claims.UserID)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id": httpx.NewRequestID(),
			"stats":      stats,
		})
	})

	api.Get("/submissions/{submission_id}", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, domain.RoleClient, domain.RoleCompany)
		if !ok {
			return
		}
		sub, err := a.engine.Get(r.Context(), chi.URLParam(r, "submission_id"), claims.UserID)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id": httpx.NewRequestID(),
			"submission": sub,
		})
	})

	decision := func(apply func(r *http.Request, id, actor, notes string) (domain.Submission, error)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := requireRole(w, r, domain.RoleCompany)
			if !ok {
				return
			}
			var body decisionRequest
			if r.ContentLength != 0 {
				if err := httpx.ReadJSON(r, &body); err != nil {
					httpx.WriteError(w, 400, "BAD_REQUEST", err.Error(), nil)
					return
				}
			}
			sub, err := apply(r, chi.URLParam(r, "submission_id"), claims.UserID, body.Notes)
			if err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{
				"request_id": httpx.NewRequestID(),
				"submission": sub,
			})
		}
	}

	api.Post("/submissions/{submission_id}/review", decision(func(r *http.Request, id, actor, _ string) (domain.Submission, error) {
		return a.engine.Review(r.Context(), id, actor)
	}))
	api.Post("/submissions/{submission_id}/approve", decision(func(r *http.Request, id, actor, notes string) (domain.Submission, error) {
		return a.engine.Approve(r.Context(), id, actor, notes)
	}))
	api.Post("/submissions/{submission_id}/reject", decision(func(r *http.Request, id, actor, notes string) (domain.Submission, error) {
		return a.engine.Reject(r.Context(), id, actor, notes)
	}))
	api.Post("/submissions/{submission_id}/reset-error", decision(func(r *http.Request, id, actor, _ string) (domain.Submission, error) {
		return a.engine.ResetFromError(r.Context(), id, actor)
	}))

	api.Post("/submissions/{submission_id}/sign", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, domain.RoleCompany)
		if !ok {
			return
		}
		init, err := a.engine.StartSigning(r.Context(), chi.URLParam(r, "submission_id"), claims.UserID)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id":       httpx.NewRequestID(),
			"transaction_id":   init.TransactionID,
			"continuation_ref": init.ContinuationRef,
		})
	})
}

type signingCallbackRequest struct {
	TransactionID string `json:"transaction_id"`
	Outcome       string `json:"outcome"`
	ArtifactURL   string `json:"artifact_url,omitempty"`
	SignedAt      string `json:"signed_at,omitempty"`
}

// registerSigningCallbackRoutes mounts the unauthenticated provider-facing
// surface: the HMAC-verified outcome callback and the mock gateway's
// completion endpoint that the continuation page drives.
func registerSigningCallbackRoutes(r chi.Router, a *app) {
	r.Post("/signing/callback", func(w http.ResponseWriter, req *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
		if err != nil {
			httpx.WriteError(w, 400, "BAD_REQUEST", "unreadable body", nil)
			return
		}
		res, err := webhooks.VerifyHMAC(req.Header, raw, a.cfg.WebhookSecret)
		if err != nil {
			httpx.WriteError(w, 500, "CONFIG_ERROR", err.Error(), nil)
			return
		}
		if !res.Valid {
			httpx.WriteError(w, 401, "UNAUTHORIZED", "invalid webhook signature", nil)
			return
		}
		var body signingCallbackRequest
		if err := json.Unmarshal(raw, &body); err != nil {
			httpx.WriteError(w, 400, "BAD_REQUEST", err.Error(), nil)
			return
		}
		resolution := signature.Resolution{
			Outcome:     signature.Outcome(body.Outcome),
			ArtifactURL: body.ArtifactURL,
		}
		if body.SignedAt != "" {
			if ts, err := time.Parse(time.RFC3339, body.SignedAt); err == nil {
				resolution.SignedAt = ts
			}
		}
		if err := a.engine.ResolveSigning(req.Context(), body.TransactionID, resolution); err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		a.logger.Info("signature outcome applied",
			zap.String("transaction_id", body.TransactionID),
			zap.String("outcome", body.Outcome),
			zap.String("event_id", res.EventID))
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id": httpx.NewRequestID(),
			"status":     "processed",
		})
	})

	// the mock continuation page posts here when the signer confirms
	r.Post("/signing/mock/{transaction_id}/process", func(w http.ResponseWriter, req *http.Request) {
		txnID := chi.URLParam(req, "transaction_id")
		res, err := a.provider.Resolve(req.Context(), txnID)
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		if err := a.engine.ResolveSigning(req.Context(), txnID, res); err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id":   httpx.NewRequestID(),
			"outcome":      res.Outcome,
			"artifact_url": res.ArtifactURL,
		})
	})

	r.Post("/signing/mock/{transaction_id}/cancel", func(w http.ResponseWriter, req *http.Request) {
		txnID := chi.URLParam(req, "transaction_id")
		if err := a.engine.ResolveSigning(req.Context(), txnID, signature.Resolution{Outcome: signature.OutcomeCancelled}); err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id": httpx.NewRequestID(),
			"outcome":    signature.OutcomeCancelled,
		})
	})
}

// registerEventRoutes streams submission change events over SSE so review
// dashboards refresh without polling.
func registerEventRoutes(api chi.Router, a *app) {
	api.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			httpx.WriteError(w, 500, "STREAMING_UNSUPPORTED", "response writer cannot stream", nil)
			return
		}
		w.Header().Set("content-type", "text/event-stream")
		w.Header().Set("cache-control", "no-cache")
		w.Header().Set("connection", "keep-alive")
		w.WriteHeader(200)
		flusher.Flush()

		events, cancel := a.hub.Subscribe()
		defer cancel()

		keepalive := time.NewTicker(25 * time.Second)
		defer keepalive.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-keepalive.C:
				fmt.Fprint(w, ": keepalive\n\n")
				flusher.Flush()
			case ev := <-events:
				payload, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: submission\ndata: %s\n\n", payload)
				flusher.Flush()
			}
		}
	})
}
