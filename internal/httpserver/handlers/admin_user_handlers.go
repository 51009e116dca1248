package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mt5panel/internal/apperr"
	"mt5panel/internal/store"
)

// Admin user management. All routes here sit behind RequireSuperadmin;
// every mutation is recorded in the audit log with the acting admin.

func ListUsers(users *store.Users, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := users.List(r.Context())
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, recs)
	}
}

func ApproveUser(users *store.Users, audit *store.Audit, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		caller := callerFromCtx(r)
		if err := users.Approve(r.Context(), id); err != nil {
			respondError(w, lg, err)
			return
		}
		if err := audit.Record(r.Context(), caller.ID, &id, "approve", "user approved"); err != nil {
			lg.Errorw("audit write failed", "action", "approve", "error", err)
		}
		lg.Infow("user approved", "actor", caller.ID, "target", id)
		respondJSON(w, map[string]any{"approved": true})
	}
}

// RejectUser is a hard delete of a pending (or any) account.
func RejectUser(users *store.Users, audit *store.Audit, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		caller := callerFromCtx(r)
		if err := users.Reject(r.Context(), id); err != nil {
			respondError(w, lg, err)
			return
		}
		if err := audit.Record(r.Context(), caller.ID, &id, "reject", "user rejected and removed"); err != nil {
			lg.Errorw("audit write failed", "action", "reject", "error", err)
		}
		lg.Infow("user rejected", "actor", caller.ID, "target", id)
		respondJSON(w, map[string]any{"deleted": true})
	}
}

// UpdateUserFlags toggles the active flag (enable/disable flows).
func UpdateUserFlags(users *store.Users, audit *store.Audit, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		caller := callerFromCtx(r)
		var req struct {
			IsActive *bool `json:"is_active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, lg, apperr.Validation("invalid request body"))
			return
		}
		if req.IsActive == nil {
			respondError(w, lg, apperr.Validation("is_active is required"))
			return
		}
		if err := users.SetActive(r.Context(), id, *req.IsActive); err != nil {
			respondError(w, lg, err)
			return
		}
		action := "disable"
		if *req.IsActive {
			action = "enable"
		}
		if err := audit.Record(r.Context(), caller.ID, &id, action, "user active flag changed"); err != nil {
			lg.Errorw("audit write failed", "action", action, "error", err)
		}
		respondJSON(w, map[string]any{"updated": true})
	}
}

// AuditLogs returns recent admin actions, newest first.
func AuditLogs(audit *store.Audit, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		logs, err := audit.Recent(r.Context(), limit)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, logs)
	}
}
