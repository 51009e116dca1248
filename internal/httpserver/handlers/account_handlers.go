package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"mt5panel/internal/apperr"
	"mt5panel/internal/auth"
	"mt5panel/internal/authz"
	"mt5panel/internal/bridge"
	"mt5panel/internal/store"
)

func callerFromCtx(r *http.Request) authz.Caller {
	c := auth.FromContext(r.Context())
	return authz.Caller{ID: c.Subject, Role: c.Role}
}

type connectReq struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Server   string `json:"server"`
}

// ConnectAccount links (or re-links) the caller's MT5 broker account.
// Repeating the call overwrites the existing link in place.
func ConnectAccount(accounts *store.Accounts, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromCtx(r)
		if err := authz.Decide(caller, authz.WriteOwnAccount, authz.Resource{OwnerID: caller.ID}); err != nil {
			respondError(w, lg, err)
			return
		}
		var req connectReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, lg, apperr.Validation("invalid request body"))
			return
		}
		rec, err := accounts.UpsertLink(r.Context(), caller.ID,
			strings.TrimSpace(req.Login), req.Password, strings.TrimSpace(req.Server))
		if err != nil {
			respondError(w, lg, err)
			return
		}
		lg.Infow("account linked", "user_id", caller.ID, "login", rec.Login, "server", rec.Server)
		respondJSON(w, rec)
	}
}

func GetAccount(accounts *store.Accounts, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromCtx(r)
		if err := authz.Decide(caller, authz.ReadOwnAccount, authz.Resource{OwnerID: caller.ID}); err != nil {
			respondError(w, lg, err)
			return
		}
		rec, err := accounts.GetLink(r.Context(), caller.ID)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, rec)
	}
}

// DisconnectAccount is idempotent: removing an absent link still succeeds.
func DisconnectAccount(accounts *store.Accounts, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromCtx(r)
		if err := authz.Decide(caller, authz.WriteOwnAccount, authz.Resource{OwnerID: caller.ID}); err != nil {
			respondError(w, lg, err)
			return
		}
		if err := accounts.DeleteLink(r.Context(), caller.ID); err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]any{"deleted": true})
	}
}

// AccountSummary relays the bridge's financial snapshot for the caller's
// linked login. No credentials leave this process on the read path.
func AccountSummary(accounts *store.Accounts, mt5 *bridge.Client, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromCtx(r)
		if err := authz.Decide(caller, authz.ReadOwnAccount, authz.Resource{OwnerID: caller.ID}); err != nil {
			respondError(w, lg, err)
			return
		}
		rec, err := accounts.GetLink(r.Context(), caller.ID)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		payload, err := mt5.AccountSummary(r.Context(), rec.Login)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, payload)
	}
}

// SyncAccount decrypts the stored password just long enough for one
// bridge call and relays the bridge response verbatim. The plaintext is
// never stored, logged, or echoed back to the caller.
func SyncAccount(accounts *store.Accounts, mt5 *bridge.Client, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromCtx(r)
		if err := authz.Decide(caller, authz.ReadOwnAccount, authz.Resource{OwnerID: caller.ID}); err != nil {
			respondError(w, lg, err)
			return
		}
		rec, err := accounts.GetLink(r.Context(), caller.ID)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		secret, err := accounts.RevealSecret(r.Context(), caller.ID)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		payload, err := mt5.Connect(r.Context(), rec.Login, secret, rec.Server)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		lg.Infow("account synced", "user_id", caller.ID, "login", rec.Login)
		respondJSON(w, payload)
	}
}
