package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"mt5panel/internal/apperr"
	"mt5panel/internal/store"
)

type assignReq struct {
	UserID      string `json:"user_id"`
	MagicNumber int64  `json:"magic_number"`
	// Seed fields for a bot not yet registered here: when the magic
	// number only exists upstream, the admin can import it by supplying
	// a name. The stub is owned by the target user.
	EAName  string  `json:"ea_name,omitempty"`
	Symbol  string  `json:"symbol,omitempty"`
	LotSize float64 `json:"lot_size,omitempty"`
}

// AssignBot grants a user visibility of a bot by magic number. If the
// configuration does not exist yet and the request carries seed fields,
// a stub configuration is created first.
func AssignBot(assignments *store.Assignments, bots *store.Bots, audit *store.Audit, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromCtx(r)
		var req assignReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, lg, apperr.Validation("invalid request body"))
			return
		}
		if req.UserID == "" || req.MagicNumber <= 0 {
			respondError(w, lg, apperr.Validation("user_id and magic_number are required"))
			return
		}
		rec, err := assignments.Assign(r.Context(), req.UserID, req.MagicNumber, caller)
		if errors.Is(err, apperr.ErrNotFound) && req.EAName != "" {
			lotSize := req.LotSize
			if lotSize <= 0 {
				lotSize = 0.01
			}
			if _, cerr := bots.Create(r.Context(), req.UserID, store.BotCreate{
				MagicNumber: req.MagicNumber,
				EAName:      req.EAName,
				Symbol:      req.Symbol,
				LotSize:     lotSize,
				MaxTrades:   1,
				RiskPercent: 1,
			}); cerr != nil {
				respondError(w, lg, cerr)
				return
			}
			rec, err = assignments.Assign(r.Context(), req.UserID, req.MagicNumber, caller)
		}
		if err != nil {
			respondError(w, lg, err)
			return
		}
		if err := audit.Record(r.Context(), caller.ID, &req.UserID, "assign",
			fmt.Sprintf("bot %d assigned", req.MagicNumber)); err != nil {
			lg.Errorw("audit write failed", "action", "assign", "error", err)
		}
		lg.Infow("bot assigned", "actor", caller.ID, "target", req.UserID, "magic_number", req.MagicNumber)
		respondJSON(w, rec)
	}
}

// UnassignBot removes a grant; repeating the call is a no-op.
func UnassignBot(assignments *store.Assignments, audit *store.Audit, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromCtx(r)
		var req struct {
			UserID      string `json:"user_id"`
			MagicNumber int64  `json:"magic_number"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, lg, apperr.Validation("invalid request body"))
			return
		}
		if err := assignments.Unassign(r.Context(), req.UserID, req.MagicNumber, caller); err != nil {
			respondError(w, lg, err)
			return
		}
		if err := audit.Record(r.Context(), caller.ID, &req.UserID, "unassign",
			fmt.Sprintf("bot %d unassigned", req.MagicNumber)); err != nil {
			lg.Errorw("audit write failed", "action", "unassign", "error", err)
		}
		respondJSON(w, map[string]any{"deleted": true})
	}
}

func ListAssignments(assignments *store.Assignments, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := assignments.ListAll(r.Context(), callerFromCtx(r))
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, views)
	}
}
