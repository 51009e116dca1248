package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mt5panel/internal/apperr"
	"mt5panel/internal/authz"
	"mt5panel/internal/store"
)

func magicParam(r *http.Request) (int64, error) {
	m, err := strconv.ParseInt(chi.URLParam(r, "magic"), 10, 64)
	if err != nil || m <= 0 {
		return 0, apperr.Validation("magic number must be a positive integer")
	}
	return m, nil
}

type botCreateReq struct {
	MagicNumber       int64          `json:"magic_number"`
	EAName            string         `json:"ea_name"`
	Symbol            string         `json:"symbol"`
	Timeframe         string         `json:"timeframe"`
	LotSize           float64        `json:"lot_size"`
	StopLoss          float64        `json:"stop_loss"`
	TakeProfit        float64        `json:"take_profit"`
	MaxTrades         int            `json:"max_trades"`
	TradingHoursStart int            `json:"trading_hours_start"`
	TradingHoursEnd   int            `json:"trading_hours_end"`
	RiskPercent       float64        `json:"risk_percent"`
	Enabled           *bool          `json:"enabled,omitempty"`
	CustomParams      map[string]any `json:"custom_params,omitempty"`
}

func CreateBot(bots *store.Bots, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromCtx(r)
		var req botCreateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, lg, apperr.Validation("invalid request body"))
			return
		}
		rec, err := bots.Create(r.Context(), caller.ID, store.BotCreate{
			MagicNumber:       req.MagicNumber,
			EAName:            req.EAName,
			Symbol:            req.Symbol,
			Timeframe:         req.Timeframe,
			LotSize:           req.LotSize,
			StopLoss:          req.StopLoss,
			TakeProfit:        req.TakeProfit,
			MaxTrades:         req.MaxTrades,
			TradingHoursStart: req.TradingHoursStart,
			TradingHoursEnd:   req.TradingHoursEnd,
			RiskPercent:       req.RiskPercent,
			Enabled:           req.Enabled,
			CustomParams:      req.CustomParams,
		})
		if err != nil {
			respondError(w, lg, err)
			return
		}
		lg.Infow("bot created", "user_id", caller.ID, "magic_number", rec.MagicNumber)
		respondJSON(w, rec)
	}
}

func ListBots(bots *store.Bots, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromCtx(r)
		recs, err := bots.ListByOwner(r.Context(), caller.ID)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, recs)
	}
}

// GetBot resolves a single configuration. Visibility follows the bot
// rule: owner or superadmin; everyone else gets the same 404 as for a
// record that does not exist.
func GetBot(bots *store.Bots, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromCtx(r)
		magic, err := magicParam(r)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		rec, err := bots.Get(r.Context(), magic)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		if err := authz.Decide(caller, authz.ReadBot, authz.Resource{OwnerID: rec.UserID}); err != nil {
			respondError(w, lg, apperr.ErrNotFound)
			return
		}
		respondJSON(w, rec)
	}
}

type botUpdateReq struct {
	EAName            *string        `json:"ea_name,omitempty"`
	Symbol            *string        `json:"symbol,omitempty"`
	Timeframe         *string        `json:"timeframe,omitempty"`
	LotSize           *float64       `json:"lot_size,omitempty"`
	StopLoss          *float64       `json:"stop_loss,omitempty"`
	TakeProfit        *float64       `json:"take_profit,omitempty"`
	MaxTrades         *int           `json:"max_trades,omitempty"`
	TradingHoursStart *int           `json:"trading_hours_start,omitempty"`
	TradingHoursEnd   *int           `json:"trading_hours_end,omitempty"`
	RiskPercent       *float64       `json:"risk_percent,omitempty"`
	Enabled           *bool          `json:"enabled,omitempty"`
	CustomParams      map[string]any `json:"custom_params,omitempty"`
}

func UpdateBot(bots *store.Bots, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromCtx(r)
		magic, err := magicParam(r)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		var req botUpdateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, lg, apperr.Validation("invalid request body"))
			return
		}
		rec, err := bots.Update(r.Context(), magic, caller, store.BotUpdate{
			EAName:            req.EAName,
			Symbol:            req.Symbol,
			Timeframe:         req.Timeframe,
			LotSize:           req.LotSize,
			StopLoss:          req.StopLoss,
			TakeProfit:        req.TakeProfit,
			MaxTrades:         req.MaxTrades,
			TradingHoursStart: req.TradingHoursStart,
			TradingHoursEnd:   req.TradingHoursEnd,
			RiskPercent:       req.RiskPercent,
			Enabled:           req.Enabled,
			CustomParams:      req.CustomParams,
		})
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, rec)
	}
}

func DeleteBot(bots *store.Bots, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromCtx(r)
		magic, err := magicParam(r)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		if err := bots.Delete(r.Context(), magic, caller); err != nil {
			respondError(w, lg, err)
			return
		}
		lg.Infow("bot deleted", "user_id", caller.ID, "magic_number", magic)
		respondJSON(w, map[string]any{"deleted": true})
	}
}

func SetBotEnabled(bots *store.Bots, enabled bool, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromCtx(r)
		magic, err := magicParam(r)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		if err := bots.SetEnabled(r.Context(), magic, caller, enabled); err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]any{"magic_number": magic, "enabled": enabled})
	}
}

// ListAssignedBots returns the bots other users own that an admin has
// made visible to the caller.
func ListAssignedBots(assignments *store.Assignments, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromCtx(r)
		recs, err := assignments.ListForUser(r.Context(), caller.ID)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, recs)
	}
}
