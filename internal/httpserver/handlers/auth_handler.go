package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mt5panel/internal/apperr"
	"mt5panel/internal/auth"
	"mt5panel/internal/models"
	"mt5panel/internal/store"
)

type registerReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register creates an account awaiting admin approval. No session is
// issued here; login is refused until the account is approved.
func Register(users *store.Users, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, lg, apperr.Validation("invalid request body"))
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			respondError(w, lg, apperr.Validation("email and password are required"))
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		u, err := users.Register(r.Context(), req.Email, strings.TrimSpace(req.Name), hash)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		lg.Infow("user registered", "user_id", u.ID, "email", u.Email)
		respondJSON(w, map[string]any{"id": u.ID, "email": u.Email, "is_approved": u.IsApproved})
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and the approval/active flags before issuing
// a session-backed token. Unapproved and disabled accounts are rejected
// with the same message as bad credentials.
func Login(users *store.Users, db *gorm.DB, jwtSecret string, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, lg, apperr.Validation("invalid request body"))
			return
		}
		u, err := users.FindByEmail(r.Context(), req.Email)
		if err != nil {
			respondError(w, lg, apperr.ErrUnauthenticated)
			return
		}
		if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
			respondError(w, lg, apperr.ErrUnauthenticated)
			return
		}
		// same answer as bad credentials so account state is not probeable
		if !u.IsApproved || !u.IsActive {
			respondError(w, lg, apperr.ErrUnauthenticated)
			return
		}
		jti := uuid.NewString()
		sess := models.Session{
			JTI:       jti,
			UserID:    u.ID,
			ExpiresAt: time.Now().Add(auth.TTL()),
			CreatedAt: time.Now(),
		}
		if err := db.WithContext(r.Context()).Create(&sess).Error; err != nil {
			respondError(w, lg, err)
			return
		}
		tok, err := auth.Sign(jwtSecret, u.ID, u.Role, jti)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]any{"token": tok, "role": u.Role})
	}
}

// Logout revokes the current session server-side.
func Logout(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := auth.FromContext(r.Context())
		now := time.Now()
		_ = db.WithContext(r.Context()).Model(&models.Session{}).
			Where("jti = ?", claims.JWTID).
			Update("revoked_at", &now).Error
		respondJSON(w, map[string]any{"ok": true})
	}
}

func Me(users *store.Users, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := users.FindByID(r.Context(), auth.Subject(r.Context()))
		if err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, u)
	}
}

// ChangePassword lets a logged-in user rotate their own password.
func ChangePassword(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Current string `json:"current_password"`
			New     string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, lg, apperr.Validation("invalid request body"))
			return
		}
		if req.New == "" {
			respondError(w, lg, apperr.Validation("new_password is required"))
			return
		}
		var u models.User
		if err := db.WithContext(r.Context()).First(&u, "id = ?", auth.Subject(r.Context())).Error; err != nil {
			respondError(w, lg, apperr.ErrNotFound)
			return
		}
		if err := auth.CheckPassword(u.PasswordHash, req.Current); err != nil {
			respondError(w, lg, apperr.ErrUnauthenticated)
			return
		}
		hash, err := auth.HashPassword(req.New)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		if err := db.WithContext(r.Context()).Model(&u).
			Updates(map[string]interface{}{"password_hash": hash, "updated_at": time.Now()}).Error; err != nil {
			respondError(w, lg, err)
			return
		}
		respondJSON(w, map[string]any{"updated": true})
	}
}
