package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mt5panel/internal/auth"
	"mt5panel/internal/bridge"
	"mt5panel/internal/crypto"
	"mt5panel/internal/httpserver/handlers"
	"mt5panel/internal/store"
)

func NewRouter(db *gorm.DB, cipher *crypto.Cipher, mt5 *bridge.Client, jwtSecret string, lg *zap.SugaredLogger) http.Handler {
	users := store.NewUsers(db)
	accounts := store.NewAccounts(db, cipher)
	bots := store.NewBots(db)
	assignments := store.NewAssignments(db)
	audit := store.NewAudit(db)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)
	r.Post("/v1/auth/register", handlers.Register(users, lg))
	r.Post("/v1/auth/login", handlers.Login(users, db, jwtSecret, lg))
	r.Group(func(protected chi.Router) {
		protected.Use(auth.JWTAuth(db, jwtSecret))
		protected.Get("/v1/me", handlers.Me(users, lg))
		protected.Post("/v1/auth/logout", handlers.Logout(db))
		protected.Post("/v1/auth/password", handlers.ChangePassword(db, lg))

		protected.Post("/v1/account", handlers.ConnectAccount(accounts, lg))
		protected.Get("/v1/account", handlers.GetAccount(accounts, lg))
		protected.Delete("/v1/account", handlers.DisconnectAccount(accounts, lg))
		protected.Post("/v1/account/sync", handlers.SyncAccount(accounts, mt5, lg))
		protected.Get("/v1/account/summary", handlers.AccountSummary(accounts, mt5, lg))

		protected.Post("/v1/bots", handlers.CreateBot(bots, lg))
		protected.Get("/v1/bots", handlers.ListBots(bots, lg))
		protected.Get("/v1/bots/{magic}", handlers.GetBot(bots, lg))
		protected.Patch("/v1/bots/{magic}", handlers.UpdateBot(bots, lg))
		protected.Delete("/v1/bots/{magic}", handlers.DeleteBot(bots, lg))
		protected.Post("/v1/bots/{magic}/enable", handlers.SetBotEnabled(bots, true, lg))
		protected.Post("/v1/bots/{magic}/disable", handlers.SetBotEnabled(bots, false, lg))
		protected.Get("/v1/assigned", handlers.ListAssignedBots(assignments, lg))

		protected.Group(func(admin chi.Router) {
			admin.Use(auth.RequireSuperadmin)
			admin.Get("/v1/admin/users", handlers.ListUsers(users, lg))
			admin.Post("/v1/admin/users/{id}/approve", handlers.ApproveUser(users, audit, lg))
			admin.Delete("/v1/admin/users/{id}", handlers.RejectUser(users, audit, lg))
			admin.Patch("/v1/admin/users/{id}", handlers.UpdateUserFlags(users, audit, lg))
			admin.Get("/v1/admin/assignments", handlers.ListAssignments(assignments, lg))
			admin.Post("/v1/admin/assignments", handlers.AssignBot(assignments, bots, audit, lg))
			admin.Delete("/v1/admin/assignments", handlers.UnassignBot(assignments, audit, lg))
			admin.Get("/v1/admin/audit", handlers.AuditLogs(audit, lg))
		})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
