package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"auths/internal/auth"
	"auths/internal/config"
	"auths/internal/httpserver/handlers"
	"auths/internal/service"
)

// NewRouter mounts the Auths module: public credential endpoints, plus the
// bearer-protected admin console API for users, roles, and permissions.
func NewRouter(db *gorm.DB, cfg *config.Config, lg *zap.SugaredLogger) http.Handler {
	creds := service.NewCredentialService(db, cfg, lg)
	rbac := service.NewRBACService(db, lg)
	users := service.NewUserService(db, lg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger, metricsMiddleware)

	r.Post("/v1/auth/signup", handlers.SignUp(creds, lg))
	r.Post("/v1/auth/login", handlers.Login(creds, lg))
	r.Post("/v1/auth/admin/login", handlers.AdminLogin(creds, lg))
	r.Post("/v1/auth/forgot-password", handlers.ForgotPassword(creds, lg))
	r.Post("/v1/auth/reset-password", handlers.ResetPassword(creds, lg))

	r.Group(func(protected chi.Router) {
		protected.Use(auth.Bearer([]byte(cfg.JWTSecret)))
		protected.Put("/v1/auth/password", handlers.UpdatePassword(creds, lg))
		protected.Post("/v1/auth/security-question", handlers.SetSecurityQuestion(creds, lg))
		protected.Put("/v1/auth/security-question", handlers.UpdateSecurityQuestion(creds, lg))

		protected.Get("/v1/users", handlers.ListUsers(users, lg))

		protected.Get("/v1/roles", handlers.ListRoles(rbac, lg))
		protected.Post("/v1/roles", handlers.CreateRole(rbac, lg))
		protected.Get("/v1/roles/{id}", handlers.GetRole(rbac, lg))
		protected.Patch("/v1/roles/{id}", handlers.UpdateRole(rbac, lg))
		protected.Delete("/v1/roles/{id}", handlers.DeleteRole(rbac, lg))
		protected.Put("/v1/roles/{id}/permissions", handlers.AssignPermissionsToRole(rbac, lg))

		protected.Get("/v1/permissions", handlers.ListPermissions(rbac, lg))
		protected.Post("/v1/permissions", handlers.CreatePermission(rbac, lg))
		protected.Get("/v1/permissions/{id}", handlers.GetPermission(rbac, lg))
		protected.Patch("/v1/permissions/{id}", handlers.UpdatePermission(rbac, lg))
		protected.Delete("/v1/permissions/{id}", handlers.DeletePermission(rbac, lg))
		protected.Put("/v1/permissions/{id}/roles", handlers.AssignRolesToPermission(rbac, lg))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())
	return r
}
