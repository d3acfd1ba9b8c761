package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"voxchat/internal/config"
	"voxchat/internal/domain"
	"voxchat/internal/security"
	"voxchat/internal/service"
)

// Deps carries everything the router needs. Construction of stores and
// services happens in main, where the store backend is chosen.
type Deps struct {
	Users    domain.UserRepository
	Tokens   *security.TokenService
	AuthSvc  *service.AuthService
	UserSvc  *service.UserService
	GroupSvc *service.GroupService
	MsgSvc   *service.MessageService

	// WSHandler serves the realtime endpoint at /ws.
	WSHandler http.HandlerFunc

	Log *zap.Logger
}

// NewRouter constructs the main HTTP router and wires routes and
// middleware.
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "voxchat API",
			"version": "1.0.0",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Auth routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(deps.AuthSvc))
			r.Post("/login", handleLogin(deps.AuthSvc))
			r.Post("/verify-otp", handleVerifyOTP(deps.AuthSvc))
			r.Post("/request-otp", handleRequestOTP(deps.AuthSvc))
			r.Post("/reset-password", handleResetPassword(deps.AuthSvc))
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(deps.Tokens, deps.Users, deps.Log))

			r.Get("/auth/me", handleMe())

			r.Route("/users", func(r chi.Router) {
				r.Get("/", handleListUsers(deps.UserSvc))
				r.Get("/online", handleListOnlineUsers(deps.UserSvc))
				r.Patch("/me", handleUpdateProfile(deps.UserSvc))
				r.Delete("/me", handleDeactivate(deps.UserSvc))
				r.Get("/{userID}", handleGetUser(deps.UserSvc))
			})

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", handleCreateGroup(deps.GroupSvc))
				r.Get("/", handleListGroups(deps.GroupSvc))
				r.Get("/{groupID}", handleGetGroup(deps.GroupSvc))
				r.Patch("/{groupID}", handleUpdateGroup(deps.GroupSvc))
				r.Get("/{groupID}/members", handleListGroupMembers(deps.GroupSvc))
				r.Post("/{groupID}/members", handleAddGroupMember(deps.GroupSvc))
				r.Delete("/{groupID}/members/{memberID}", handleRemoveGroupMember(deps.GroupSvc))
				r.Get("/{groupID}/messages", handleGroupHistory(deps.MsgSvc))
			})

			r.Route("/messages", func(r chi.Router) {
				r.Get("/direct/{userID}", handleDirectHistory(deps.MsgSvc))
				r.Get("/{messageID}", handleGetMessage(deps.MsgSvc))
			})

			r.Mount("/uploads", UploadRoutes(cfg))
		})
	})

	// WebSocket endpoint
	r.Get("/ws", deps.WSHandler)

	return r
}
