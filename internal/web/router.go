package web

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/skytails/skytails/internal/auth"
	"github.com/skytails/skytails/internal/ratelimit"
	"github.com/skytails/skytails/internal/web/handlers"
	"github.com/skytails/skytails/internal/web/middleware"
)

// RouterDeps holds all dependencies needed to build the router.
type RouterDeps struct {
	AuthHandler     *handlers.AuthHandler
	SyncHandler     *handlers.SyncHandler
	ActivityHandler *handlers.ActivityHandler
	AuthService     *auth.Service
	Limiter         *ratelimit.Limiter
}

// NewRouter wires all routes into a Chi router.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RealIP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", deps.AuthHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.AuthService))

			r.Post("/auth/logout", deps.AuthHandler.HandleLogout)

			r.Get("/activities/{publicID}", deps.ActivityHandler.HandleGetActivity)
			r.Get("/activities/{publicID}/payload", deps.ActivityHandler.HandleGetActivityPayload)
			r.Get("/humans/{publicID}/activities", deps.ActivityHandler.HandleListHumanActivities)

			// Sync runs hit the Front API; keep them rate limited even
			// for authenticated operators.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(deps.Limiter))
				r.Post("/front/sync", deps.SyncHandler.HandleRunSync)
			})
		})
	})

	return r
}
