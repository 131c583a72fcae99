package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/taskflow-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskflow-api/internal/api/middleware"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{app.config.Server.AllowedOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.userService, app.logger)
	limiter := apiMiddleware.NewRateLimiter(app.config.Auth.LoginRatePerMinute, app.config.Auth.LoginBurst, app.logger)

	authHandler := api.NewAuthHandler(app.userService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	userHandler := api.NewUserHandler(app.userService, app.logger)
	notificationHandler := api.NewNotificationHandler(app.bus, app.config.Server.AllowedOrigin, app.logger)

	authRoutes := func(r chi.Router) {
		r.With(limiter.Limit, authMiddleware.OptionalAuthenticate).Post("/register", authHandler.Register)
		r.With(limiter.Limit).Post("/login", authHandler.Login)
		r.Get("/me", authHandler.Me)
	}

	protectedRoutes := func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Get("/{id}", taskHandler.Get)
			r.Put("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Put("/{id}/promote", userHandler.Promote)
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", authRoutes)
		r.With(authMiddleware.AuthenticateWebSocket).Get("/notifications", notificationHandler.Stream)
		r.Group(protectedRoutes)
	})

	// Older clients call every endpoint without the /api prefix.
	r.Route("/auth", authRoutes)
	r.Group(protectedRoutes)

	r.Get("/health", app.health)

	return r
}

// health reports whether the server is up and, when it has one, whether
// the database answers.
func (app *application) health(w http.ResponseWriter, r *http.Request) {
	if app.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := app.db.PingContext(ctx); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
