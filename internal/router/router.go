package router // route registration for the task-planner API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/task-planner/internal/config"
	"github.com/iliyamo/task-planner/internal/handler"
	"github.com/iliyamo/task-planner/internal/middleware"
)

// Register wires every route onto the Echo instance.
//
// /v1/auth holds the operations that work without a session
// (register, login, refresh — the refresh token itself is the
// credential). Everything else lives under /v1 behind JWTAuth, which
// only accepts access tokens, and behind the redis rate limiter.
// Logout is protected: the user id comes from the access token.
func Register(e *echo.Echo, a *handler.AuthHandler, t *handler.TaskHandler, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	g := e.Group("/v1/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))
	auth.Use(limiter)
	auth.POST("/auth/logout", a.Logout)

	auth.GET("/tasks", t.List)
	auth.GET("/tasks/range", t.Range)
	auth.POST("/tasks", t.Create)
	auth.PATCH("/tasks/:id", t.Patch)
	auth.DELETE("/tasks/:id", t.Delete)
	auth.POST("/tasks/bulk-update", t.BulkUpdate)
}
