package http

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	middleware "waste-collector.com/waste-collector/internal/http/middlewares"
	"waste-collector.com/waste-collector/internal/identity"
)

type RouteConfig struct {
	RateLimitPerMinute  int
	IdentityEmailHeader string
	IdentityNameHeader  string
	MaxImageBytes       int64
}

func Register(e *echo.Echo, h *Handler, cfg RouteConfig) {
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("%s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", cfg.MaxImageBytes+(1<<20))))
	e.Use(identity.Middleware(cfg.IdentityEmailHeader, cfg.IdentityNameHeader))
	e.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	e.GET("/tasks", h.ListTasks)
	e.GET("/tasks/:id", h.GetTask)
	e.POST("/tasks/:id/claim", h.ClaimTask)
	e.POST("/tasks/:id/verify", h.VerifyTask)
	e.GET("/rewards/me", h.MyRewards)
	e.GET("/impact", h.Impact)
}
