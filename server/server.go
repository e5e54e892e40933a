// Package server hosts the HTTP surface: the Telegram webhook, the photo
// file route, Prometheus metrics, and the admin panel API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oponexis/tirebot/bot"
	"github.com/oponexis/tirebot/internal/profile"
	"github.com/oponexis/tirebot/plugin/media"
	apiv1 "github.com/oponexis/tirebot/server/router/api/v1"
	"github.com/oponexis/tirebot/store"
)

type Server struct {
	e *echo.Echo

	Profile *profile.Profile
	Store   *store.Store

	telegram *bot.Bot
}

func NewServer(_ context.Context, profile *profile.Profile, store *store.Store, telegram *bot.Bot, mediaStorage *media.LocalStorage) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger())

	s := &Server{
		e:        e,
		Profile:  profile,
		Store:    store,
		telegram: telegram,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.Static("/file/photos", mediaStorage.Root())

	if telegram != nil {
		// The path secret is the only authentication Telegram offers for
		// webhook delivery.
		e.POST("/webhook/"+profile.WebhookSecret, s.handleWebhook)
	}

	apiService := apiv1.NewAPIV1Service(profile.Secret, profile, store)
	apiService.RegisterRoutes(e.Group("/api/v1"))

	return s, nil
}

// Start begins serving in the background. Startup errors other than a
// graceful close are logged, not returned; the webhook has no callers to
// propagate them to.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.e.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.e.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	slog.Info("server stopped")
}

// handleWebhook feeds one Telegram update into the bot. Always answers
// 200; Telegram retries non-2xx responses and the bot handles its own
// failures.
func (s *Server) handleWebhook(c echo.Context) error {
	var update tgbotapi.Update
	if err := json.NewDecoder(c.Request().Body).Decode(&update); err != nil {
		slog.Warn("failed to decode webhook update", "error", err)
		return c.NoContent(http.StatusOK)
	}
	s.telegram.HandleUpdate(c.Request().Context(), update)
	return c.NoContent(http.StatusOK)
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			)
			return nil
		},
	})
}
