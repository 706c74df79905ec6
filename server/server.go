// Package server assembles the HTTP surface: echo routing, middleware and
// lifecycle around the v1 API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/usetaskchat/taskchat/internal/profile"
	"github.com/usetaskchat/taskchat/plugin/llm"
	apiv1 "github.com/usetaskchat/taskchat/server/router/api/v1"
	"github.com/usetaskchat/taskchat/store"
)

type Server struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
}

func NewServer(profile *profile.Profile, store *store.Store) *Server {
	e := echo.New()
	s := &Server{
		Secret:     profile.Secret,
		Profile:    profile,
		Store:      store,
		echoServer: e,
	}

	e.Use(requestLogger)
	e.Use(corsMiddleware)

	e.GET("/healthz", func(c *echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	var llmClient *llm.Client
	if profile.AIAPIKey != "" {
		llmClient = llm.NewClient(profile.AIBaseURL, profile.AIAPIKey, profile.AIModel, profile.AITimeout)
	} else {
		slog.Warn("no AI api key configured, chat will answer through the keyword fallback")
	}

	apiV1Service := apiv1.NewAPIV1Service(s.Secret, profile, store, llmClient)
	apiV1Service.RegisterRoutes(e)
	return s
}

// Start serves HTTP until ctx is canceled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	httpServer := &http.Server{
		Addr:    address,
		Handler: s.echoServer,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server started", "address", address, "mode", s.Profile.Mode)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "graceful shutdown failed")
		}
		return nil
	})
	return g.Wait()
}

// requestLogger tags each request with a short id and logs it on completion.
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		start := time.Now()
		requestID := shortuuid.New()
		c.Response().Header().Set("X-Request-Id", requestID)
		err := next(c)
		attrs := []any{
			"id", requestID,
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"latency", time.Since(start).String(),
		}
		if err != nil {
			attrs = append(attrs, "err", err)
		}
		slog.Info("http request", attrs...)
		return err
	}
}

// corsMiddleware reflects the request origin so the web client can send its
// auth cookie cross-origin during development.
func corsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		if origin := c.Request().Header.Get("Origin"); origin != "" {
			h := c.Response().Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusNoContent)
		}
		return next(c)
	}
}
