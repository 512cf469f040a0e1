// Package server exposes a loaded dataset as a map dashboard and a small
// JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"immo-map/models"
	"immo-map/pipeline"
	"immo-map/render"
	"immo-map/utils"
)

// Server is the dashboard HTTP server.
type Server struct {
	echo    *echo.Echo
	session *pipeline.Session
	presets []render.Preset
	logger  *utils.Logger
	health  *Checker
}

// New wires the routes for session. presets must not be empty; the first
// one is shown when no preset is requested.
func New(session *pipeline.Session, presets []render.Preset, version string, logger *utils.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(logger))

	s := &Server{
		echo:    e,
		session: session,
		presets: presets,
		logger:  logger,
		health:  NewChecker(session, version),
	}

	e.GET("/", func(c echo.Context) error { return c.Redirect(http.StatusFound, "/map") })
	e.GET("/map", s.Map)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.GET("/aggregates", s.Aggregates)
	api.GET("/boundaries/:level", s.Boundaries)
	api.GET("/provinces", s.Provinces)
	api.POST("/provinces/rebuild", s.RebuildProvinces)
	s.health.Register(api)

	return s
}

// ServeHTTP lets the server be used as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.health.SetReady(true)
	s.logger.Info("[server] Dashboard listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.health.SetReady(false)
	s.logger.Info("[server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i interface{}) error {
	if err := rv.v.Struct(i); err != nil {
		return errors.Join(models.ErrInvalidOption, err)
	}
	return nil
}

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, models.ErrInvalidOption):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrProvinceConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func errorHandler(logger *utils.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := statusFor(err)
		message := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		}
		if code >= http.StatusInternalServerError {
			logger.Error("[server] %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
			message = http.StatusText(code)
		}

		_ = c.JSON(code, ErrorResponse{
			Message:   message,
			RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
		})
	}
}

func requestLogger(logger *utils.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			start := time.Now()
			if err = next(c); err != nil {
				c.Error(err)
			}
			req, res := c.Request(), c.Response()
			logger.Info("[http] %s %s %d %v id=%s", req.Method, req.RequestURI, res.Status,
				time.Since(start).Round(time.Microsecond), res.Header().Get(echo.HeaderXRequestID))
			return nil
		}
	}
}
