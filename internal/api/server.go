// Package api serves the farm analysis HTTP endpoint.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/a3tai/farm-analyzer/internal/config"
	"github.com/a3tai/farm-analyzer/internal/crop"
	"github.com/a3tai/farm-analyzer/internal/soil"
)

const rateLimiterExpiry = 3 * time.Minute

// SoilExtractor reads soil parameters from a report
type SoilExtractor interface {
	Extract(ctx context.Context, content []byte, mimeType string) soil.Outcome
}

// CropAnalyzer describes a crop photo
type CropAnalyzer interface {
	Analyze(ctx context.Context, content []byte) crop.Outcome
}

// Server is the HTTP front end
type Server struct {
	config    *config.Config
	echo      *echo.Echo
	extractor SoilExtractor
	analyzer  CropAnalyzer
	logger    *zap.Logger
}

// NewServer builds the echo instance with its middleware chain and routes
func NewServer(cfg *config.Config, extractor SoilExtractor, analyzer CropAnalyzer, logger *zap.Logger) (*Server, error) {
	if extractor == nil {
		return nil, errors.New("soil extractor cannot be nil")
	}
	if analyzer == nil {
		return nil, errors.New("crop analyzer cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		config:    cfg,
		echo:      e,
		extractor: extractor,
		analyzer:  analyzer,
		logger:    logger,
	}

	e.HTTPErrorHandler = s.handleError
	s.registerMiddleware()
	s.registerRoutes()

	return s, nil
}

func (s *Server) registerMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			s.logger.Info("request", fields...)
			return nil
		},
	}))
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.config.AllowedOrigins,
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch,
			http.MethodPost, http.MethodDelete, http.MethodOptions,
		},
		AllowCredentials: true,
	}))
	s.echo.Use(middleware.BodyLimit(strconv.FormatInt(s.config.MaxFileSize, 10)))

	if s.config.RateLimit > 0 {
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/health"
			},
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(s.config.RateLimit),
				Burst:     s.config.RateLimitBurst,
				ExpiresIn: rateLimiterExpiry,
			}),
		}))
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.health)
	s.echo.POST("/analyze-farm-data/", s.analyzeFarmData)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the configured address until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.String("address", s.config.Address()),
		zap.Strings("origins", s.config.AllowedOrigins),
	)

	if err := s.echo.Start(s.config.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
