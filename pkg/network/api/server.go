// Package api exposes the gateway's operational state over HTTP REST.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/minegate/minegate-node/pkg/network"
)

// Server serves the REST and metrics endpoints for one gateway.
type Server struct {
	gw       *network.Gateway
	gatherer prometheus.Gatherer
	router   *gin.Engine
	addr     string
	log      zerolog.Logger

	httpServer   *http.Server
	startTime    time.Time
	limiter      *RateLimiter
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Config holds server configuration.
type Config struct {
	Addr         string
	EnableCORS   bool
	RateLimit    int // requests per minute per client IP
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       zerolog.Logger
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         ":8080",
		EnableCORS:   true,
		RateLimit:    100,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// NewServer creates the HTTP API server for gw. The gatherer backs the
// /metrics endpoint; nil falls back to the default registry.
func NewServer(gw *network.Gateway, gatherer prometheus.Gatherer, config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	readTimeout := config.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}

	server := &Server{
		gw:           gw,
		gatherer:     gatherer,
		router:       router,
		addr:         config.Addr,
		log:          config.Logger,
		startTime:    time.Now(),
		limiter:      NewRateLimiter(config.RateLimit),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}

	server.setupMiddleware(config)
	server.setupRoutes()

	return server, nil
}

// setupMiddleware configures the middleware chain.
func (s *Server) setupMiddleware(config *Config) {
	if config.EnableCORS {
		s.router.Use(CORSMiddleware())
	}
	s.router.Use(RateLimitMiddleware(s.limiter))
	s.router.Use(LoggingMiddleware(s.log))
	s.router.Use(gin.Recovery())
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		gateway := v1.Group("/gateway")
		{
			gateway.GET("/stats", s.handleStats)
			gateway.GET("/connections", s.handleConnections)
			gateway.GET("/status", s.handleStatusDocument)
		}
	}

	// Health and metrics live outside versioning.
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", s.metricsHandler())
}

func (s *Server) metricsHandler() gin.HandlerFunc {
	if s.gatherer == nil {
		return gin.WrapH(promhttp.Handler())
	}
	return gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.log.Info().Str("addr", s.addr).Msg("api server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("api server failed")
		}
	}()

	<-ctx.Done()

	s.log.Info().Msg("api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// Stop shuts the server down without waiting for a context.
func (s *Server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
