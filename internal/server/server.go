package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/devhance/backend/config"
	"github.com/devhance/backend/internal/api"
	"github.com/devhance/backend/internal/database"
	"github.com/devhance/backend/internal/middleware"
	"github.com/devhance/backend/internal/router"
	"github.com/devhance/backend/internal/service"
)

// Server wires configuration, storage and services into one HTTP
// server.
type Server struct {
	engine      *gin.Engine
	http        *http.Server
	db          *gorm.DB
	redis       *redis.Client
	diagnostics *database.Diagnostics
}

// New builds the full dependency graph. Redis is optional: if it is not
// configured or unreachable the server runs without caching and rate
// limiting.
func New(cfg *config.Config) (*Server, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisHost != "" || cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, continuing without caching and rate limiting")
			redisClient = nil
		}
	}

	s3Cfg, err := config.NewS3Config(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure media storage: %w", err)
	}

	identitySvc, err := service.NewIdentityService(cfg.ClerkJWTKey, cfg.ClerkWebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to configure identity verification: %w", err)
	}

	diagnostics, err := database.NewDiagnostics(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open diagnostics connection: %w", err)
	}

	userSvc := service.NewUserService(db)
	projectSvc := service.NewProjectService(db, redisClient)
	mediaSvc := service.NewMediaService(s3Cfg)

	var limiter *middleware.RateLimiter
	if redisClient != nil {
		limiter = middleware.NewProjectCreationRateLimiter(redisClient)
	}

	projectHandler := api.NewProjectHandler(projectSvc, userSvc, mediaSvc, identitySvc, limiter)
	userHandler := api.NewUserHandler(userSvc, mediaSvc, identitySvc)
	webhookHandler := api.NewWebhookHandler(identitySvc, userSvc)
	healthHandler := api.NewHealthHandler(diagnostics)

	engine := router.SetupRouter(projectHandler, userHandler, webhookHandler, healthHandler, cfg.ClientOrigin)

	return &Server{
		engine:      engine,
		db:          db,
		redis:       redisClient,
		diagnostics: diagnostics,
		http: &http.Server{
			Addr:    fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
			Handler: engine,
		},
	}, nil
}

// Start blocks serving HTTP until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Msg("starting server")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes storage connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	if s.diagnostics != nil {
		if err := s.diagnostics.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close diagnostics connection")
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		return sqlDB.Close()
	}
	return nil
}
