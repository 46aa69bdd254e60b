package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/rag-search-gateway/internal/conf"
	"github.com/lk2023060901/rag-search-gateway/internal/data"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"github.com/lk2023060901/rag-search-gateway/internal/search"
	"go.uber.org/zap"
)

type HTTPServer struct {
	server  *http.Server
	logger  *logger.Logger
	handler *search.Handler
}

func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	handler *search.Handler,
	d *data.Data,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))

	// Health check with backend connectivity
	router.GET("/health", healthHandler(d))

	// API routes
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		logger:  log,
		handler: handler,
	}
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func healthHandler(d *data.Data) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		services := gin.H{}

		if d != nil && d.DB != nil {
			status := "ok"
			if sqlDB, err := d.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
				status = "unavailable"
			}
			services["postgres"] = status
		}

		if d != nil && d.RedisClient != nil {
			status := "ok"
			if err := d.RedisClient.Ping(ctx); err != nil {
				status = "unavailable"
			}
			services["redis"] = status
		} else {
			services["redis"] = "disabled"
		}

		if d != nil && d.MilvusClient != nil && d.MilvusClient.GetClient() != nil {
			services["milvus"] = "ok"
		} else {
			services["milvus"] = "disabled"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"time":     time.Now().Format(time.RFC3339),
			"services": services,
		})
	}
}

func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
