package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/etsabary/apple-playlist-mixer/internal/api/middleware"
	"github.com/etsabary/apple-playlist-mixer/internal/config"
)

type Server struct {
	cfg    *config.Config
	router *gin.Engine
}

func New(cfg *config.Config) *Server {
	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:    cfg,
		router: gin.New(),
	}
	s.router.Use(middleware.SilentLogger(), gin.Recovery())

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	// CORS Configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}

	s.router.Use(cors.New(corsConfig))
}

func (s *Server) setupRoutes() {
	// Health Check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "playlist-mixer"})
	})

	// API Group
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/playlists", s.GetPlaylists)
		v1.POST("/mix", s.MixPlaylists)

		// Writing files to disk is admin territory
		v1.POST("/mix/export", middleware.RequireAuth([]byte(s.cfg.Server.JWTSecret)), s.ExportMix)
	}
}

// Start runs the server on the configured port
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}
