package api

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adamscao/certstamp/internal/api/handlers"
	"github.com/adamscao/certstamp/internal/api/middleware"
	"github.com/adamscao/certstamp/internal/config"
	"github.com/adamscao/certstamp/internal/verifier"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	config *config.Config
	http   *http.Server
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, svc *verifier.Service, logger *slog.Logger) *Server {
	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))

	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	certHandler := handlers.NewCertificateHandler(svc, logger)

	// Verification page, the address encoded in QR codes
	router.GET("/certificate/:holderId/:certificateId", certHandler.ShowCertificate)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/certificate/:holderId/:certificateId", certHandler.GetCertificate)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return &Server{
		router: router,
		config: cfg,
		http: &http.Server{
			Addr:    cfg.Server.ListenAddr,
			Handler: router,
		},
	}
}

// Run starts the HTTP server. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Run() error {
	return s.http.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Router returns the underlying Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}
