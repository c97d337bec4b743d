package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Tharoon321/go-events-api/controllers"
	"github.com/Tharoon321/go-events-api/middleware"
)

// Options wires the router's dependencies.
type Options struct {
	Logger        *zap.Logger
	Events        *controllers.EventController
	Authenticator middleware.Authenticator
	CORSOrigins   []string
}

// New builds the gin engine with middleware and the /api route table.
func New(opts Options) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(ginzap.Ginzap(opts.Logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(opts.Logger, true))
	router.Use(middleware.Metrics())
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the Go Events API",
			"routes":  []string{"/api/events", "/api/events/:id", "/health", "/metrics"},
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.Auth(opts.Authenticator)

	api := router.Group("/api")
	{
		events := api.Group("/events")
		{
			events.GET("", opts.Events.ListEvents)
			events.GET("/:id", opts.Events.GetEvent)
			events.POST("", auth, opts.Events.CreateEvent)
			events.PUT("/:id", auth, opts.Events.UpdateEvent)
			events.DELETE("/:id", auth, opts.Events.DeleteEvent)
		}
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.APIKeyHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
