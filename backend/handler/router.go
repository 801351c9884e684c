package handler

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promociones-residenciales/reservas/backend/config"
	"github.com/promociones-residenciales/reservas/backend/middleware"
	"github.com/promociones-residenciales/reservas/backend/service"
)

// RouterOptions wires the HTTP surface to its services.
type RouterOptions struct {
	Config    *config.Config
	Contracts *service.ContractService
	// FilesDir is served under service.FilesRoute when set (local blob storage).
	FilesDir string
}

// NewRouter builds the gin engine with the middleware chain and every API route.
func NewRouter(opts RouterOptions) *gin.Engine {
	cfg := opts.Config

	router := gin.New() // Use New() instead of Default() to avoid default middleware

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())
	router.Use(middleware.CacheControl(service.FilesRoute))
	router.Use(middleware.RateLimitFromConfig(&cfg.RateLimit))

	if opts.FilesDir != "" {
		router.Static(service.FilesRoute, opts.FilesDir)
	}
	if dir := cfg.Server.StaticDir; dir != "" {
		router.Static("/static", dir)
		router.StaticFile("/", filepath.Join(dir, "index.html"))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	authHandler := NewAuthHandler(cfg)
	contractHandler := NewContractHandler(opts.Contracts)
	reservationHandler := NewReservationHandler(opts.Contracts)

	// Public routes: the buyer downloads and signs without an account
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)

		public := api.Group("/reservations/:id", middleware.ReservationScope())
		public.GET("/contract", contractHandler.Download)
		public.POST("/signature", contractHandler.Sign)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		reservations := protected.Group("/reservations/:id", middleware.ReservationScope())
		reservations.GET("", reservationHandler.Get)
		reservations.GET("/audit", reservationHandler.Audit)
		reservations.POST("/contract/template", contractHandler.PublishTemplate)
	}

	return router
}
