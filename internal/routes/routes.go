package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"worship_management/internal/config"
	"worship_management/internal/handlers"
	"worship_management/internal/middleware"
	"worship_management/internal/repository"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Songs       *handlers.SongHandler
	Adaptations *handlers.AdaptationHandler
	Imports     *handlers.ImportHandler
	Events      *handlers.EventHandler
	Users       *handlers.UserHandler
}

// SetupRoutes builds the router. filesDir, when set, is served at
// cfg.StorageBaseURL for the local storage backend.
func SetupRoutes(cfg *config.Config, log *zap.Logger, h Handlers, userRepo repository.UserRepository, filesDir string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(cors.New(corsConfig(cfg, log)))

	router.Use(func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	})

	if filesDir != "" && strings.HasPrefix(cfg.StorageBaseURL, "/") {
		router.Static(cfg.StorageBaseURL, filesDir)
	}

	jwtAuth := middleware.JWTMiddleware(cfg.JWTSecret, log)
	adminOnly := middleware.AdminMiddleware(userRepo, log)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.GET("/me", jwtAuth, h.Auth.Me)
		}

		protected := api.Group("/")
		protected.Use(jwtAuth)
		{
			songs := protected.Group("/songs")
			{
				songs.GET("", h.Songs.GetAllSongs)
				songs.GET("/import/template", h.Imports.DownloadTemplate)
				songs.GET("/:id", h.Songs.GetSongByID)

				// Singers may manage their own adaptations.
				songs.GET("/:id/adaptations", h.Adaptations.ListAdaptations)
				songs.POST("/:id/adaptations", h.Adaptations.CreateAdaptation)
				songs.PUT("/:id/adaptations/:singerId", h.Adaptations.UpdateAdaptation)
				songs.DELETE("/:id/adaptations/:singerId", h.Adaptations.DeleteAdaptation)
			}

			events := protected.Group("/events")
			{
				events.GET("", h.Events.GetEvents)
				events.GET("/calendar", h.Events.GetCalendar)
				events.GET("/:id", h.Events.GetEvent)
			}

			protected.GET("/users/singers", h.Users.GetSingers)

			admin := protected.Group("/")
			admin.Use(adminOnly)
			{
				admin.POST("/songs", h.Songs.CreateSong)
				admin.POST("/songs/import", h.Imports.ImportSongs)
				admin.PUT("/songs/:id", h.Songs.UpdateSong)
				admin.DELETE("/songs/:id", h.Songs.DeleteSong)
				admin.POST("/songs/:id/files/:kind", h.Songs.UploadFile)
				admin.DELETE("/songs/:id/files/:kind", h.Songs.DeleteFile)

				admin.POST("/events", h.Events.CreateEvent)
				admin.PUT("/events/:id", h.Events.UpdateEvent)
				admin.DELETE("/events/:id", h.Events.DeleteEvent)

				admin.GET("/users", h.Users.GetUsers)
				admin.POST("/users", h.Users.CreateUser)
				admin.PUT("/users/:id", h.Users.UpdateUser)
				admin.DELETE("/users/:id", h.Users.DeleteUser)
			}
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Server is running",
		})
	})

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Worship Management API",
			"version": "1.0.0",
		})
	})

	return router
}

func corsConfig(cfg *config.Config, log *zap.Logger) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// Config.Validate guarantees CORS_ORIGIN in production.
	if cfg.IsProduction() {
		corsCfg.AllowOrigins = []string{cfg.CORSOrigin}
		log.Info("CORS configured for production", zap.String("origin", cfg.CORSOrigin))
		return corsCfg
	}

	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if cfg.CORSOrigin != "" {
		allowedOrigins = append(allowedOrigins, cfg.CORSOrigin)
	}
	corsCfg.AllowOriginFunc = func(origin string) bool {
		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}
		// Phones on the local network during rehearsal.
		return strings.HasPrefix(origin, "http://192.168.") || strings.HasPrefix(origin, "http://10.")
	}
	log.Info("CORS configured for development", zap.Int("origins", len(allowedOrigins)))
	return corsCfg
}
