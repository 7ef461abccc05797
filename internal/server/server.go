package server

import (
	"net/http"

	"github.com/rizkywidodo/TugasAkhir/internal/classifier"
	"github.com/rizkywidodo/TugasAkhir/internal/config"
	"github.com/rizkywidodo/TugasAkhir/internal/github_client"
	"github.com/rizkywidodo/TugasAkhir/internal/handler"
	"github.com/rizkywidodo/TugasAkhir/internal/middleware"
	"github.com/rizkywidodo/TugasAkhir/internal/repository"
	"github.com/rizkywidodo/TugasAkhir/internal/service"
	"github.com/rizkywidodo/TugasAkhir/internal/telegram_bot"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

type Server struct {
	router   *gin.Engine
	db       *sqlx.DB
	cfg      *config.Config
	engine   *classifier.Engine
	github   *github_client.Client
	notifier *telegram_bot.Notifier
	log      *logrus.Logger
	logger   *zap.Logger
}

func NewServer(db *sqlx.DB, cfg *config.Config, engine *classifier.Engine, github *github_client.Client, notifier *telegram_bot.Notifier, log *logrus.Logger, logger *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router:   router,
		db:       db,
		cfg:      cfg,
		engine:   engine,
		github:   github,
		notifier: notifier,
		log:      log,
		logger:   logger,
	}

	// Setup routes
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	// Repositories
	userRepo := repository.NewUserRepository(s.db, s.log)
	modelRepo := repository.NewModelRepository(s.db)
	historyRepo := repository.NewHistoryRepository(s.db, s.logger)

	// Services
	jwtSecret := []byte(s.cfg.Auth.JWTSecret)
	authService := service.NewAuthService(userRepo, jwtSecret, s.cfg.TokenTTL(), s.logger)
	registryService := service.NewRegistryService(modelRepo, s.engine, s.logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, s.notifier, s.log)
	mlHandler := handler.NewMLHandler(registryService, s.engine, s.github, historyRepo, s.logger)
	historyHandler := handler.NewHistoryHandler(historyRepo, s.log)
	adminHandler := handler.NewAdminHandler(registryService, userRepo, s.notifier, s.logger)

	// Root index and health check
	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "GitHub Issue Classifier API",
			"version": "1.0.0",
			"endpoints": gin.H{
				"auth":    "/api/auth",
				"ml":      "/api/ml",
				"admin":   "/api/admin",
				"history": "/api/history",
			},
		})
	})
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Authentication routes
	authGroup := s.router.Group("/api/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// Authenticated routes
	authRequired := s.router.Group("/api")
	authRequired.Use(middleware.AuthMiddleware(jwtSecret, s.logger))
	{
		ml := authRequired.Group("/ml")
		ml.GET("/available-models", mlHandler.AvailableModels)
		ml.POST("/predict", mlHandler.Predict)
		ml.POST("/save-history", mlHandler.SaveHistory)
		ml.GET("/my-history", mlHandler.MyHistory)

		authRequired.GET("/history", historyHandler.GetHistory)
		authRequired.GET("/history/:id", historyHandler.GetHistoryDetail)
		authRequired.PUT("/history/:id", historyHandler.UpdatePredictions)
		authRequired.PUT("/history/:id/update", historyHandler.UpdatePredictions)
		// "clear" shares the wildcard position with entry ids, so the
		// delete handler dispatches on the literal segment.
		authRequired.DELETE("/history/:id", func(c *gin.Context) {
			if c.Param("id") == "clear" {
				historyHandler.ClearHistory(c)
				return
			}
			historyHandler.DeleteHistoryItem(c)
		})

		admin := authRequired.Group("/admin")
		admin.Use(middleware.AdminRequired(s.logger))
		{
			admin.GET("/models", adminHandler.GetModels)
			admin.POST("/models", adminHandler.AddModel)
			admin.DELETE("/models/*name", adminHandler.DeleteModel)
			admin.GET("/users", adminHandler.GetUsers)
			admin.PUT("/users/:id", adminHandler.UpdateUser)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
		}
	}
}

// Router exposes the configured routes, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Run(addr string) {
	s.log.Infof("Server starting on port %s...", addr)
	if err := s.router.Run(addr); err != nil {
		s.log.Fatalf("Server failed to start: %v", err)
	}
}
