package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"urgency-service/internal/handler"
	"urgency-service/internal/legacy"
	"urgency-service/internal/middleware"
	"urgency-service/internal/notify"
	"urgency-service/internal/repository"
	"urgency-service/internal/service"
)

// Deps are the components the HTTP layer is built from. Legacy and Notifier
// may be nil.
type Deps struct {
	Urgency  *service.Urgency
	Runs     repository.TrainingRunRepository
	Auth     service.AuthService
	Legacy   *legacy.Predictor
	Notifier notify.Notifier
}

type Server struct {
	router *gin.Engine
	deps   Deps
	logger *zap.Logger
}

func NewServer(deps Deps, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS())

	s := &Server{
		router: router,
		deps:   deps,
		logger: logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	var runs handler.RunLister
	if s.deps.Runs != nil {
		runs = s.deps.Runs
	}
	urgencyHandler := handler.NewUrgencyHandler(s.deps.Urgency, runs, s.deps.Notifier, s.logger)
	legacyHandler := handler.NewLegacyHandler(s.deps.Legacy, s.logger)
	authHandler := handler.NewAuthHandler(s.deps.Auth, s.logger)

	s.router.GET("/health", handler.HealthCheck(s.deps.Urgency, legacyHandler))

	authHandler.RegisterRoutes(s.router)
	legacyHandler.RegisterRoutes(s.router)
	urgencyHandler.RegisterRoutes(s.router, middleware.AuthMiddleware(s.deps.Auth, s.logger))
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
