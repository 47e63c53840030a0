package handlers

import (
	"net/http"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/metrics"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/services"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/utils"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/validator"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
	proxyHandler   *ProxyHandler
	wsHandler      *WSHandler
	auth           gin.HandlerFunc
}

type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	cfg RouterConfig,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(serviceManager.Session(), serviceManager.Export(), validator, logger),
		proxyHandler:   NewProxyHandler(serviceManager.Proxy(), validator, logger),
		wsHandler:      NewWSHandler(serviceManager.Session(), serviceManager.Relay(), cfg.AllowedOrigins, logger),
		auth:           AuthMiddleware(cfg.JWTSecret, serviceManager.Identity(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", metrics.Handler())

	// API v1 routes
	v1 := router.Group("/api/v1", hm.auth)
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("", hm.sessionHandler.ListSessions)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.PUT("/:id/answers", hm.sessionHandler.UpdateAnswers)
			sessions.POST("/:id/navigate", hm.sessionHandler.Navigate)
			sessions.POST("/:id/switch-mock", hm.sessionHandler.SwitchMock)
			sessions.POST("/:id/draft", hm.sessionHandler.SaveDraft)
			sessions.POST("/:id/submit", hm.sessionHandler.Submit)
			sessions.GET("/:id/export", hm.sessionHandler.ExportAnswers)
		}

		// LMS pass-through
		v1.GET("/groups/:id/leaderboard", hm.proxyHandler.Leaderboard)
		v1.GET("/reviews", hm.proxyHandler.Reviews)
		v1.POST("/uploads/:kind", hm.proxyHandler.Upload)

		ws := v1.Group("/ws")
		{
			ws.GET("/sessions/:id/status", hm.wsHandler.ExamStatus)
			ws.GET("/chat/:room", hm.wsHandler.Chat)
		}
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "exam-session-gateway",
	})
}
