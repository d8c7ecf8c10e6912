package server

import (
	"net/http"
	"time"

	"ecotour/internal/auth"
	"ecotour/internal/config"
	"ecotour/internal/metrics"
	"ecotour/internal/mw"
	"ecotour/internal/service"
	"ecotour/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// SetupRouter 统一初始化 Gin 中间件、REST API 以及两个 WebSocket 端点。
func SetupRouter(cfg config.Config, db *gorm.DB, reg *ws.Registry, h *Handler,
	notifSvc *service.NotificationService, chatSvc *service.ChatService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env, cfg.AllowedOrigin))
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/refresh", h.RefreshToken)

	// 需要 Bearer Token 的业务接口。
	authed := api.Group("")
	authed.Use(auth.AuthMiddleware(cfg, db))

	authed.GET("/notifications/unread", h.ListUnreadNotifications)
	authed.PUT("/notifications/:id/read", h.MarkNotificationRead)
	authed.DELETE("/notifications/:id", h.DeleteNotification)
	// 通知的创建入口，评论/点赞等领域事件由上游服务经这里触发
	authed.POST("/notifications", auth.RequireRole(auth.RoleAdmin), h.CreateNotification)

	authed.GET("/chat/users", h.ChattedUsers)
	authed.GET("/chat/history/:userId", h.ChatHistory)
	authed.PUT("/chat/:userId/read", h.MarkConversationRead)

	r.GET("/ws/chat", ws.ServeChat(reg, chatSvc, db, cfg))
	r.GET("/ws/notifications", ws.ServeNotifications(reg, notifSvc, db, cfg))

	return r
}
