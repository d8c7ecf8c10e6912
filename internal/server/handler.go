package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"ecotour/internal/auth"
	"ecotour/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Handler 聚合所有 HTTP handler，依赖注入 service 层。
type Handler struct {
	userSvc  *service.UserService
	notifSvc *service.NotificationService
	chatSvc  *service.ChatService
}

func NewHandler(userSvc *service.UserService, notifSvc *service.NotificationService, chatSvc *service.ChatService) *Handler {
	return &Handler{userSvc: userSvc, notifSvc: notifSvc, chatSvc: chatSvc}
}

// Register 处理用户注册请求。
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if len(req.Username) < 2 || len(req.Username) > 64 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
		return
	}
	if len(req.Password) < 4 || len(req.Password) > 128 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password"})
		return
	}
	result, err := h.userSvc.Register(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username taken"})
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("register")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": result.ID, "username": result.Username})
}

// Login 处理用户登录请求。
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	result, err := h.userSvc.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"user":          gin.H{"id": result.User.ID, "username": result.User.Username, "role": result.User.Role},
	})
}

// RefreshToken 处理 token 刷新请求。
func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	result, err := h.userSvc.RefreshTokens(req.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("refresh token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": result.AccessToken, "refresh_token": result.RefreshToken})
}

// CreateNotification 创建并推送一条通知，仅管理员可调用。
func (h *Handler) CreateNotification(c *gin.Context) {
	var req struct {
		RecipientID uint   `json:"recipient_id"`
		Title       string `json:"title"`
		Message     string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	n, err := h.notifSvc.Create(req.RecipientID, req.Title, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrInvalidArgument) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		log.Error().Err(err).Uint("recipient_id", req.RecipientID).Msg("create notification")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create notification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": n})
}

// ListUnreadNotifications 返回当前用户的未读通知，最新的在前。
func (h *Handler) ListUnreadNotifications(c *gin.Context) {
	list, err := h.notifSvc.ListUnread(auth.GetUserID(c))
	if err != nil {
		log.Error().Err(err).Uint("user_id", auth.GetUserID(c)).Msg("list unread notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// MarkNotificationRead 把一条通知标记为已读。
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notifSvc.MarkRead(auth.GetUserID(c), id); err != nil {
		h.notifError(c, err, id, "mark notification read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DeleteNotification 永久删除一条通知。
func (h *Handler) DeleteNotification(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notifSvc.Delete(auth.GetUserID(c), id); err != nil {
		h.notifError(c, err, id, "delete notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) notifError(c *gin.Context, err error, id uint, op string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		log.Error().Err(err).Uint("notification_id", id).Msg(op)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

// ChatHistory 返回当前用户与指定用户之间的全部消息，按时间升序。
func (h *Handler) ChatHistory(c *gin.Context) {
	other, ok := pathID(c, "userId")
	if !ok {
		return
	}
	list, err := h.chatSvc.History(auth.GetUserID(c), other)
	if err != nil {
		log.Error().Err(err).Uint("other_user_id", other).Msg("chat history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

// ChattedUsers 返回与当前用户有过消息往来的用户 ID 列表。
func (h *Handler) ChattedUsers(c *gin.Context) {
	ids, err := h.chatSvc.ChattedUserIDs(auth.GetUserID(c))
	if err != nil {
		log.Error().Err(err).Uint("user_id", auth.GetUserID(c)).Msg("chatted users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_ids": ids})
}

// MarkConversationRead 把指定用户发给当前用户的全部消息置为已读。
func (h *Handler) MarkConversationRead(c *gin.Context) {
	other, ok := pathID(c, "userId")
	if !ok {
		return
	}
	if err := h.chatSvc.MarkConversationRead(auth.GetUserID(c), other); err != nil {
		log.Error().Err(err).Uint("other_user_id", other).Msg("mark conversation read")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func pathID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(v), true
}
