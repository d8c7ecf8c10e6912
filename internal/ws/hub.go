package ws

import (
	"net/http"

	"ecotour/internal/auth"
	"ecotour/internal/config"
	"ecotour/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ErrorPayload 是推回给调用方自己连接的错误事件内容。
type ErrorPayload struct {
	Reason string `json:"reason"`
}

// authenticate 在升级前完成认证，认证失败直接以 401 拒绝，连接不会进入登记状态。
func authenticate(c *gin.Context, db *gorm.DB, cfg config.Config) (*models.User, bool) {
	user, err := auth.Authenticate(db, cfg.JWTSecret, auth.TokenFromRequest(c.Request))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return user, true
}
