package ws

import (
	"encoding/json"
	"errors"

	"ecotour/internal/config"
	"ecotour/internal/metrics"
	"ecotour/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// inboundMessage 是聊天通道上客户端发来的唯一调用。
// 发送方身份永远取自连接本身，不信任载荷里的任何字段。
type inboundMessage struct {
	ToUserID uint   `json:"to_user_id"`
	Content  string `json:"content"`
}

// ServeChat 处理聊天通道：认证 -> 升级 -> 登记 -> 转发 SendMessage 调用。
func ServeChat(reg *Registry, chatSvc *service.ChatService, db *gorm.DB, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := authenticate(c, db, cfg)
		if !ok {
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := newClient("chat", user.ID, conn)
		reg.Register(client)
		metrics.WsConnections.WithLabelValues("chat").Inc()
		log.Info().Uint("user_id", user.ID).Str("conn_id", client.ID).Msg("chat connected")

		go client.writePump()
		client.readPump(func(data []byte) {
			var in inboundMessage
			if err := json.Unmarshal(data, &in); err != nil {
				client.SendEvent(service.EventError, ErrorPayload{Reason: "invalid payload"})
				return
			}
			if _, err := chatSvc.Send(user.ID, in.ToUserID, in.Content); err != nil {
				// 错误只推回调用方自己的连接，绝不因此断开 socket
				reason := "failed to send message"
				if errors.Is(err, service.ErrInvalidArgument) {
					reason = "invalid message"
				}
				log.Warn().Err(err).Uint("user_id", user.ID).Uint("to_user_id", in.ToUserID).Msg("chat send")
				client.SendEvent(service.EventError, ErrorPayload{Reason: reason})
			}
		}, func() {
			reg.Unregister(user.ID, client.ID)
			client.close()
			metrics.WsConnections.WithLabelValues("chat").Dec()
			log.Info().Uint("user_id", user.ID).Str("conn_id", client.ID).Msg("chat disconnected")
		})
	}
}
