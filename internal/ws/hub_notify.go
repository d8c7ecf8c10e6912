package ws

import (
	"ecotour/internal/config"
	"ecotour/internal/metrics"
	"ecotour/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// pushCatchUp 补推未读通知，只发到这条新连接上，其它标签页早就拿到过了。
func pushCatchUp(client *Client, notifSvc *service.NotificationService) {
	list, err := notifSvc.ListUnread(client.UserID)
	if err != nil {
		log.Error().Err(err).Uint("user_id", client.UserID).Msg("catch-up list unread")
		return
	}
	if len(list) > 0 {
		client.SendEvent(service.EventLoadOldNotifications, list)
	}
}

// ServeNotifications 处理通知通道。客户端在这条通道上没有入站调用，
// 全部变更走 REST API，通道只负责下行推送。
func ServeNotifications(reg *Registry, notifSvc *service.NotificationService, db *gorm.DB, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := authenticate(c, db, cfg)
		if !ok {
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := newClient("notifications", user.ID, conn)
		reg.Register(client)
		metrics.WsConnections.WithLabelValues("notifications").Inc()
		log.Info().Uint("user_id", user.ID).Str("conn_id", client.ID).Msg("notifications connected")

		go client.writePump()

		pushCatchUp(client, notifSvc)

		client.readPump(func([]byte) {
			// 入站帧一律忽略
		}, func() {
			reg.Unregister(user.ID, client.ID)
			client.close()
			metrics.WsConnections.WithLabelValues("notifications").Dec()
			log.Info().Uint("user_id", user.ID).Str("conn_id", client.ID).Msg("notifications disconnected")
		})
	}
}
