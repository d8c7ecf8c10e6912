package ws

import (
	"encoding/json"

	"ecotour/internal/metrics"

	"github.com/rs/zerolog/log"
)

// Dispatcher 把事件扇出到目标用户的全部在线连接，实现 service.Dispatcher。
// 交付语义：对每条当前打开的连接至多一次，尽力而为，不排队不重试。
// 调用方总是先持久化再推送，推送失败不影响正确性。
type Dispatcher struct {
	reg *Registry
}

func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

func (d *Dispatcher) PushToUser(userID uint, event string, payload any) {
	clients := d.reg.ClientsFor(userID)
	if len(clients) == 0 {
		// 收件人离线不是错误，持久化记录等着对方下次上线补读
		metrics.PushSkippedOffline.Inc()
		log.Debug().Uint("user_id", userID).Str("event", event).Msg("push skipped: no open connections")
		return
	}
	b, err := json.Marshal(Event{Event: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("push marshal")
		return
	}
	for _, c := range clients {
		if c.enqueue(b) {
			metrics.PushDelivered.WithLabelValues(event).Inc()
			continue
		}
		// 单条连接发不动（刚关闭或消费太慢）不影响其它连接，踢掉了事
		metrics.PushFailed.Inc()
		log.Warn().Uint("user_id", userID).Str("conn_id", c.ID).Str("event", event).Msg("push dropped: slow or closed connection")
		d.reg.Unregister(userID, c.ID)
		c.close()
	}
}
