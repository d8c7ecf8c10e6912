package service

// 实时通道上的事件名，与前端约定保持一致。
const (
	EventReceiveNotification  = "ReceiveNotification"
	EventLoadOldNotifications = "LoadOldNotifications"
	EventReceiveMessage       = "ReceiveMessage"
	EventError                = "Error"
)

// Dispatcher 把事件推送到目标用户当前打开的全部连接。
// 推送是尽力而为的：用户离线或单条连接发送失败都不会作为错误返回，
// 持久化记录才是交付的最终保证，推送只是降低延迟的优化。
type Dispatcher interface {
	PushToUser(userID uint, event string, payload any)
}
