package service

import (
	"strings"
	"time"

	"ecotour/internal/models"
)

// NotificationStore 是通知的持久化边界，由 internal/store 提供 gorm 实现。
type NotificationStore interface {
	Save(n *models.Notification) error
	Get(id uint) (*models.Notification, error)
	ListUnread(userID uint) ([]models.Notification, error)
	MarkRead(id uint) error
	Delete(id uint) error
}

// NotificationService 封装通知相关的业务逻辑，先持久化、后推送。
type NotificationService struct {
	store NotificationStore
	disp  Dispatcher
}

func NewNotificationService(store NotificationStore, disp Dispatcher) *NotificationService {
	return &NotificationService{store: store, disp: disp}
}

// NotificationDTO 是对外输出的通知数据。
type NotificationDTO struct {
	ID          uint      `json:"id"`
	RecipientID uint      `json:"recipient_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

func toNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Title:       n.Title,
		Message:     n.Message,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
}

// Create 持久化一条未读通知，成功后再向收件人的在线连接推送。
// 持久化失败时直接返回错误，不做任何推送；收件人是否真实存在不在这里校验。
func (s *NotificationService) Create(recipientID uint, title, message string) (*NotificationDTO, error) {
	if recipientID == 0 || strings.TrimSpace(message) == "" {
		return nil, ErrInvalidArgument
	}
	n := models.Notification{RecipientID: recipientID, Title: title, Message: message, IsRead: false, CreatedAt: time.Now()}
	if err := s.store.Save(&n); err != nil {
		return nil, err
	}
	dto := toNotificationDTO(n)
	s.disp.PushToUser(recipientID, EventReceiveNotification, dto)
	return &dto, nil
}

// ListUnread 返回用户的全部未读通知，最新的在前。
func (s *NotificationService) ListUnread(userID uint) ([]NotificationDTO, error) {
	list, err := s.store.ListUnread(userID)
	if err != nil {
		return nil, err
	}
	out := make([]NotificationDTO, 0, len(list))
	for _, n := range list {
		out = append(out, toNotificationDTO(n))
	}
	return out, nil
}

// MarkRead 把通知标记为已读。只有收件人本人可以操作；
// 重复标记是幂等的成功而不是错误。
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	n, err := s.store.Get(notificationID)
	if err != nil {
		return err
	}
	if n.RecipientID != userID {
		return ErrForbidden
	}
	if n.IsRead {
		return nil
	}
	return s.store.MarkRead(notificationID)
}

// Delete 永久删除一条通知，同样只允许收件人本人操作。
func (s *NotificationService) Delete(userID, notificationID uint) error {
	n, err := s.store.Get(notificationID)
	if err != nil {
		return err
	}
	if n.RecipientID != userID {
		return ErrForbidden
	}
	return s.store.Delete(notificationID)
}
