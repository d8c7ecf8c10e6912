package store

import (
	"errors"

	"ecotour/internal/models"
	"ecotour/internal/service"

	"gorm.io/gorm"
)

// Notifications 是 service.NotificationStore 的 gorm 实现。
type Notifications struct {
	db *gorm.DB
}

func NewNotifications(db *gorm.DB) *Notifications {
	return &Notifications{db: db}
}

func (s *Notifications) Save(n *models.Notification) error {
	return s.db.Create(n).Error
}

func (s *Notifications) Get(id uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// ListUnread 返回未读通知，最新的在前。
func (s *Notifications) ListUnread(userID uint) ([]models.Notification, error) {
	var list []models.Notification
	err := s.db.Where("recipient_id = ? AND is_read = ?", userID, false).
		Order("created_at desc, id desc").Find(&list).Error
	return list, err
}

func (s *Notifications) MarkRead(id uint) error {
	res := s.db.Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (s *Notifications) Delete(id uint) error {
	res := s.db.Delete(&models.Notification{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return service.ErrNotFound
	}
	return nil
}

// Messages 是 service.MessageStore 的 gorm 实现。
type Messages struct {
	db *gorm.DB
}

func NewMessages(db *gorm.DB) *Messages {
	return &Messages{db: db}
}

func (s *Messages) Save(m *models.Message) error {
	return s.db.Create(m).Error
}

// Conversation 返回两个用户之间双向的全部消息，按时间升序。
func (s *Messages) Conversation(userA, userB uint) ([]models.Message, error) {
	var list []models.Message
	err := s.db.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		userA, userB, userB, userA).
		Order("created_at asc, id asc").Find(&list).Error
	return list, err
}

// DistinctCounterparties 返回与指定用户有过消息往来的全部用户 ID。
func (s *Messages) DistinctCounterparties(userID uint) ([]uint, error) {
	var ids []uint
	err := s.db.Raw(
		`SELECT DISTINCT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS uid
		 FROM messages WHERE sender_id = ? OR receiver_id = ?`,
		userID, userID, userID).Scan(&ids).Error
	return ids, err
}

func (s *Messages) MarkConversationRead(receiverID, senderID uint) error {
	return s.db.Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", receiverID, senderID, false).
		Update("is_read", true).Error
}
