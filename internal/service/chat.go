package service

import (
	"strings"
	"time"

	"ecotour/internal/metrics"
	"ecotour/internal/models"
)

// MessageStore 是私信的持久化边界，由 internal/store 提供 gorm 实现。
type MessageStore interface {
	Save(m *models.Message) error
	Conversation(userA, userB uint) ([]models.Message, error)
	DistinctCounterparties(userID uint) ([]uint, error)
	MarkConversationRead(receiverID, senderID uint) error
}

// ChatService 封装一对一私信：先落库，再向收发双方的在线连接推送。
type ChatService struct {
	store MessageStore
	disp  Dispatcher
}

func NewChatService(store MessageStore, disp Dispatcher) *ChatService {
	return &ChatService{store: store, disp: disp}
}

// MessageDTO 是对外输出的私信数据。
type MessageDTO struct {
	ID         uint      `json:"id"`
	SenderID   uint      `json:"sender_id"`
	ReceiverID uint      `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

func toMessageDTO(m models.Message) MessageDTO {
	return MessageDTO{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
}

// Send 校验并持久化一条私信，成功后推给接收方，同时回推给发送方，
// 发送方的其它标签页也能看到自己刚发出的消息。
func (s *ChatService) Send(senderID, receiverID uint, content string) (*MessageDTO, error) {
	if senderID == 0 || receiverID == 0 || senderID == receiverID || strings.TrimSpace(content) == "" {
		return nil, ErrInvalidArgument
	}
	m := models.Message{SenderID: senderID, ReceiverID: receiverID, Content: content, IsRead: false, CreatedAt: time.Now()}
	if err := s.store.Save(&m); err != nil {
		return nil, err
	}
	metrics.ChatMessagesTotal.Inc()
	dto := toMessageDTO(m)
	s.disp.PushToUser(receiverID, EventReceiveMessage, dto)
	s.disp.PushToUser(senderID, EventReceiveMessage, dto)
	return &dto, nil
}

// History 返回两个用户之间双向的全部消息，按时间升序（会话阅读顺序）。
// 参数顺序不影响结果。
func (s *ChatService) History(userAID, userBID uint) ([]MessageDTO, error) {
	list, err := s.store.Conversation(userAID, userBID)
	if err != nil {
		return nil, err
	}
	out := make([]MessageDTO, 0, len(list))
	for _, m := range list {
		out = append(out, toMessageDTO(m))
	}
	return out, nil
}

// ChattedUserIDs 返回与指定用户有过往来消息的全部用户 ID，用于会话列表。
func (s *ChatService) ChattedUserIDs(userID uint) ([]uint, error) {
	return s.store.DistinctCounterparties(userID)
}

// MarkConversationRead 把 otherUserID 发给当前用户的全部未读消息置为已读。
func (s *ChatService) MarkConversationRead(currentUserID, otherUserID uint) error {
	return s.store.MarkConversationRead(currentUserID, otherUserID)
}
