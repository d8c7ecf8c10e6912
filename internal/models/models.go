package models

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"size:16;not null;default:user"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Notification 的已读标记只允许 false -> true 单向翻转。
type Notification struct {
	ID          uint   `gorm:"primaryKey"`
	RecipientID uint   `gorm:"index;not null"`
	Title       string `gorm:"size:256;not null"`
	Message     string `gorm:"type:text;not null"`
	IsRead      bool   `gorm:"index;not null;default:false"`
	CreatedAt   time.Time
}

// Message 是两个用户之间的私信，会话由 {sender, receiver} 无序对推导，不单独建表。
type Message struct {
	ID         uint   `gorm:"primaryKey"`
	SenderID   uint   `gorm:"index;not null"`
	ReceiverID uint   `gorm:"index;not null"`
	Content    string `gorm:"type:text;not null"`
	IsRead     bool   `gorm:"not null;default:false"`
	CreatedAt  time.Time
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	Token     string    `gorm:"uniqueIndex;size:128;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	RevokedAt *time.Time
	CreatedAt time.Time
}
