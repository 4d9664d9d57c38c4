package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChatMessage 代表一条会话消息，是聊天历史的持久化形式。
// 同一个 (UserID, SessionID) 下的消息按 Timestamp 升序构成一次会话。
type ChatMessage struct {
	gorm.Model

	UserID    uint   `gorm:"index:idx_user_session;not null"`
	SessionID string `gorm:"index:idx_user_session;size:64;not null"`

	// Role 为 "user" 或 "assistant"。
	Role    string `gorm:"type:varchar(16);not null"`
	Content string `gorm:"type:text;not null"`

	// Timestamp 是消息产生的业务时间，与 gorm.Model 的 CreatedAt 分开，
	// 以便导入历史数据时保留原始时间。
	Timestamp time.Time `gorm:"index;not null"`

	// Background 是发送该消息时用户背景档案的快照，仅用户消息填写。
	Background datatypes.JSON
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
