package model

import "time"

// Session 刷新令牌会话，refresh 时轮换令牌
type Session struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	UserID       string `gorm:"type:varchar(36);index:idx_session_user;not null"`
	RefreshToken string `gorm:"type:varchar(512);uniqueIndex;not null"`
	DeviceInfo   string `gorm:"type:varchar(255)"`
	IPAddress    string `gorm:"type:varchar(64)"`
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

func (Session) TableName() string { return "sessions" }
