package model

import "time"

// 账号状态
const (
	UserStatusPendingVerification = "PENDING_VERIFICATION"
	UserStatusActive              = "ACTIVE"
	UserStatusSuspended           = "SUSPENDED"
)

// User 用户（username 全小写唯一）
type User struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Username     string `gorm:"type:varchar(32);uniqueIndex;not null"`
	DisplayName  string `gorm:"type:varchar(64);not null"`
	PasswordHash string `gorm:"type:varchar(128);not null"`
	Status       string `gorm:"type:varchar(32);index;not null;default:'PENDING_VERIFICATION'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string { return "users" }

// IsActive 只有 ACTIVE 用户参与关系图
func (u *User) IsActive() bool { return u.Status == UserStatusActive }
