package model

import "time"

const (
	OtpTypeEmailVerification = "EMAIL_VERIFICATION"
)

// OtpCode 邮箱验证码，用过或过期即失效
type OtpCode struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);index:idx_otp_user;not null"`
	Code      string `gorm:"type:varchar(6);not null"`
	Type      string `gorm:"type:varchar(32);not null"`
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

func (OtpCode) TableName() string { return "otp_codes" }
