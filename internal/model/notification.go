package model

import "time"

// 通知类型
const (
	NotificationTypeConnectionRequest = "CONNECTION_REQUEST"
)

// Notification 面向 owner 的通知流水。
// ReferenceID 指向触发它的 FollowRequest，请求被解决时按引用扇出删除，
// 通知不允许比它引用的请求活得更久。
type Notification struct {
	ID          string  `gorm:"primaryKey;type:varchar(36)"`
	UserID      string  `gorm:"type:varchar(36);index:idx_notification_user;not null"`
	ActorID     string  `gorm:"type:varchar(36);not null"`
	Type        string  `gorm:"type:varchar(32);not null"`
	ReferenceID *string `gorm:"type:varchar(36);index:idx_notification_reference"`
	IsRead      bool    `gorm:"not null;default:false"`
	CreatedAt   time.Time
}

func (Notification) TableName() string { return "notifications" }
