package model

import "time"

// Fan 粉丝冗余表（B 的粉丝是 A），由 replicator 从关注边异步冗余，
// 只服务粉丝列表查询，不承载一致性约束
type Fan struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);index:idx_fan_user;index:idx_fan_pair,unique;not null"`
	FanID     string `gorm:"type:varchar(36);not null;index:idx_fan_pair,unique"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Fan) TableName() string { return "fans" }
