package model

import (
	"time"
)

// Follow 关注边（A 关注 B），只由连接工作流在 accept / 自动合并时写入
type Follow struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	FollowerID string `gorm:"type:varchar(36);index:idx_follow_follower;index:idx_follow_pair,unique;not null"`
	FolloweeID string `gorm:"type:varchar(36);index:idx_follow_followee;not null;index:idx_follow_pair,unique"`
	// 复合唯一键，同一有序对至多一条边
	// idx_follow_pair = (follower_id, followee_id)
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Follow) TableName() string { return "follows" }
