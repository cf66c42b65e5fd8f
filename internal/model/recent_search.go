package model

import "time"

// RecentSearch 最近搜索记录，(user, searched_user) 唯一，重复搜索只刷新时间
type RecentSearch struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	UserID         string `gorm:"type:varchar(36);index:idx_recent_pair,unique;not null"`
	SearchedUserID string `gorm:"type:varchar(36);not null;index:idx_recent_pair,unique"`
	CreatedAt      time.Time
	UpdatedAt      time.Time `gorm:"index:idx_recent_user_updated"`
}

func (RecentSearch) TableName() string { return "recent_searches" }
