package model

import "time"

// FollowRequest 待处理的关注请求（A 请求关注 B）。
// 与 Follow(A,B) 互斥：请求被 accept / 自动合并时删除并换成关注边。
type FollowRequest struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	SenderID   string `gorm:"type:varchar(36);index:idx_request_pair,unique;not null"`
	ReceiverID string `gorm:"type:varchar(36);index:idx_request_receiver;not null;index:idx_request_pair,unique"`
	// idx_request_pair = (sender_id, receiver_id)，并发重复请求由它裁决
	CreatedAt time.Time
}

func (FollowRequest) TableName() string { return "follow_requests" }
