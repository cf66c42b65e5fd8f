package service

import "time"

// PublicUser 对外可见的用户身份
type PublicUser struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// PendingRequest 待处理请求 + 发起方公开身份
type PendingRequest struct {
	ID        string     `json:"id"`
	Sender    PublicUser `json:"sender"`
	CreatedAt time.Time  `json:"created_at"`
}
