package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/gossip-server/internal/model"
)

type FollowRequestRepository interface {
	// Create 严格插入；同一有序对重复请求返回 gorm.ErrDuplicatedKey
	Create(ctx context.Context, senderID, receiverID string) (*model.FollowRequest, error)
	// GetByID / GetByPair 未命中时返回 (nil, nil)
	GetByID(ctx context.Context, id string) (*model.FollowRequest, error)
	GetByPair(ctx context.Context, senderID, receiverID string) (*model.FollowRequest, error)
	// DeleteByID 返回是否确实删到了；并发解决同一请求时只有一方为 true
	DeleteByID(ctx context.Context, id string) (bool, error)
	ListByReceiver(ctx context.Context, receiverID string) ([]*model.FollowRequest, error)
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]*model.FollowRequest, error)
	// SentAmong / ReceivedAmong 批量存在性检查，供搜索页标注关系
	SentAmong(ctx context.Context, senderID string, candidateIDs []string) (map[string]bool, error)
	ReceivedAmong(ctx context.Context, receiverID string, candidateIDs []string) (map[string]bool, error)
	// ExistingIDs 给定请求 id 集合中仍然存在的那部分
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
}

type followRequestRepository struct {
	db *gorm.DB
}

func NewFollowRequestRepository(db *gorm.DB) FollowRequestRepository {
	return &followRequestRepository{db: db}
}

func (r *followRequestRepository) Create(ctx context.Context, senderID, receiverID string) (*model.FollowRequest, error) {
	req := &model.FollowRequest{ID: uuid.New().String(), SenderID: senderID, ReceiverID: receiverID}
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

func (r *followRequestRepository) GetByID(ctx context.Context, id string) (*model.FollowRequest, error) {
	var req model.FollowRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *followRequestRepository) GetByPair(ctx context.Context, senderID, receiverID string) (*model.FollowRequest, error) {
	var req model.FollowRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *followRequestRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.FollowRequest{})
	return res.RowsAffected > 0, res.Error
}

func (r *followRequestRepository) ListByReceiver(ctx context.Context, receiverID string) ([]*model.FollowRequest, error) {
	var res []*model.FollowRequest
	err := r.db.WithContext(ctx).
		Where("receiver_id = ?", receiverID).
		Order("created_at DESC").
		Find(&res).Error
	return res, err
}

func (r *followRequestRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*model.FollowRequest, error) {
	var res []*model.FollowRequest
	err := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&res).Error
	return res, err
}

func (r *followRequestRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var found []string
	err := r.db.WithContext(ctx).
		Model(&model.FollowRequest{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

func (r *followRequestRepository) SentAmong(ctx context.Context, senderID string, candidateIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(candidateIDs))
	if len(candidateIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.FollowRequest{}).
		Where("sender_id = ? AND receiver_id IN ?", senderID, candidateIDs).
		Pluck("receiver_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *followRequestRepository) ReceivedAmong(ctx context.Context, receiverID string, candidateIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(candidateIDs))
	if len(candidateIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.FollowRequest{}).
		Where("receiver_id = ? AND sender_id IN ?", receiverID, candidateIDs).
		Pluck("sender_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
