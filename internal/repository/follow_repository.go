package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/gossip-server/internal/model"
)

type FollowRepository interface {
	// Create 严格插入；同一有序对重复写入返回 gorm.ErrDuplicatedKey
	Create(ctx context.Context, followerID, followeeID string) error
	// Delete 删除单向边，返回是否确实删到了
	Delete(ctx context.Context, followerID, followeeID string) (bool, error)
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	ListFollowings(ctx context.Context, followerID string, offset, limit int) ([]*model.Follow, error)
	// ListConnected 两个方向的边都存在的用户（mutual 交集）
	ListConnected(ctx context.Context, userID string) ([]*model.User, error)
	// FolloweesAmong / FollowersAmong 批量存在性检查，供搜索页一次性标注关系
	FolloweesAmong(ctx context.Context, followerID string, candidateIDs []string) (map[string]bool, error)
	FollowersAmong(ctx context.Context, followeeID string, candidateIDs []string) (map[string]bool, error)
	// CountBetween 统计一对用户两个方向上的边数（0/1/2）
	CountBetween(ctx context.Context, userA, userB string) (int64, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

func (r *followRepository) Create(ctx context.Context, followerID, followeeID string) error {
	f := &model.Follow{ID: uuid.New().String(), FollowerID: followerID, FolloweeID: followeeID}
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *followRepository) Delete(ctx context.Context, followerID, followeeID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&model.Follow{})
	return res.RowsAffected > 0, res.Error
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *followRepository) ListFollowings(ctx context.Context, followerID string, offset, limit int) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).Where("follower_id = ?", followerID).Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (r *followRepository) ListConnected(ctx context.Context, userID string) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Joins("JOIN follows f_out ON f_out.followee_id = users.id AND f_out.follower_id = ?", userID).
		Joins("JOIN follows f_in ON f_in.follower_id = users.id AND f_in.followee_id = ?", userID).
		Order("users.username ASC").
		Find(&users).Error
	return users, err
}

func (r *followRepository) CountBetween(ctx context.Context, userA, userB string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("(follower_id = ? AND followee_id = ?) OR (follower_id = ? AND followee_id = ?)",
			userA, userB, userB, userA).
		Count(&cnt).Error
	return cnt, err
}

func (r *followRepository) FolloweesAmong(ctx context.Context, followerID string, candidateIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(candidateIDs))
	if len(candidateIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ? AND followee_id IN ?", followerID, candidateIDs).
		Pluck("followee_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *followRepository) FollowersAmong(ctx context.Context, followeeID string, candidateIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(candidateIDs))
	if len(candidateIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("followee_id = ? AND follower_id IN ?", followeeID, candidateIDs).
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
