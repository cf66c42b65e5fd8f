package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/gossip-server/internal/model"
)

type RecentSearchRepository interface {
	// Upsert 重复搜索只刷新 updated_at
	Upsert(ctx context.Context, userID, searchedUserID string) (*model.RecentSearch, error)
	ListByUser(ctx context.Context, userID string) ([]*model.RecentSearch, error)
	// TrimToLimit 超过 max 条时淘汰最旧的记录
	TrimToLimit(ctx context.Context, userID string, max int) error
	DeleteByPair(ctx context.Context, userID, searchedUserID string) error
}

type recentSearchRepository struct{ db *gorm.DB }

func NewRecentSearchRepository(db *gorm.DB) RecentSearchRepository {
	return &recentSearchRepository{db: db}
}

func (r *recentSearchRepository) Upsert(ctx context.Context, userID, searchedUserID string) (*model.RecentSearch, error) {
	rs := &model.RecentSearch{
		ID:             uuid.New().String(),
		UserID:         userID,
		SearchedUserID: searchedUserID,
		UpdatedAt:      time.Now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "searched_user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": rs.UpdatedAt}),
	}).Create(rs).Error
	if err != nil {
		return nil, err
	}
	// 冲突分支时 rs.ID 不是落库的那条，按 pair 读回
	var stored model.RecentSearch
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND searched_user_id = ?", userID, searchedUserID).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *recentSearchRepository) ListByUser(ctx context.Context, userID string) ([]*model.RecentSearch, error) {
	var res []*model.RecentSearch
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&res).Error
	return res, err
}

func (r *recentSearchRepository) TrimToLimit(ctx context.Context, userID string, max int) error {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.RecentSearch{}).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Pluck("id", &ids).Error
	if err != nil || len(ids) <= max {
		return err
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids[max:]).Delete(&model.RecentSearch{}).Error
}

func (r *recentSearchRepository) DeleteByPair(ctx context.Context, userID, searchedUserID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND searched_user_id = ?", userID, searchedUserID).
		Delete(&model.RecentSearch{}).Error
}
