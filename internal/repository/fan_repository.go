package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/gossip-server/internal/model"
)

// FanRepository 粉丝冗余表的读写。写入是幂等的：冗余链路允许重放。
type FanRepository interface {
	Create(ctx context.Context, userID, fanID string) error
	Delete(ctx context.Context, userID, fanID string) error
	ListFans(ctx context.Context, userID string, offset, limit int) ([]*model.Fan, error)
}

type fanRepository struct{ db *gorm.DB }

func NewFanRepository(db *gorm.DB) FanRepository { return &fanRepository{db: db} }

func (r *fanRepository) Create(ctx context.Context, userID, fanID string) error {
	f := &model.Fan{ID: uuid.New().String(), UserID: userID, FanID: fanID}
	// 幂等：重复冗余不报错
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f).Error
}

func (r *fanRepository) Delete(ctx context.Context, userID, fanID string) error {
	return r.db.WithContext(ctx).Where("user_id = ? AND fan_id = ?", userID, fanID).Delete(&model.Fan{}).Error
}

func (r *fanRepository) ListFans(ctx context.Context, userID string, offset, limit int) ([]*model.Fan, error) {
	var res []*model.Fan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}
