package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/gossip-server/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, userID, actorID, notifType string, referenceID *string) error
	GetByID(ctx context.Context, id string) (*model.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id string) error
	// DeleteByReference 按引用扇出删除，覆盖所有 owner
	DeleteByReference(ctx context.Context, referenceID string) error
	CountByReference(ctx context.Context, referenceID string) (int64, error)
}

type notificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, userID, actorID, notifType string, referenceID *string) error {
	n := &model.Notification{
		ID:          uuid.New().String(),
		UserID:      userID,
		ActorID:     actorID,
		Type:        notifType,
		ReferenceID: referenceID,
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string) ([]*model.Notification, error) {
	var res []*model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&res).Error
	return res, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

func (r *notificationRepository) DeleteByReference(ctx context.Context, referenceID string) error {
	return r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Delete(&model.Notification{}).Error
}

func (r *notificationRepository) CountByReference(ctx context.Context, referenceID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("reference_id = ?", referenceID).
		Count(&cnt).Error
	return cnt, err
}
