package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/gossip-server/internal/model"
)

type OtpRepository interface {
	Create(ctx context.Context, userID, code, otpType string, expiresAt time.Time) error
	// FindValid 未用过且未过期的验证码，未命中返回 (nil, nil)
	FindValid(ctx context.Context, userID, code, otpType string, now time.Time) (*model.OtpCode, error)
	MarkUsed(ctx context.Context, id string, usedAt time.Time) error
	// InvalidateActive 重发前作废该用户所有未用验证码
	InvalidateActive(ctx context.Context, userID, otpType string, usedAt time.Time) error
}

type otpRepository struct{ db *gorm.DB }

func NewOtpRepository(db *gorm.DB) OtpRepository { return &otpRepository{db: db} }

func (r *otpRepository) Create(ctx context.Context, userID, code, otpType string, expiresAt time.Time) error {
	o := &model.OtpCode{
		ID:        uuid.New().String(),
		UserID:    userID,
		Code:      code,
		Type:      otpType,
		ExpiresAt: expiresAt,
	}
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *otpRepository) FindValid(ctx context.Context, userID, code, otpType string, now time.Time) (*model.OtpCode, error) {
	var o model.OtpCode
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND code = ? AND type = ? AND used_at IS NULL AND expires_at > ?",
			userID, code, otpType, now).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *otpRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.OtpCode{}).
		Where("id = ?", id).
		Update("used_at", usedAt).Error
}

func (r *otpRepository) InvalidateActive(ctx context.Context, userID, otpType string, usedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.OtpCode{}).
		Where("user_id = ? AND type = ? AND used_at IS NULL", userID, otpType).
		Update("used_at", usedAt).Error
}
