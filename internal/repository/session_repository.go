package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/gossip-server/internal/model"
)

type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	// GetByRefreshToken 未命中返回 (nil, nil)
	GetByRefreshToken(ctx context.Context, token string) (*model.Session, error)
	// Rotate 换上新的刷新令牌并顺延过期时间
	Rotate(ctx context.Context, id, newToken string, expiresAt time.Time) error
	DeleteByRefreshToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepository{db: db} }

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetByRefreshToken(ctx context.Context, token string) (*model.Session, error) {
	var s model.Session
	err := r.db.WithContext(ctx).Where("refresh_token = ?", token).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepository) Rotate(ctx context.Context, id, newToken string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"refresh_token": newToken, "expires_at": expiresAt}).Error
}

func (r *sessionRepository) DeleteByRefreshToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("refresh_token = ?", token).Delete(&model.Session{}).Error
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&model.Session{})
	return res.RowsAffected, res.Error
}
