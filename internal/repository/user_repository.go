package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/gossip-server/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	// Get* 未命中时返回 (nil, nil)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetActiveByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetByIdentifier 按邮箱或用户名查找（登录入口）
	GetByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	// SearchActiveByPrefix 用户名前缀匹配，排除 excludeID，只返回 ACTIVE，按用户名升序
	SearchActiveByPrefix(ctx context.Context, prefix, excludeID string, limit, offset int) ([]*model.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) getOne(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *userRepository) GetActiveByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, "id = ? AND status = ?", id, model.UserStatusActive)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "email = ?", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, "username = ?", strings.ToLower(username))
}

func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	return r.getOne(ctx, "email = ? OR username = ?", identifier, strings.ToLower(identifier))
}

// escapeLike 转义 LIKE 通配符，前缀匹配只认字面量
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func (r *userRepository) SearchActiveByPrefix(ctx context.Context, prefix, excludeID string, limit, offset int) ([]*model.User, error) {
	var users []*model.User
	pattern := escapeLike(strings.ToLower(prefix)) + "%"
	err := r.db.WithContext(ctx).
		Where("username LIKE ? ESCAPE '\\'", pattern).
		Where("id <> ?", excludeID).
		Where("status = ?", model.UserStatusActive).
		Order("username ASC").
		Limit(limit).Offset(offset).
		Find(&users).Error
	return users, err
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []*model.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *userRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("status", status).Error
}
