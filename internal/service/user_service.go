package service

import (
	"context"

	"github.com/d60-Lab/gossip-server/internal/repository"
)

// UserSearchResult 搜索/档案结果行，带 viewer 视角的派生关系
type UserSearchResult struct {
	ID           string             `json:"id"`
	Username     string             `json:"username"`
	DisplayName  string             `json:"display_name"`
	Relationship RelationshipStatus `json:"relationship"`
}

type UserService interface {
	// Search 用户名前缀搜索，排除自己和非 ACTIVE 账号，按用户名升序
	Search(ctx context.Context, viewerID, query string, limit, offset int) ([]*UserSearchResult, error)
	// GetByID 档案查询；自查按惯例返回 not_following；不存在或非 ACTIVE 返回 nil
	GetByID(ctx context.Context, viewerID, targetID string) (*UserSearchResult, error)
}

type userService struct {
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	requestRepo repository.FollowRequestRepository
}

func NewUserService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	requestRepo repository.FollowRequestRepository,
) UserService {
	return &userService{userRepo: userRepo, followRepo: followRepo, requestRepo: requestRepo}
}

func (s *userService) Search(ctx context.Context, viewerID, query string, limit, offset int) ([]*UserSearchResult, error) {
	if query == "" {
		return []*UserSearchResult{}, nil
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.userRepo.SearchActiveByPrefix(ctx, query, viewerID, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return []*UserSearchResult{}, nil
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	// 整页一次性做边检查，替代逐行派生
	snaps, err := loadSnapshots(ctx, s.followRepo, s.requestRepo, viewerID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*UserSearchResult, 0, len(users))
	for _, u := range users {
		out = append(out, &UserSearchResult{
			ID:           u.ID,
			Username:     u.Username,
			DisplayName:  u.DisplayName,
			Relationship: snaps[u.ID].status(),
		})
	}
	return out, nil
}

func (s *userService) GetByID(ctx context.Context, viewerID, targetID string) (*UserSearchResult, error) {
	user, err := s.userRepo.GetActiveByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	relationship := StatusNotFollowing // 自查不派生
	if viewerID != targetID {
		snap, err := loadSnapshot(ctx, s.followRepo, s.requestRepo, viewerID, targetID)
		if err != nil {
			return nil, err
		}
		relationship = snap.status()
	}

	return &UserSearchResult{
		ID:           user.ID,
		Username:     user.Username,
		DisplayName:  user.DisplayName,
		Relationship: relationship,
	}, nil
}
