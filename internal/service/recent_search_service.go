package service

import (
	"context"
	"time"

	"github.com/d60-Lab/gossip-server/internal/repository"
)

const maxRecentSearches = 10

// RecentSearchView 最近搜索条目 + 被搜索用户公开身份
type RecentSearchView struct {
	ID           string     `json:"id"`
	SearchedUser PublicUser `json:"searched_user"`
	CreatedAt    time.Time  `json:"created_at"`
}

type RecentSearchService interface {
	// Save 重复保存只刷新时间；超出上限淘汰最旧
	Save(ctx context.Context, userID, searchedUserID string) (*RecentSearchView, error)
	List(ctx context.Context, userID string) ([]*RecentSearchView, error)
	// Delete 幂等，不存在也算成功
	Delete(ctx context.Context, userID, searchedUserID string) error
}

type recentSearchService struct {
	recentRepo repository.RecentSearchRepository
	userRepo   repository.UserRepository
}

func NewRecentSearchService(
	recentRepo repository.RecentSearchRepository,
	userRepo repository.UserRepository,
) RecentSearchService {
	return &recentSearchService{recentRepo: recentRepo, userRepo: userRepo}
}

func (s *recentSearchService) Save(ctx context.Context, userID, searchedUserID string) (*RecentSearchView, error) {
	if userID == searchedUserID {
		return nil, selfReference("cannot add yourself to recent searches")
	}
	target, err := s.userRepo.GetActiveByID(ctx, searchedUserID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, notFound("user not found")
	}

	rs, err := s.recentRepo.Upsert(ctx, userID, searchedUserID)
	if err != nil {
		return nil, err
	}
	if err := s.recentRepo.TrimToLimit(ctx, userID, maxRecentSearches); err != nil {
		return nil, err
	}

	return &RecentSearchView{
		ID:           rs.ID,
		SearchedUser: PublicUser{ID: target.ID, Username: target.Username, DisplayName: target.DisplayName},
		CreatedAt:    rs.CreatedAt,
	}, nil
}

func (s *recentSearchService) List(ctx context.Context, userID string) ([]*RecentSearchView, error) {
	rows, err := s.recentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*RecentSearchView{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, rs := range rows {
		ids = append(ids, rs.SearchedUserID)
	}
	users, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]PublicUser, len(users))
	for _, u := range users {
		byID[u.ID] = PublicUser{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
	}

	out := make([]*RecentSearchView, 0, len(rows))
	for _, rs := range rows {
		u, ok := byID[rs.SearchedUserID]
		if !ok {
			continue
		}
		out = append(out, &RecentSearchView{ID: rs.ID, SearchedUser: u, CreatedAt: rs.CreatedAt})
	}
	return out, nil
}

func (s *recentSearchService) Delete(ctx context.Context, userID, searchedUserID string) error {
	return s.recentRepo.DeleteByPair(ctx, userID, searchedUserID)
}
