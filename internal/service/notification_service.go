package service

import (
	"context"
	"time"

	"github.com/d60-Lab/gossip-server/internal/model"
	"github.com/d60-Lab/gossip-server/internal/repository"
)

// NotificationView 通知 + 触发者公开身份
type NotificationView struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	ReferenceID *string    `json:"reference_id"`
	IsRead      bool       `json:"is_read"`
	CreatedAt   time.Time  `json:"created_at"`
	Actor       PublicUser `json:"actor"`
}

type NotificationService interface {
	List(ctx context.Context, userID string) ([]*NotificationView, error)
	// MarkRead 只有 owner 能标记，归属不符按不存在处理
	MarkRead(ctx context.Context, userID, notificationID string) error
}

type notificationService struct {
	notifRepo   repository.NotificationRepository
	userRepo    repository.UserRepository
	requestRepo repository.FollowRequestRepository
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	requestRepo repository.FollowRequestRepository,
) NotificationService {
	return &notificationService{notifRepo: notifRepo, userRepo: userRepo, requestRepo: requestRepo}
}

func (s *notificationService) List(ctx context.Context, userID string) ([]*NotificationView, error) {
	rows, err := s.notifRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*NotificationView{}, nil
	}

	actorIDs := make([]string, 0, len(rows))
	refIDs := make([]string, 0, len(rows))
	for _, n := range rows {
		actorIDs = append(actorIDs, n.ActorID)
		if n.Type == model.NotificationTypeConnectionRequest && n.ReferenceID != nil {
			refIDs = append(refIDs, *n.ReferenceID)
		}
	}

	actors, err := s.userRepo.ListByIDs(ctx, actorIDs)
	if err != nil {
		return nil, err
	}
	actorByID := make(map[string]PublicUser, len(actors))
	for _, u := range actors {
		actorByID[u.ID] = PublicUser{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
	}

	// 写路径保证通知不比请求活得久；这里仍按悬空引用防御，跳过不渲染
	liveRefs, err := s.requestRepo.ExistingIDs(ctx, refIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*NotificationView, 0, len(rows))
	for _, n := range rows {
		if n.Type == model.NotificationTypeConnectionRequest && n.ReferenceID != nil && !liveRefs[*n.ReferenceID] {
			continue
		}
		out = append(out, &NotificationView{
			ID:          n.ID,
			Type:        n.Type,
			ReferenceID: n.ReferenceID,
			IsRead:      n.IsRead,
			CreatedAt:   n.CreatedAt,
			Actor:       actorByID[n.ActorID],
		})
	}
	return out, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	n, err := s.notifRepo.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n == nil || n.UserID != userID {
		return notFound("notification not found")
	}
	return s.notifRepo.MarkRead(ctx, notificationID)
}
