package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/gossip-server/internal/model"
	"github.com/d60-Lab/gossip-server/internal/repository"
	"github.com/d60-Lab/gossip-server/pkg/logger"
)

// ActionKind 工作流动作结果的判别标签，调用方按它分支而不是匹配文案
type ActionKind string

const (
	ActionRequestSent       ActionKind = "request_sent"
	ActionMutualEstablished ActionKind = "mutual_established"
	ActionAccepted          ActionKind = "accepted"
	ActionRejected          ActionKind = "rejected"
	ActionCancelled         ActionKind = "cancelled"
	ActionUnfollowed        ActionKind = "unfollowed"
)

// ActionResult 工作流动作的带标签结果
type ActionResult struct {
	Kind    ActionKind `json:"kind"`
	Message string     `json:"message"`
}

// RelationshipService 连接工作流：关注请求生命周期 + 关系读侧
type RelationshipService interface {
	SendRequest(ctx context.Context, senderID, receiverID string) (*ActionResult, error)
	AcceptRequest(ctx context.Context, accepterID, requestID string) (*ActionResult, error)
	RejectRequest(ctx context.Context, rejecterID, requestID string) (*ActionResult, error)
	CancelRequest(ctx context.Context, cancellerID, targetUserID string) (*ActionResult, error)
	Unfollow(ctx context.Context, actorID, targetUserID string) (*ActionResult, error)

	Status(ctx context.Context, viewerID, subjectID string) (RelationshipStatus, error)
	ProfileStatus(ctx context.Context, viewerID, subjectID string) (ConnectionState, error)
	PendingRequests(ctx context.Context, ownerID string) ([]*PendingRequest, error)
	ConnectedUsers(ctx context.Context, ownerID string) ([]*PublicUser, error)
	Followers(ctx context.Context, userID string, page, pageSize int) ([]*PublicUser, error)

	// CanUsersMessage 私信权限的唯一判定入口：双向关注边都在才放行
	CanUsersMessage(ctx context.Context, userAID, userBID string) (bool, error)
	HasMutualFollow(ctx context.Context, userAID, userBID string) (bool, error)
}

type relationshipService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	requestRepo repository.FollowRequestRepository
	notifRepo   repository.NotificationRepository
	fanRepo     repository.FanRepository
	replicator  *FanReplicator
	connCache   *ConnectionCache
}

func NewRelationshipService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	requestRepo repository.FollowRequestRepository,
	notifRepo repository.NotificationRepository,
	fanRepo repository.FanRepository,
	replicator *FanReplicator,
	connCache *ConnectionCache,
) RelationshipService {
	return &relationshipService{
		db:          db,
		userRepo:    userRepo,
		followRepo:  followRepo,
		requestRepo: requestRepo,
		notifRepo:   notifRepo,
		fanRepo:     fanRepo,
		replicator:  replicator,
		connCache:   connCache,
	}
}

// asConflict 把并发写入撞到的唯一键冲突翻译成业务冲突
func asConflict(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflict(msg)
	}
	return err
}

func (s *relationshipService) SendRequest(ctx context.Context, senderID, receiverID string) (*ActionResult, error) {
	if senderID == receiverID {
		return nil, selfReference("cannot send follow request to yourself")
	}

	receiver, err := s.userRepo.GetByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, notFound("user not found")
	}

	// 已在关注中：冲突优先于自动合并判定
	following, err := s.followRepo.Exists(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if following {
		return nil, conflict("you are already following this user")
	}

	existing, err := s.requestRepo.GetByPair(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, conflict("follow request already sent")
	}

	mirror, err := s.requestRepo.GetByPair(ctx, receiverID, senderID)
	if err != nil {
		return nil, err
	}

	if mirror != nil {
		// 自动合并：对方已有反向请求，直接成 mutual，一个事务内完成
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txRequests := repository.NewFollowRequestRepository(tx)
			txFollows := repository.NewFollowRepository(tx)
			txNotifs := repository.NewNotificationRepository(tx)

			deleted, err := txRequests.DeleteByID(ctx, mirror.ID)
			if err != nil {
				return err
			}
			if !deleted {
				// 反向请求已被并发解决，本次变成冲突而不是半套合并
				return conflict("follow request already resolved")
			}
			if err := txFollows.Create(ctx, senderID, receiverID); err != nil {
				return asConflict(err, "you are already following this user")
			}
			if err := txFollows.Create(ctx, receiverID, senderID); err != nil {
				return asConflict(err, "you are already following this user")
			}
			return txNotifs.DeleteByReference(ctx, mirror.ID)
		})
		if err != nil {
			return nil, err
		}

		s.afterFollowCreated(ctx, senderID, receiverID)
		s.afterFollowCreated(ctx, receiverID, senderID)
		logger.Info("mutual follow established",
			zap.String("sender", senderID), zap.String("receiver", receiverID))
		return &ActionResult{Kind: ActionMutualEstablished, Message: "Mutual follow established"}, nil
	}

	// 常规路径：请求与面向接收方的通知同事务落地
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRequests := repository.NewFollowRequestRepository(tx)
		txNotifs := repository.NewNotificationRepository(tx)

		req, err := txRequests.Create(ctx, senderID, receiverID)
		if err != nil {
			return asConflict(err, "follow request already sent")
		}
		refID := req.ID
		return txNotifs.Create(ctx, receiverID, senderID, model.NotificationTypeConnectionRequest, &refID)
	})
	if err != nil {
		return nil, err
	}
	return &ActionResult{Kind: ActionRequestSent, Message: "Follow request sent"}, nil
}

func (s *relationshipService) AcceptRequest(ctx context.Context, accepterID, requestID string) (*ActionResult, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, notFound("follow request not found")
	}
	if req.ReceiverID != accepterID {
		return nil, forbidden("you cannot accept this request")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRequests := repository.NewFollowRequestRepository(tx)
		txFollows := repository.NewFollowRepository(tx)
		txNotifs := repository.NewNotificationRepository(tx)

		deleted, err := txRequests.DeleteByID(ctx, requestID)
		if err != nil {
			return err
		}
		if !deleted {
			// 请求已被并发解决（reject / cancel / 合并）
			return notFound("follow request not found")
		}
		if err := txFollows.Create(ctx, req.SenderID, req.ReceiverID); err != nil {
			return asConflict(err, "you are already following this user")
		}
		return txNotifs.DeleteByReference(ctx, requestID)
	})
	if err != nil {
		return nil, err
	}

	// accept 只建 sender -> receiver 单向边
	s.afterFollowCreated(ctx, req.SenderID, req.ReceiverID)
	return &ActionResult{Kind: ActionAccepted, Message: "Follow request accepted"}, nil
}

func (s *relationshipService) RejectRequest(ctx context.Context, rejecterID, requestID string) (*ActionResult, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, notFound("follow request not found")
	}
	if req.ReceiverID != rejecterID {
		return nil, forbidden("you cannot reject this request")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRequests := repository.NewFollowRequestRepository(tx)
		txNotifs := repository.NewNotificationRepository(tx)

		deleted, err := txRequests.DeleteByID(ctx, requestID)
		if err != nil {
			return err
		}
		if !deleted {
			return notFound("follow request not found")
		}
		return txNotifs.DeleteByReference(ctx, requestID)
	})
	if err != nil {
		return nil, err
	}
	return &ActionResult{Kind: ActionRejected, Message: "Follow request rejected"}, nil
}

// CancelRequest 发送方撤回自己的请求，按有序对定位而非请求 id
func (s *relationshipService) CancelRequest(ctx context.Context, cancellerID, targetUserID string) (*ActionResult, error) {
	req, err := s.requestRepo.GetByPair(ctx, cancellerID, targetUserID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, notFound("follow request not found")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRequests := repository.NewFollowRequestRepository(tx)
		txNotifs := repository.NewNotificationRepository(tx)

		deleted, err := txRequests.DeleteByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return notFound("follow request not found")
		}
		return txNotifs.DeleteByReference(ctx, req.ID)
	})
	if err != nil {
		return nil, err
	}
	return &ActionResult{Kind: ActionCancelled, Message: "Follow request cancelled"}, nil
}

// Unfollow 只删 actor -> target 单向边；mutual 退化为对方视角的 following
func (s *relationshipService) Unfollow(ctx context.Context, actorID, targetUserID string) (*ActionResult, error) {
	if actorID == targetUserID {
		return nil, selfReference("cannot unfollow yourself")
	}

	deleted, err := s.followRepo.Delete(ctx, actorID, targetUserID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, notFound("you are not following this user")
	}

	s.afterFollowDeleted(ctx, actorID, targetUserID)
	return &ActionResult{Kind: ActionUnfollowed, Message: "Unfollowed successfully"}, nil
}

func (s *relationshipService) Status(ctx context.Context, viewerID, subjectID string) (RelationshipStatus, error) {
	if viewerID == subjectID {
		return "", selfReference("cannot check relationship with yourself")
	}
	subject, err := s.userRepo.GetByID(ctx, subjectID)
	if err != nil {
		return "", err
	}
	if subject == nil {
		return "", notFound("user not found")
	}
	snap, err := loadSnapshot(ctx, s.followRepo, s.requestRepo, viewerID, subjectID)
	if err != nil {
		return "", err
	}
	return snap.status(), nil
}

func (s *relationshipService) ProfileStatus(ctx context.Context, viewerID, subjectID string) (ConnectionState, error) {
	st, err := s.Status(ctx, viewerID, subjectID)
	if err != nil {
		return "", err
	}
	return st.ConnectionState(), nil
}

func (s *relationshipService) PendingRequests(ctx context.Context, ownerID string) ([]*PendingRequest, error) {
	requests, err := s.requestRepo.ListByReceiver(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return []*PendingRequest{}, nil
	}

	senderIDs := make([]string, 0, len(requests))
	for _, req := range requests {
		senderIDs = append(senderIDs, req.SenderID)
	}
	senders, err := s.userRepo.ListByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]PublicUser, len(senders))
	for _, u := range senders {
		byID[u.ID] = PublicUser{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
	}

	out := make([]*PendingRequest, 0, len(requests))
	for _, req := range requests {
		out = append(out, &PendingRequest{
			ID:        req.ID,
			Sender:    byID[req.SenderID],
			CreatedAt: req.CreatedAt,
		})
	}
	return out, nil
}

func (s *relationshipService) ConnectedUsers(ctx context.Context, ownerID string) ([]*PublicUser, error) {
	if cached, ok := s.connCache.Get(ctx, ownerID); ok {
		return cached, nil
	}

	users, err := s.followRepo.ListConnected(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]*PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, &PublicUser{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName})
	}
	s.connCache.Set(ctx, ownerID, out)
	return out, nil
}

// Followers 粉丝列表，读冗余表，最终一致
func (s *relationshipService) Followers(ctx context.Context, userID string, page, pageSize int) ([]*PublicUser, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	fans, err := s.fanRepo.ListFans(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	if len(fans) == 0 {
		return []*PublicUser{}, nil
	}

	ids := make([]string, 0, len(fans))
	for _, f := range fans {
		ids = append(ids, f.FanID)
	}
	users, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*PublicUser, len(users))
	for _, u := range users {
		byID[u.ID] = &PublicUser{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
	}
	out := make([]*PublicUser, 0, len(fans))
	for _, f := range fans {
		if u, ok := byID[f.FanID]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *relationshipService) CanUsersMessage(ctx context.Context, userAID, userBID string) (bool, error) {
	aFollowsB, err := s.followRepo.Exists(ctx, userAID, userBID)
	if err != nil {
		return false, err
	}
	if !aFollowsB {
		return false, nil
	}
	return s.followRepo.Exists(ctx, userBID, userAID)
}

func (s *relationshipService) HasMutualFollow(ctx context.Context, userAID, userBID string) (bool, error) {
	cnt, err := s.followRepo.CountBetween(ctx, userAID, userBID)
	if err != nil {
		return false, err
	}
	return cnt == 2, nil
}

// afterFollowCreated 关注边落库后的冗余与缓存维护
func (s *relationshipService) afterFollowCreated(ctx context.Context, followerID, followeeID string) {
	if s.replicator != nil {
		s.replicator.EnqueueAdd(followeeID, followerID)
	}
	s.connCache.Invalidate(ctx, followerID, followeeID)
}

func (s *relationshipService) afterFollowDeleted(ctx context.Context, followerID, followeeID string) {
	if s.replicator != nil {
		s.replicator.EnqueueRemove(followeeID, followerID)
	}
	s.connCache.Invalidate(ctx, followerID, followeeID)
}
