package service

import (
	"context"

	"github.com/d60-Lab/gossip-server/internal/repository"
)

// RelationshipStatus 有序对 (viewer, subject) 的派生关系状态，只算不存
type RelationshipStatus string

const (
	StatusNotFollowing    RelationshipStatus = "not_following"
	StatusRequestSent     RelationshipStatus = "request_sent"
	StatusRequestReceived RelationshipStatus = "request_received"
	StatusFollowing       RelationshipStatus = "following"
	StatusMutual          RelationshipStatus = "mutual"
)

// ConnectionState 档案页使用的三值投影，单向关注一律归入 none
type ConnectionState string

const (
	ConnectionNone      ConnectionState = "none"
	ConnectionRequested ConnectionState = "requested"
	ConnectionIncoming  ConnectionState = "incoming"
	ConnectionConnected ConnectionState = "connected"
)

// relationshipSnapshot 一个有序对的四项边存在性，状态由它一次性推出
type relationshipSnapshot struct {
	viewerFollows   bool // Follow(viewer -> subject)
	subjectFollows  bool // Follow(subject -> viewer)
	requestSent     bool // FollowRequest(viewer -> subject)
	requestReceived bool // FollowRequest(subject -> viewer)
}

// status 按优先级归类，先命中的规则生效。
// 注意：subject 单方面关注 viewer 时同样归入 following，沿用线上口径。
func (s relationshipSnapshot) status() RelationshipStatus {
	switch {
	case s.viewerFollows && s.subjectFollows:
		return StatusMutual
	case s.viewerFollows:
		return StatusFollowing
	case s.subjectFollows:
		return StatusFollowing
	case s.requestSent:
		return StatusRequestSent
	case s.requestReceived:
		return StatusRequestReceived
	default:
		return StatusNotFollowing
	}
}

// ConnectionState 五值状态到三值档案状态的投影
func (st RelationshipStatus) ConnectionState() ConnectionState {
	switch st {
	case StatusMutual:
		return ConnectionConnected
	case StatusRequestSent:
		return ConnectionRequested
	case StatusRequestReceived:
		return ConnectionIncoming
	default:
		// following 与 not_following 都归 none
		return ConnectionNone
	}
}

// loadSnapshot 读一个有序对的四项边存在性
func loadSnapshot(
	ctx context.Context,
	follows repository.FollowRepository,
	requests repository.FollowRequestRepository,
	viewerID, subjectID string,
) (relationshipSnapshot, error) {
	var snap relationshipSnapshot
	var err error

	if snap.viewerFollows, err = follows.Exists(ctx, viewerID, subjectID); err != nil {
		return snap, err
	}
	if snap.subjectFollows, err = follows.Exists(ctx, subjectID, viewerID); err != nil {
		return snap, err
	}
	sent, err := requests.GetByPair(ctx, viewerID, subjectID)
	if err != nil {
		return snap, err
	}
	snap.requestSent = sent != nil
	received, err := requests.GetByPair(ctx, subjectID, viewerID)
	if err != nil {
		return snap, err
	}
	snap.requestReceived = received != nil
	return snap, nil
}

// loadSnapshots 对一批候选用户做批量边检查（每页固定 4 条 IN 查询），
// 逐行结果与逐对派生完全一致
func loadSnapshots(
	ctx context.Context,
	follows repository.FollowRepository,
	requests repository.FollowRequestRepository,
	viewerID string,
	candidateIDs []string,
) (map[string]relationshipSnapshot, error) {
	out := make(map[string]relationshipSnapshot, len(candidateIDs))
	if len(candidateIDs) == 0 {
		return out, nil
	}

	outgoing, err := follows.FolloweesAmong(ctx, viewerID, candidateIDs)
	if err != nil {
		return nil, err
	}
	incoming, err := follows.FollowersAmong(ctx, viewerID, candidateIDs)
	if err != nil {
		return nil, err
	}
	sent, err := requests.SentAmong(ctx, viewerID, candidateIDs)
	if err != nil {
		return nil, err
	}
	received, err := requests.ReceivedAmong(ctx, viewerID, candidateIDs)
	if err != nil {
		return nil, err
	}

	for _, id := range candidateIDs {
		out[id] = relationshipSnapshot{
			viewerFollows:   outgoing[id],
			subjectFollows:  incoming[id],
			requestSent:     sent[id],
			requestReceived: received[id],
		}
	}
	return out, nil
}
