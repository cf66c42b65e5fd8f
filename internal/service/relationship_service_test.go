package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/gossip-server/internal/model"
	"github.com/d60-Lab/gossip-server/internal/repository"
)

func TestSendRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending request and notification", func(t *testing.T) {
		f := newRelFixture(t, nil, nil)
		alice := seedActiveUser(t, f.db, "alice")
		bob := seedActiveUser(t, f.db, "bob")

		res, err := f.svc.SendRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.Equal(t, ActionRequestSent, res.Kind)

		req, err := f.requests.GetByPair(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.NotNil(t, req)

		cnt, err := f.notifs.CountByReference(ctx, req.ID)
		require.NoError(t, err)
		require.EqualValues(t, 1, cnt)

		notifs, err := f.notifs.ListByUser(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, notifs, 1)
		require.Equal(t, model.NotificationTypeConnectionRequest, notifs[0].Type)
		require.Equal(t, alice.ID, notifs[0].ActorID)

		st, err := f.svc.Status(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.Equal(t, StatusRequestSent, st)

		st, err = f.svc.Status(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		require.Equal(t, StatusRequestReceived, st)

		cs, err := f.svc.ProfileStatus(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.Equal(t, ConnectionRequested, cs)

		cs, err = f.svc.ProfileStatus(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		require.Equal(t, ConnectionIncoming, cs)
	})

	t.Run("self reference rejected", func(t *testing.T) {
		f := newRelFixture(t, nil, nil)
		alice := seedActiveUser(t, f.db, "alice")

		_, err := f.svc.SendRequest(ctx, alice.ID, alice.ID)
		requireKind(t, err, KindSelfReference)
	})

	t.Run("unknown receiver", func(t *testing.T) {
		f := newRelFixture(t, nil, nil)
		alice := seedActiveUser(t, f.db, "alice")

		_, err := f.svc.SendRequest(ctx, alice.ID, "no-such-user")
		requireKind(t, err, KindNotFound)
	})

	t.Run("duplicate request conflicts", func(t *testing.T) {
		f := newRelFixture(t, nil, nil)
		alice := seedActiveUser(t, f.db, "alice")
		bob := seedActiveUser(t, f.db, "bob")

		_, err := f.svc.SendRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		_, err = f.svc.SendRequest(ctx, alice.ID, bob.ID)
		requireKind(t, err, KindConflict)
	})

	t.Run("already following conflicts", func(t *testing.T) {
		f := newRelFixture(t, nil, nil)
		alice := seedActiveUser(t, f.db, "alice")
		bob := seedActiveUser(t, f.db, "bob")
		mustAccept(t, f, alice.ID, bob.ID)

		_, err := f.svc.SendRequest(ctx, alice.ID, bob.ID)
		requireKind(t, err, KindConflict)
	})
}

// mustAccept 建好 sender -> receiver 的单向关注边
func mustAccept(t *testing.T, f *relFixture, senderID, receiverID string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.SendRequest(ctx, senderID, receiverID)
	require.NoError(t, err)
	req, err := f.requests.GetByPair(ctx, senderID, receiverID)
	require.NoError(t, err)
	require.NotNil(t, req)
	res, err := f.svc.AcceptRequest(ctx, receiverID, req.ID)
	require.NoError(t, err)
	require.Equal(t, ActionAccepted, res.Kind)
}

func TestSendRequestAutoMerge(t *testing.T) {
	ctx := context.Background()
	f := newRelFixture(t, nil, nil)
	alice := seedActiveUser(t, f.db, "alice")
	bob := seedActiveUser(t, f.db, "bob")

	_, err := f.svc.SendRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	mirror, err := f.requests.GetByPair(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, mirror)

	res, err := f.svc.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, ActionMutualEstablished, res.Kind)

	// 请求全部消费掉
	var reqCount int64
	require.NoError(t, f.db.Model(&model.FollowRequest{}).Count(&reqCount).Error)
	require.EqualValues(t, 0, reqCount)

	// 两个方向的关注边都在
	for _, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		exists, err := f.follows.Exists(ctx, pair[0], pair[1])
		require.NoError(t, err)
		require.True(t, exists)
	}

	// 通知随请求一起消亡
	cnt, err := f.notifs.CountByReference(ctx, mirror.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, cnt)

	st, err := f.svc.Status(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, StatusMutual, st)

	cs, err := f.svc.ProfileStatus(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, ConnectionConnected, cs)

	conns, err := f.svc.ConnectedUsers(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	require.Equal(t, bob.ID, conns[0].ID)
}

func TestAcceptRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("creates one-way follow only", func(t *testing.T) {
		f := newRelFixture(t, nil, nil)
		alice := seedActiveUser(t, f.db, "alice")
		bob := seedActiveUser(t, f.db, "bob")

		_, err := f.svc.SendRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		req, err := f.requests.GetByPair(ctx, alice.ID, bob.ID)
		require.NoError(t, err)

		res, err := f.svc.AcceptRequest(ctx, bob.ID, req.ID)
		require.NoError(t, err)
		require.Equal(t, ActionAccepted, res.Kind)

		forward, err := f.follows.Exists(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.True(t, forward)
		backward, err := f.follows.Exists(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		require.False(t, backward)

		gone, err := f.requests.GetByID(ctx, req.ID)
		require.NoError(t, err)
		require.Nil(t, gone)
		cnt, err := f.notifs.CountByReference(ctx, req.ID)
		require.NoError(t, err)
		require.EqualValues(t, 0, cnt)

		// 单向边两个视角都读作 following
		st, err := f.svc.Status(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.Equal(t, StatusFollowing, st)
		st, err = f.svc.Status(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		require.Equal(t, StatusFollowing, st)

		// 档案页三值投影里单向不算连接
		cs, err := f.svc.ProfileStatus(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.Equal(t, ConnectionNone, cs)

		// 已解决的请求不能再接受
		_, err = f.svc.AcceptRequest(ctx, bob.ID, req.ID)
		requireKind(t, err, KindNotFound)
	})

	t.Run("only receiver can accept", func(t *testing.T) {
		f := newRelFixture(t, nil, nil)
		alice := seedActiveUser(t, f.db, "alice")
		bob := seedActiveUser(t, f.db, "bob")
		carol := seedActiveUser(t, f.db, "carol")

		_, err := f.svc.SendRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		req, err := f.requests.GetByPair(ctx, alice.ID, bob.ID)
		require.NoError(t, err)

		_, err = f.svc.AcceptRequest(ctx, carol.ID, req.ID)
		requireKind(t, err, KindForbidden)
		_, err = f.svc.AcceptRequest(ctx, alice.ID, req.ID)
		requireKind(t, err, KindForbidden)
	})

	t.Run("reverse request after accept merges to mutual", func(t *testing.T) {
		f := newRelFixture(t, nil, nil)
		alice := seedActiveUser(t, f.db, "alice")
		bob := seedActiveUser(t, f.db, "bob")
		mustAccept(t, f, alice.ID, bob.ID)

		// bob 还没关注 alice，反向请求走常规路径
		res, err := f.svc.SendRequest(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		require.Equal(t, ActionRequestSent, res.Kind)

		req, err := f.requests.GetByPair(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		_, err = f.svc.AcceptRequest(ctx, alice.ID, req.ID)
		require.NoError(t, err)

		st, err := f.svc.Status(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.Equal(t, StatusMutual, st)
	})
}

func TestRejectRequest(t *testing.T) {
	ctx := context.Background()
	f := newRelFixture(t, nil, nil)
	alice := seedActiveUser(t, f.db, "alice")
	bob := seedActiveUser(t, f.db, "bob")

	_, err := f.svc.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	req, err := f.requests.GetByPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = f.svc.RejectRequest(ctx, alice.ID, req.ID)
	requireKind(t, err, KindForbidden)

	res, err := f.svc.RejectRequest(ctx, bob.ID, req.ID)
	require.NoError(t, err)
	require.Equal(t, ActionRejected, res.Kind)

	// 拒绝不建边，请求与通知都清掉
	exists, err := f.follows.Exists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, exists)
	cnt, err := f.notifs.CountByReference(ctx, req.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, cnt)

	// 拒绝后可以重新发起
	st, err := f.svc.Status(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, StatusNotFollowing, st)
	_, err = f.svc.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = f.svc.RejectRequest(ctx, bob.ID, req.ID)
	requireKind(t, err, KindNotFound)
}

func TestCancelRequest(t *testing.T) {
	ctx := context.Background()
	f := newRelFixture(t, nil, nil)
	alice := seedActiveUser(t, f.db, "alice")
	bob := seedActiveUser(t, f.db, "bob")

	_, err := f.svc.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	req, err := f.requests.GetByPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	res, err := f.svc.CancelRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, ActionCancelled, res.Kind)

	cnt, err := f.notifs.CountByReference(ctx, req.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, cnt)
	notifs, err := f.notifs.ListByUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Empty(t, notifs)

	_, err = f.svc.CancelRequest(ctx, alice.ID, bob.ID)
	requireKind(t, err, KindNotFound)
}

func TestUnfollow(t *testing.T) {
	ctx := context.Background()

	t.Run("mutual degrades to one-way", func(t *testing.T) {
		f := newRelFixture(t, nil, nil)
		alice := seedActiveUser(t, f.db, "alice")
		bob := seedActiveUser(t, f.db, "bob")

		_, err := f.svc.SendRequest(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		_, err = f.svc.SendRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)

		res, err := f.svc.Unfollow(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.Equal(t, ActionUnfollowed, res.Kind)

		forward, err := f.follows.Exists(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.False(t, forward)
		backward, err := f.follows.Exists(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		require.True(t, backward)

		cs, err := f.svc.ProfileStatus(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.Equal(t, ConnectionNone, cs)

		ok, err := f.svc.CanUsersMessage(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("not following", func(t *testing.T) {
		f := newRelFixture(t, nil, nil)
		alice := seedActiveUser(t, f.db, "alice")
		bob := seedActiveUser(t, f.db, "bob")

		_, err := f.svc.Unfollow(ctx, alice.ID, bob.ID)
		requireKind(t, err, KindNotFound)
		_, err = f.svc.Unfollow(ctx, alice.ID, alice.ID)
		requireKind(t, err, KindSelfReference)
	})
}

func TestStatusInputValidation(t *testing.T) {
	ctx := context.Background()
	f := newRelFixture(t, nil, nil)
	alice := seedActiveUser(t, f.db, "alice")

	_, err := f.svc.Status(ctx, alice.ID, alice.ID)
	requireKind(t, err, KindSelfReference)
	_, err = f.svc.Status(ctx, alice.ID, "no-such-user")
	requireKind(t, err, KindNotFound)
}

func TestPendingRequestsNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newRelFixture(t, nil, nil)
	alice := seedActiveUser(t, f.db, "alice")
	bob := seedActiveUser(t, f.db, "bob")
	carol := seedActiveUser(t, f.db, "carol")

	_, err := f.svc.SendRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = f.svc.SendRequest(ctx, carol.ID, alice.ID)
	require.NoError(t, err)

	pending, err := f.svc.PendingRequests(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "carol", pending[0].Sender.Username)
	require.Equal(t, "bob", pending[1].Sender.Username)

	empty, err := f.svc.PendingRequests(ctx, bob.ID)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestMessagingPermissions(t *testing.T) {
	ctx := context.Background()
	f := newRelFixture(t, nil, nil)
	alice := seedActiveUser(t, f.db, "alice")
	bob := seedActiveUser(t, f.db, "bob")

	ok, err := f.svc.CanUsersMessage(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, ok)

	mustAccept(t, f, alice.ID, bob.ID)
	ok, err = f.svc.CanUsersMessage(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, ok, "one-way follow must not unlock messaging")

	mustAccept(t, f, bob.ID, alice.ID)
	for _, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		ok, err = f.svc.CanUsersMessage(ctx, pair[0], pair[1])
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = f.svc.HasMutualFollow(ctx, pair[0], pair[1])
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestFollowersViaReplicator(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	fanRepo := repository.NewFanRepository(db)
	replicator := NewFanReplicator(fanRepo, 128)
	stop := replicator.Start(2)
	defer func() { _ = stop(ctx) }()

	f := &relFixture{
		db:       db,
		users:    repository.NewUserRepository(db),
		follows:  repository.NewFollowRepository(db),
		requests: repository.NewFollowRequestRepository(db),
		notifs:   repository.NewNotificationRepository(db),
		fans:     fanRepo,
	}
	f.svc = NewRelationshipService(db, f.users, f.follows, f.requests, f.notifs, f.fans, replicator, nil)

	alice := seedActiveUser(t, db, "alice")
	bob := seedActiveUser(t, db, "bob")
	mustAccept(t, f, alice.ID, bob.ID)

	// 冗余是异步的，等它落库
	require.Eventually(t, func() bool {
		followers, err := f.svc.Followers(ctx, bob.ID, 1, 20)
		return err == nil && len(followers) == 1 && followers[0].ID == alice.ID
	}, 2*time.Second, 20*time.Millisecond)

	_, err := f.svc.Unfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		followers, err := f.svc.Followers(ctx, bob.ID, 1, 20)
		return err == nil && len(followers) == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestConcurrentDuplicateSend(t *testing.T) {
	ctx := context.Background()
	f := newRelFixture(t, nil, nil)
	alice := seedActiveUser(t, f.db, "alice")
	bob := seedActiveUser(t, f.db, "bob")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.SendRequest(ctx, alice.ID, bob.ID)
		}(i)
	}
	wg.Wait()

	var conflicts, successes int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		kind, ok := KindOf(err)
		require.True(t, ok, "unexpected error: %v", err)
		require.Equal(t, KindConflict, kind)
		conflicts++
	}
	require.Equal(t, 1, successes)
	require.Equal(t, 1, conflicts)

	var reqCount int64
	require.NoError(t, f.db.Model(&model.FollowRequest{}).Count(&reqCount).Error)
	require.EqualValues(t, 1, reqCount)
	notifs, err := f.notifs.ListByUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
}
