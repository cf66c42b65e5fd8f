package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/gossip-server/internal/model"
	"github.com/d60-Lab/gossip-server/internal/repository"
)

type userFixture struct {
	*relFixture
	svc UserService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	rel := newRelFixture(t, nil, nil)
	return &userFixture{
		relFixture: rel,
		svc:        NewUserService(rel.users, rel.follows, rel.requests),
	}
}

func TestSearchUsers(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	viewer := seedActiveUser(t, f.db, "viewer")
	amy := seedActiveUser(t, f.db, "amy")
	amber := seedActiveUser(t, f.db, "amber")
	seedActiveUser(t, f.db, "bob")
	seedUser(t, f.db, "amanda", model.UserStatusPendingVerification)

	// viewer 关注 amy，对 amber 有未决请求
	mustAccept(t, f.relFixture, viewer.ID, amy.ID)
	_, err := f.relFixture.svc.SendRequest(ctx, viewer.ID, amber.ID)
	require.NoError(t, err)

	results, err := f.svc.Search(ctx, viewer.ID, "am", 20, 0)
	require.NoError(t, err)
	require.Len(t, results, 2, "pending users stay invisible")
	// 按用户名升序
	require.Equal(t, "amber", results[0].Username)
	require.Equal(t, "amy", results[1].Username)
	require.Equal(t, StatusRequestSent, results[0].Relationship)
	require.Equal(t, StatusFollowing, results[1].Relationship)

	// 搜自己名字也不包含自己
	self, err := f.svc.Search(ctx, viewer.ID, "view", 20, 0)
	require.NoError(t, err)
	require.Empty(t, self)

	empty, err := f.svc.Search(ctx, viewer.ID, "", 20, 0)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestSearchEscapesLikeWildcards(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	viewer := seedActiveUser(t, f.db, "viewer")
	seedActiveUser(t, f.db, "a_b")
	seedActiveUser(t, f.db, "acb")

	results, err := f.svc.Search(ctx, viewer.ID, "a_", 20, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "a_b", results[0].Username)
}

func TestGetUserByID(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	viewer := seedActiveUser(t, f.db, "viewer")
	bob := seedActiveUser(t, f.db, "bob")
	suspended := seedUser(t, f.db, "banned", model.UserStatusSuspended)

	got, err := f.svc.GetByID(ctx, viewer.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, StatusNotFollowing, got.Relationship)

	// 查自己的档案不派生关系
	me, err := f.svc.GetByID(ctx, viewer.ID, viewer.ID)
	require.NoError(t, err)
	require.NotNil(t, me)
	require.Equal(t, StatusNotFollowing, me.Relationship)

	missing, err := f.svc.GetByID(ctx, viewer.ID, "no-such-user")
	require.NoError(t, err)
	require.Nil(t, missing)

	gone, err := f.svc.GetByID(ctx, viewer.ID, suspended.ID)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestBatchSnapshotsMatchSingle(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	viewer := seedActiveUser(t, f.db, "viewer")

	others := make([]*model.User, 0, 4)
	for _, name := range []string{"u1", "u2", "u3", "u4"} {
		others = append(others, seedActiveUser(t, f.db, name))
	}
	// u1: viewer 关注；u2: 关注 viewer；u3: 请求已发；u4: 无关系
	mustAccept(t, f.relFixture, viewer.ID, others[0].ID)
	mustAccept(t, f.relFixture, others[1].ID, viewer.ID)
	_, err := f.relFixture.svc.SendRequest(ctx, viewer.ID, others[2].ID)
	require.NoError(t, err)

	ids := make([]string, len(others))
	for i, u := range others {
		ids[i] = u.ID
	}
	follows := repository.NewFollowRepository(f.db)
	requests := repository.NewFollowRequestRepository(f.db)
	batch, err := loadSnapshots(ctx, follows, requests, viewer.ID, ids)
	require.NoError(t, err)

	for _, u := range others {
		single, err := loadSnapshot(ctx, follows, requests, viewer.ID, u.ID)
		require.NoError(t, err)
		require.Equal(t, single, batch[u.ID], "user %s", u.Username)
		require.Equal(t, single.status(), batch[u.ID].status())
	}
	require.Equal(t, StatusFollowing, batch[others[0].ID].status())
	require.Equal(t, StatusFollowing, batch[others[1].ID].status())
	require.Equal(t, StatusRequestSent, batch[others[2].ID].status())
	require.Equal(t, StatusNotFollowing, batch[others[3].ID].status())
}
